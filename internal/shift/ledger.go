// Package shift tracks cashier work sessions per branch. Shift rows are never
// deleted: closing one sets its end time, and the next session for the same
// (cashier, branch) pair is a new row.
package shift

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tillpos/internal/apperror"
	"tillpos/internal/model"
	"tillpos/internal/storage"
)

type Ledger struct {
	store *storage.Store
	now   func() time.Time
}

func NewLedger(store *storage.Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// Start opens a shift for (cashierID, branchID). The check and the append run
// in one Update, so two racing starts can never yield two active rows for the
// same pair.
func (l *Ledger) Start(ctx context.Context, cashierID, branchID string) (*model.Shift, error) {
	if cashierID == "" || branchID == "" {
		return nil, &apperror.InvalidArgumentError{Detail: "cashier and branch are required"}
	}
	var created model.Shift
	err := l.store.Update(ctx, func(tx *storage.Tx) error {
		shifts, err := storage.ReadAll[model.Shift](ctx, tx, storage.Shifts)
		if err != nil {
			return err
		}
		for _, s := range shifts {
			if s.CashierID == cashierID && s.BranchID == branchID && s.Active() {
				return &apperror.ConflictError{
					Detail: "a shift is already active for this cashier at this branch",
				}
			}
		}
		created = model.Shift{
			ID:        uuid.NewString(),
			CashierID: cashierID,
			BranchID:  branchID,
			StartTime: l.now().UTC(),
		}
		shifts = append(shifts, created)
		return storage.ReplaceAll(ctx, tx, storage.Shifts, shifts)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// End closes the shift. A shift that does not exist or is already closed is
// reported as not found — closed shifts are terminal, never reopened.
func (l *Ledger) End(ctx context.Context, shiftID string) (*model.Shift, error) {
	var ended model.Shift
	err := l.store.Update(ctx, func(tx *storage.Tx) error {
		shifts, err := storage.ReadAll[model.Shift](ctx, tx, storage.Shifts)
		if err != nil {
			return err
		}
		for i, s := range shifts {
			if s.ID != shiftID || !s.Active() {
				continue
			}
			end := l.now().UTC()
			shifts[i].EndTime = &end
			ended = shifts[i]
			return storage.ReplaceAll(ctx, tx, storage.Shifts, shifts)
		}
		return &apperror.NotFoundError{Entity: "active shift", ID: shiftID}
	})
	if err != nil {
		return nil, err
	}
	return &ended, nil
}

// ActiveFor returns the single open shift for the pair, or nil when there is
// none.
func (l *Ledger) ActiveFor(ctx context.Context, cashierID, branchID string) (*model.Shift, error) {
	var active *model.Shift
	err := l.store.View(ctx, func(tx *storage.Tx) error {
		shifts, err := storage.ReadAll[model.Shift](ctx, tx, storage.Shifts)
		if err != nil {
			return err
		}
		for _, s := range shifts {
			if s.CashierID == cashierID && s.BranchID == branchID && s.Active() {
				active = &s
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return active, nil
}

// List returns every shift, open and closed.
func (l *Ledger) List(ctx context.Context) ([]model.Shift, error) {
	var shifts []model.Shift
	err := l.store.View(ctx, func(tx *storage.Tx) error {
		var err error
		shifts, err = storage.ReadAll[model.Shift](ctx, tx, storage.Shifts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return shifts, nil
}
