// Package syncer computes the incremental export set for the remote system
// and owns the sync watermark. It performs no network I/O: sending the
// document (and retrying) is the exporter's job, and the watermark only
// advances after the caller confirms the remote accepted the whole document.
package syncer

import (
	"context"
	"time"

	"tillpos/internal/apperror"
	"tillpos/internal/model"
	"tillpos/internal/storage"
)

// ExportDocument is the single unit sent to the remote system; the remote
// contract is accept-or-reject the whole document, no partial acknowledgment.
type ExportDocument struct {
	Sales         []model.CompletedOrder `json:"sales"`
	Shifts        []model.Shift          `json:"shifts"`
	SyncTimestamp time.Time              `json:"syncTimestamp"`
}

// Empty reports whether there is nothing to export.
func (d ExportDocument) Empty() bool {
	return len(d.Sales) == 0 && len(d.Shifts) == 0
}

type Coordinator struct {
	store *storage.Store
	now   func() time.Time
}

func NewCoordinator(store *storage.Store) *Coordinator {
	return &Coordinator{store: store, now: time.Now}
}

// Watermark is the boundary below which every record is considered already
// synced. Zero when no export has ever been committed.
func (c *Coordinator) Watermark(ctx context.Context) (time.Time, error) {
	var mark time.Time
	err := c.store.View(ctx, func(tx *storage.Tx) error {
		value, ok, err := storage.GetScalar[time.Time](ctx, tx, storage.KeyLastSync)
		if err != nil {
			return err
		}
		if ok {
			mark = value
		}
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	return mark, nil
}

// Pending returns the records created or modified since the watermark: sales
// dated after it, and shifts started or ended after it. The document's
// SyncTimestamp is the candidate watermark to commit on success.
func (c *Coordinator) Pending(ctx context.Context) (*ExportDocument, error) {
	doc := &ExportDocument{
		Sales:         []model.CompletedOrder{},
		Shifts:        []model.Shift{},
		SyncTimestamp: c.now().UTC(),
	}
	err := c.store.View(ctx, func(tx *storage.Tx) error {
		mark, _, err := storage.GetScalar[time.Time](ctx, tx, storage.KeyLastSync)
		if err != nil {
			return err
		}
		sales, err := storage.ReadAll[model.CompletedOrder](ctx, tx, storage.SalesHistory)
		if err != nil {
			return err
		}
		for _, sale := range sales {
			if sale.Date.After(mark) {
				doc.Sales = append(doc.Sales, sale)
			}
		}
		shifts, err := storage.ReadAll[model.Shift](ctx, tx, storage.Shifts)
		if err != nil {
			return err
		}
		for _, s := range shifts {
			if s.StartTime.After(mark) || (s.EndTime != nil && s.EndTime.After(mark)) {
				doc.Shifts = append(doc.Shifts, s)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Commit advances the watermark. Only call it after the remote durably
// accepted the export. Moving backward is rejected: the watermark is
// monotonically non-decreasing for the life of the store.
func (c *Coordinator) Commit(ctx context.Context, newWatermark time.Time) error {
	return c.store.Update(ctx, func(tx *storage.Tx) error {
		current, ok, err := storage.GetScalar[time.Time](ctx, tx, storage.KeyLastSync)
		if err != nil {
			return err
		}
		if ok && newWatermark.Before(current) {
			return &apperror.InvalidArgumentError{Detail: "sync watermark cannot move backward"}
		}
		mark := newWatermark.UTC()
		return storage.SetScalar(ctx, tx, storage.KeyLastSync, &mark)
	})
}
