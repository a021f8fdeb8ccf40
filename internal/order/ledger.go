// Package order appends immutable completed-sale records and adjusts branch
// stock as a side effect of the same transaction. A submission either fully
// applies — every line's stock decremented, exactly one record appended — or
// fully fails with nothing changed.
package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tillpos/internal/apperror"
	"tillpos/internal/dto"
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

// Submit creates a completed order for the cashier at branchID.
//
// Stock is re-validated at submission time against the live rows, never
// trusted from the cart snapshot; prices and tax rates ARE the cart snapshot,
// persisted verbatim so the receipt survives later product edits. Totals:
// subtotal = Σ price·qty, tax = Σ price·qty·rate (missing rate = 0),
// total = subtotal + tax.
func (l *Ledger) Submit(ctx context.Context, req dto.SubmitOrderRequest, cashier model.CashierSnapshot, branchID string) (*model.CompletedOrder, error) {
	if len(req.Items) == 0 {
		return nil, &apperror.InvalidArgumentError{Detail: "order must contain at least one item"}
	}
	method := model.PaymentMethod(req.PaymentMethod)
	switch method {
	case model.PaymentCash, model.PaymentCreditCard, model.PaymentQR:
	default:
		return nil, &apperror.InvalidArgumentError{Detail: "unknown payment method " + req.PaymentMethod}
	}

	items := make([]model.OrderItem, 0, len(req.Items))
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, line := range req.Items {
		if line.Quantity < 1 {
			return nil, &apperror.InvalidArgumentError{Detail: "item quantity must be at least 1"}
		}
		if line.UnitPrice.IsNegative() {
			return nil, &apperror.InvalidArgumentError{Detail: "item price must not be negative"}
		}
		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		if line.TaxRate != nil {
			tax = tax.Add(lineTotal.Mul(*line.TaxRate))
		}
		items = append(items, model.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			TaxRate:   line.TaxRate,
			Quantity:  line.Quantity,
			ImageRef:  line.ImageRef,
		})
	}
	total := subtotal.Add(tax)

	var cashReceived, changeDue *decimal.Decimal
	if method == model.PaymentCash {
		if req.CashReceived == nil {
			return nil, &apperror.InvalidPaymentError{Detail: "cash received is required for cash payment"}
		}
		if req.CashReceived.LessThan(total) {
			return nil, &apperror.InvalidPaymentError{Detail: "cash received does not cover the total"}
		}
		change := req.CashReceived.Sub(total)
		cashReceived = req.CashReceived
		changeDue = &change
	}

	// Total requested per product: the same product on two lines competes
	// for the same stock row.
	requested := make(map[string]int, len(items))
	for _, item := range items {
		requested[item.ProductID] += item.Quantity
	}

	var completed model.CompletedOrder
	err := l.store.Update(ctx, func(tx *storage.Tx) error {
		rows, err := storage.ReadAll[model.ProductStock](ctx, tx, storage.ProductStock)
		if err != nil {
			return err
		}
		available := make(map[string]int, len(rows))
		for _, row := range rows {
			if row.BranchID == branchID {
				available[row.ProductID] = row.Stock
			}
		}
		for _, item := range items {
			need := requested[item.ProductID]
			if need > available[item.ProductID] {
				return &apperror.InsufficientStockError{
					ProductID:   item.ProductID,
					ProductName: item.Name,
					Requested:   need,
					Available:   available[item.ProductID],
				}
			}
		}

		for i, row := range rows {
			if row.BranchID != branchID {
				continue
			}
			if need, ok := requested[row.ProductID]; ok {
				rows[i].Stock -= need
			}
		}
		if err := storage.ReplaceAll(ctx, tx, storage.ProductStock, rows); err != nil {
			return err
		}

		history, err := storage.ReadAll[model.CompletedOrder](ctx, tx, storage.SalesHistory)
		if err != nil {
			return err
		}
		completed = model.CompletedOrder{
			ID:            uuid.NewString(),
			Items:         items,
			Subtotal:      subtotal,
			Tax:           tax,
			Total:         total,
			PaymentMethod: method,
			CashReceived:  cashReceived,
			ChangeDue:     changeDue,
			Cashier:       cashier,
			Date:          l.now().UTC(),
			BranchID:      branchID,
			ShiftID:       req.ShiftID,
		}
		history = append([]model.CompletedOrder{completed}, history...)
		return storage.ReplaceAll(ctx, tx, storage.SalesHistory, history)
	})
	if err != nil {
		return nil, err
	}
	return &completed, nil
}

// History returns the sales ledger, newest first.
func (l *Ledger) History(ctx context.Context) ([]model.CompletedOrder, error) {
	var history []model.CompletedOrder
	err := l.store.View(ctx, func(tx *storage.Tx) error {
		var err error
		history, err = storage.ReadAll[model.CompletedOrder](ctx, tx, storage.SalesHistory)
		return err
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}
