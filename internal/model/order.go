package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how a completed order was settled.
type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "Cash"
	PaymentCreditCard PaymentMethod = "CreditCard"
	PaymentQR         PaymentMethod = "QR"
)

// OrderItem is one line of an order. Name, price, and tax rate are snapshots
// taken at sale time so later product edits never alter historical receipts.
type OrderItem struct {
	ProductID string           `json:"productId"`
	Name      string           `json:"name"`
	UnitPrice decimal.Decimal  `json:"unitPrice"`
	TaxRate   *decimal.Decimal `json:"taxRate,omitempty"`
	Quantity  int              `json:"quantity"`
	ImageRef  string           `json:"imageRef"`
}

// CashierSnapshot embeds who rang the sale up, denormalized on purpose:
// the receipt must stay stable even when the user record changes.
type CashierSnapshot struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// CompletedOrder is an immutable sales-ledger entry. Subtotal, tax, and total
// are computed once at creation and persisted verbatim — never recomputed
// from items. CashReceived and ChangeDue apply to cash payments only and are
// nil ("not applicable") otherwise.
type CompletedOrder struct {
	ID            string           `json:"id"`
	Items         []OrderItem      `json:"items"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	Tax           decimal.Decimal  `json:"tax"`
	Total         decimal.Decimal  `json:"total"`
	PaymentMethod PaymentMethod    `json:"paymentMethod"`
	CashReceived  *decimal.Decimal `json:"cashReceived,omitempty"`
	ChangeDue     *decimal.Decimal `json:"changeDue,omitempty"`
	Cashier       CashierSnapshot  `json:"cashier"`
	Date          time.Time        `json:"date"`
	BranchID      string           `json:"branchId"`
	ShiftID       string           `json:"shiftId"`
}
