package dto

import "github.com/shopspring/decimal"

// OrderLineRequest is one cart line. Price and tax rate are the snapshot the
// cart was built from; stock is re-validated at submission, prices are not.
type OrderLineRequest struct {
	ProductID string           `json:"productId" validate:"required"`
	Name      string           `json:"name"      validate:"required"`
	UnitPrice decimal.Decimal  `json:"unitPrice" validate:"min=0"`
	TaxRate   *decimal.Decimal `json:"taxRate"   validate:"omitempty,min=0,max=1"`
	Quantity  int              `json:"quantity"  validate:"required,min=1"`
	ImageRef  string           `json:"imageRef"`
}

type SubmitOrderRequest struct {
	Items         []OrderLineRequest `json:"items"         validate:"required,min=1,dive"`
	PaymentMethod string             `json:"paymentMethod" validate:"required,oneof=Cash CreditCard QR"`
	// CashReceived is required for Cash and must cover the total; it stays
	// unset for other payment methods.
	CashReceived *decimal.Decimal `json:"cashReceived" validate:"omitempty,min=0"`
	ShiftID      string           `json:"shiftId"      validate:"required"`
}
