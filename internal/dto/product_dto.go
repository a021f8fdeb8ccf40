package dto

import "github.com/shopspring/decimal"

// SaveProductRequest creates a product when ID is empty and merge-updates the
// existing one otherwise. Stock only applies on create — it seeds the single
// stock row at the requesting branch and is ignored on update.
type SaveProductRequest struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"     validate:"required"`
	Price      decimal.Decimal  `json:"price"    validate:"min=0"`
	ImageRef   string           `json:"imageRef"`
	Category   string           `json:"category"`
	Barcode    string           `json:"barcode"`
	TaxRate    *decimal.Decimal `json:"taxRate"  validate:"omitempty,min=0,max=1"`
	ExpiryDate string           `json:"expiryDate"`
	Stock      int              `json:"stock"    validate:"min=0"`
}

// RestockRequest adds quantity units to one (product, branch) stock row.
type RestockRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}
