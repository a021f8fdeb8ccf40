package model

import "github.com/shopspring/decimal"

// Product is the branch-independent product definition. Stock deliberately
// does NOT live here — it is branch-scoped and kept in ProductStock rows.
// Pre-v5 stores carried an embedded stock field; migration v5 moves it out.
type Product struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Price      decimal.Decimal  `json:"price"`
	ImageRef   string           `json:"imageRef"`
	Category   string           `json:"category"`
	Barcode    string           `json:"barcode,omitempty"`
	TaxRate    *decimal.Decimal `json:"taxRate,omitempty"`
	ExpiryDate string           `json:"expiryDate,omitempty"` // YYYY-MM-DD
}

// ProductStock is the (product, branch) stock count. One row per pair;
// stock must never go negative.
type ProductStock struct {
	ID        string `json:"id"` // productID-branchID
	ProductID string `json:"productId"`
	BranchID  string `json:"branchId"`
	Stock     int    `json:"stock"`
}

// StockRowID builds the composite key enforcing (product, branch) uniqueness.
func StockRowID(productID, branchID string) string {
	return productID + "-" + branchID
}

// ProductWithStock is the stock-aware view the catalog serves per branch.
type ProductWithStock struct {
	Product
	Stock int `json:"stock"`
}
