// Package catalog composes product definitions with their branch-scoped stock
// rows. Products are never deleted without cascading over every stock row,
// which is what keeps the (product, branch) uniqueness invariant free of
// orphans.
package catalog

import (
	"context"
	"net/url"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"tillpos/internal/apperror"
	"tillpos/internal/dto"
	"tillpos/internal/model"
	"tillpos/internal/storage"
)

type Service struct {
	store *storage.Store
}

func NewService(store *storage.Store) *Service {
	return &Service{store: store}
}

// ListProducts joins every product with its stock row at branchID. A product
// with no row at the branch is simply not stocked there — stock 0, not an
// error. Sorted by name, case-insensitive and locale-aware.
func (s *Service) ListProducts(ctx context.Context, branchID string) ([]model.ProductWithStock, error) {
	var out []model.ProductWithStock
	err := s.store.View(ctx, func(tx *storage.Tx) error {
		products, err := storage.ReadAll[model.Product](ctx, tx, storage.Products)
		if err != nil {
			return err
		}
		rows, err := storage.ReadAll[model.ProductStock](ctx, tx, storage.ProductStock)
		if err != nil {
			return err
		}
		stockAt := make(map[string]int, len(rows))
		for _, row := range rows {
			if row.BranchID == branchID {
				stockAt[row.ProductID] = row.Stock
			}
		}
		out = make([]model.ProductWithStock, 0, len(products))
		for _, p := range products {
			out = append(out, model.ProductWithStock{Product: p, Stock: stockAt[p.ID]})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Collators carry mutable buffers, so build one per call.
	c := collate.New(language.Und, collate.Loose)
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out, nil
}

// SaveProduct merge-updates when req.ID is set (stock rows untouched) and
// creates otherwise: fresh identifier, default image ref when none supplied,
// and exactly one stock row at branchID seeded from req.Stock.
func (s *Service) SaveProduct(ctx context.Context, req dto.SaveProductRequest, branchID string) (*model.Product, error) {
	if req.Name == "" {
		return nil, &apperror.InvalidArgumentError{Detail: "product name is required"}
	}
	if req.Price.IsNegative() {
		return nil, &apperror.InvalidArgumentError{Detail: "product price must not be negative"}
	}
	if req.Stock < 0 {
		return nil, &apperror.InvalidArgumentError{Detail: "initial stock must not be negative"}
	}
	if req.TaxRate != nil && (req.TaxRate.IsNegative() || req.TaxRate.GreaterThan(one)) {
		return nil, &apperror.InvalidArgumentError{Detail: "tax rate must be within [0, 1]"}
	}

	var saved model.Product
	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		products, err := storage.ReadAll[model.Product](ctx, tx, storage.Products)
		if err != nil {
			return err
		}

		if req.ID != "" {
			idx := -1
			for i, p := range products {
				if p.ID == req.ID {
					idx = i
					break
				}
			}
			if idx < 0 {
				return &apperror.NotFoundError{Entity: "product", ID: req.ID}
			}
			updated := products[idx]
			updated.Name = req.Name
			updated.Price = req.Price
			updated.Category = req.Category
			updated.Barcode = req.Barcode
			updated.ExpiryDate = req.ExpiryDate
			if req.ImageRef != "" {
				updated.ImageRef = req.ImageRef
			}
			if req.TaxRate != nil {
				updated.TaxRate = req.TaxRate
			}
			products[idx] = updated
			saved = updated
			return storage.ReplaceAll(ctx, tx, storage.Products, products)
		}

		saved = model.Product{
			ID:         uuid.NewString(),
			Name:       req.Name,
			Price:      req.Price,
			ImageRef:   req.ImageRef,
			Category:   req.Category,
			Barcode:    req.Barcode,
			TaxRate:    req.TaxRate,
			ExpiryDate: req.ExpiryDate,
		}
		if saved.ImageRef == "" {
			saved.ImageRef = defaultImageRef(saved.Name)
		}
		products = append([]model.Product{saved}, products...)
		if err := storage.ReplaceAll(ctx, tx, storage.Products, products); err != nil {
			return err
		}

		rows, err := storage.ReadAll[model.ProductStock](ctx, tx, storage.ProductStock)
		if err != nil {
			return err
		}
		rows = append(rows, model.ProductStock{
			ID:        model.StockRowID(saved.ID, branchID),
			ProductID: saved.ID,
			BranchID:  branchID,
			Stock:     req.Stock,
		})
		return storage.ReplaceAll(ctx, tx, storage.ProductStock, rows)
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// DeleteProduct removes the product and every stock row it has, across all
// branches, in one atomic unit.
func (s *Service) DeleteProduct(ctx context.Context, productID string) error {
	return s.store.Update(ctx, func(tx *storage.Tx) error {
		products, err := storage.ReadAll[model.Product](ctx, tx, storage.Products)
		if err != nil {
			return err
		}
		kept := products[:0]
		found := false
		for _, p := range products {
			if p.ID == productID {
				found = true
				continue
			}
			kept = append(kept, p)
		}
		if !found {
			return &apperror.NotFoundError{Entity: "product", ID: productID}
		}
		if err := storage.ReplaceAll(ctx, tx, storage.Products, kept); err != nil {
			return err
		}

		rows, err := storage.ReadAll[model.ProductStock](ctx, tx, storage.ProductStock)
		if err != nil {
			return err
		}
		keptRows := rows[:0]
		for _, row := range rows {
			if row.ProductID != productID {
				keptRows = append(keptRows, row)
			}
		}
		return storage.ReplaceAll(ctx, tx, storage.ProductStock, keptRows)
	})
}

// Restock adds quantity units to the (product, branch) stock row. The row
// must already exist — restocking is additive, it never creates rows.
func (s *Service) Restock(ctx context.Context, productID, branchID string, quantity int) (*model.ProductStock, error) {
	if quantity <= 0 {
		return nil, &apperror.InvalidArgumentError{Detail: "restock quantity must be a positive integer"}
	}
	rowID := model.StockRowID(productID, branchID)
	var updated model.ProductStock
	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		rows, err := storage.ReadAll[model.ProductStock](ctx, tx, storage.ProductStock)
		if err != nil {
			return err
		}
		idx := -1
		for i, row := range rows {
			if row.ID == rowID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return &apperror.NotFoundError{Entity: "stock row", ID: rowID}
		}
		rows[idx].Stock += quantity
		updated = rows[idx]
		return storage.ReplaceAll(ctx, tx, storage.ProductStock, rows)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// EnsureDefaults seeds the demo catalog on an empty store: six products with
// stock rows at branchID, including an out-of-stock one and a pair of
// low-stock ones so the register has every stock state to show. A store that
// already has products is left alone.
func (s *Service) EnsureDefaults(ctx context.Context, branchID string) error {
	return s.store.Update(ctx, func(tx *storage.Tx) error {
		existing, err := storage.ReadAll[model.Product](ctx, tx, storage.Products)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}

		now := time.Now()
		expired := now.AddDate(0, 0, -5).Format("2006-01-02")
		soon := now.AddDate(0, 0, 5).Format("2006-01-02")
		future := now.AddDate(0, 0, 90).Format("2006-01-02")
		rate := decimal.NewFromFloat(0.07)

		defaults := []struct {
			name     string
			price    float64
			category string
			barcode  string
			expiry   string
			stock    int
		}{
			{"Espresso", 2.50, "Coffee", "10001", future, 50},
			{"Latte", 3.50, "Coffee", "10002", "", 10},
			{"Cappuccino", 3.50, "Coffee", "10003", soon, 50},
			{"Croissant", 2.75, "Bakery", "20001", expired, 10},
			{"Muffin", 2.25, "Bakery", "20002", soon, 50},
			{"Iced Coffee", 3.00, "Drinks", "30001", future, 0},
		}

		products := make([]model.Product, 0, len(defaults))
		rows := make([]model.ProductStock, 0, len(defaults))
		for _, d := range defaults {
			p := model.Product{
				ID:         uuid.NewString(),
				Name:       d.name,
				Price:      decimal.NewFromFloat(d.price),
				ImageRef:   defaultImageRef(d.name),
				Category:   d.category,
				Barcode:    d.barcode,
				TaxRate:    &rate,
				ExpiryDate: d.expiry,
			}
			products = append(products, p)
			rows = append(rows, model.ProductStock{
				ID:        model.StockRowID(p.ID, branchID),
				ProductID: p.ID,
				BranchID:  branchID,
				Stock:     d.stock,
			})
		}
		if err := storage.ReplaceAll(ctx, tx, storage.Products, products); err != nil {
			return err
		}
		return storage.ReplaceAll(ctx, tx, storage.ProductStock, rows)
	})
}

var one = decimal.NewFromInt(1)

// defaultImageRef mirrors the placeholder the product form falls back to.
func defaultImageRef(name string) string {
	return "https://picsum.photos/seed/" + url.QueryEscape(name) + "/400/300"
}
