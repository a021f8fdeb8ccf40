package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpos/internal/apperror"
	"tillpos/internal/dto"
	"tillpos/internal/model"
	"tillpos/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewService(store)
}

func mustCreate(t *testing.T, svc *Service, name string, price float64, stock int, branchID string) *model.Product {
	t.Helper()
	p, err := svc.SaveProduct(context.Background(), dto.SaveProductRequest{
		Name:  name,
		Price: decimal.NewFromFloat(price),
		Stock: stock,
	}, branchID)
	require.NoError(t, err)
	return p
}

func TestSaveProductCreate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rate := decimal.NewFromFloat(0.07)
	p, err := svc.SaveProduct(ctx, dto.SaveProductRequest{
		Name:    "Espresso",
		Price:   decimal.NewFromFloat(2.50),
		TaxRate: &rate,
		Stock:   50,
	}, "branch-1")
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Espresso", p.Name)
	assert.Equal(t, "https://picsum.photos/seed/Espresso/400/300", p.ImageRef)

	listed, err := svc.ListProducts(ctx, "branch-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 50, listed[0].Stock)
}

func TestSaveProductUpdateKeepsStockAndImage(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created := mustCreate(t, svc, "Latte", 3.50, 12, "branch-1")

	updated, err := svc.SaveProduct(ctx, dto.SaveProductRequest{
		ID:    created.ID,
		Name:  "Latte Grande",
		Price: decimal.NewFromFloat(4.00),
	}, "branch-1")
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Latte Grande", updated.Name)
	// Omitted fields keep their stored value on update.
	assert.Equal(t, created.ImageRef, updated.ImageRef)

	listed, err := svc.ListProducts(ctx, "branch-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 12, listed[0].Stock)
}

func TestSaveProductUpdateMissingID(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.SaveProduct(context.Background(), dto.SaveProductRequest{
		ID:    "no-such-id",
		Name:  "Ghost",
		Price: decimal.NewFromInt(1),
	}, "branch-1")

	var notFound *apperror.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestListProductsSortedCaseInsensitive(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, "banana", 1, 0, "branch-1")
	mustCreate(t, svc, "Apple", 1, 0, "branch-1")
	mustCreate(t, svc, "cherry", 1, 0, "branch-1")

	listed, err := svc.ListProducts(ctx, "branch-1")
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "Apple", listed[0].Name)
	assert.Equal(t, "banana", listed[1].Name)
	assert.Equal(t, "cherry", listed[2].Name)
}

func TestListProductsUnstockedBranchShowsZero(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, "Espresso", 2.50, 50, "branch-1")

	listed, err := svc.ListProducts(ctx, "branch-2")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 0, listed[0].Stock)
}

func TestRestockAccumulates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p := mustCreate(t, svc, "Espresso", 2.50, 10, "branch-1")

	row, err := svc.Restock(ctx, p.ID, "branch-1", 15)
	require.NoError(t, err)
	assert.Equal(t, 25, row.Stock)
}

func TestRestockRejectsNonPositiveQuantity(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p := mustCreate(t, svc, "Espresso", 2.50, 10, "branch-1")

	for _, qty := range []int{0, -5} {
		_, err := svc.Restock(ctx, p.ID, "branch-1", qty)
		var badArg *apperror.InvalidArgumentError
		require.ErrorAs(t, err, &badArg)
	}

	// Failed restocks leave the row untouched.
	row, err := svc.Restock(ctx, p.ID, "branch-1", 1)
	require.NoError(t, err)
	assert.Equal(t, 11, row.Stock)
}

func TestRestockMissingRow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p := mustCreate(t, svc, "Espresso", 2.50, 10, "branch-1")

	_, err := svc.Restock(ctx, p.ID, "branch-2", 5)
	var notFound *apperror.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestDeleteProductCascadesStockRows(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p := mustCreate(t, svc, "Espresso", 2.50, 10, "branch-1")
	other := mustCreate(t, svc, "Latte", 3.50, 5, "branch-1")

	// Second stock row for the doomed product at another branch.
	err := svc.store.Update(ctx, func(tx *storage.Tx) error {
		rows, err := storage.ReadAll[model.ProductStock](ctx, tx, storage.ProductStock)
		if err != nil {
			return err
		}
		rows = append(rows, model.ProductStock{
			ID:        model.StockRowID(p.ID, "branch-2"),
			ProductID: p.ID,
			BranchID:  "branch-2",
			Stock:     7,
		})
		return storage.ReplaceAll(ctx, tx, storage.ProductStock, rows)
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))

	err = svc.store.View(ctx, func(tx *storage.Tx) error {
		rows, err := storage.ReadAll[model.ProductStock](ctx, tx, storage.ProductStock)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, other.ID, rows[0].ProductID)
		return nil
	})
	require.NoError(t, err)

	listed, err := svc.ListProducts(ctx, "branch-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, other.ID, listed[0].ID)
}

func TestEnsureDefaultsSeedsDemoCatalog(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefaults(ctx, "branch-1"))
	require.NoError(t, svc.EnsureDefaults(ctx, "branch-1"))

	listed, err := svc.ListProducts(ctx, "branch-1")
	require.NoError(t, err)
	require.Len(t, listed, 6)

	byName := make(map[string]model.ProductWithStock, len(listed))
	for _, p := range listed {
		byName[p.Name] = p
	}
	espresso := byName["Espresso"]
	assert.True(t, espresso.Price.Equal(decimal.NewFromFloat(2.50)))
	require.NotNil(t, espresso.TaxRate)
	assert.True(t, espresso.TaxRate.Equal(decimal.NewFromFloat(0.07)))
	assert.Equal(t, 50, espresso.Stock)

	// The demo set covers every stock state the register can show.
	assert.Equal(t, 0, byName["Iced Coffee"].Stock)
	assert.Equal(t, 10, byName["Latte"].Stock)
	assert.Equal(t, 10, byName["Croissant"].Stock)
	assert.Empty(t, byName["Latte"].ExpiryDate)
	assert.NotEmpty(t, byName["Croissant"].ExpiryDate)
}

func TestEnsureDefaultsLeavesExistingCatalogAlone(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created := mustCreate(t, svc, "House Blend", 4.00, 7, "branch-1")

	require.NoError(t, svc.EnsureDefaults(ctx, "branch-1"))
	require.NoError(t, svc.EnsureDefaults(ctx, "branch-1"))

	listed, err := svc.ListProducts(ctx, "branch-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
	assert.Equal(t, 7, listed[0].Stock)
}

func TestDeleteProductMissing(t *testing.T) {
	svc := newTestService(t)

	err := svc.DeleteProduct(context.Background(), "no-such-id")
	var notFound *apperror.NotFoundError
	require.ErrorAs(t, err, &notFound)
}
