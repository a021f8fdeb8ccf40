package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpos/internal/apperror"
)

// seedLegacyStore writes a raw store file frozen at the given schema version,
// bypassing migrations, the way an old install would have left it on disk.
func seedLegacyStore(t *testing.T, path string, version int, data map[Collection][]map[string]any) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, createSubstrate(db))
	for col, docs := range data {
		_, err := db.Exec(`INSERT OR IGNORE INTO collections (name) VALUES (?)`, string(col))
		require.NoError(t, err)
		for i, doc := range docs {
			raw, err := json.Marshal(doc)
			require.NoError(t, err)
			_, err = db.Exec(`INSERT INTO records (collection, position, doc) VALUES (?, ?, ?)`,
				string(col), i, raw)
			require.NoError(t, err)
		}
	}
	_, err = db.Exec(fmt.Sprintf("PRAGMA user_version = %d", version))
	require.NoError(t, err)
}

func storedVersion(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	var v int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&v))
	return v
}

func TestFreshStoreLandsAtCurrentVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	assert.Equal(t, currentSchemaVersion, storedVersion(t, path))
}

func TestMigrateIsIdempotentAcrossReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	for i := 0; i < 3; i++ {
		store, err := Open(path)
		require.NoError(t, err)
		require.NoError(t, store.Close())
	}
	assert.Equal(t, currentSchemaVersion, storedVersion(t, path))
}

func TestMigrateV1ToCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	seedLegacyStore(t, path, 1, map[Collection][]map[string]any{
		Products: {
			{"id": "p1", "name": "Espresso", "price": 2.5, "stock": 40.0},
			{"id": "p2", "name": "Latte", "price": 3.5, "stock": 12.0, "taxRate": 0.21},
		},
	})

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	err = store.View(ctx, func(tx *Tx) error {
		products, err := ReadAll[map[string]any](ctx, tx, Products)
		require.NoError(t, err)
		require.Len(t, products, 2)

		// The v4 backfill only touches products missing the rate.
		assert.InDelta(t, defaultTaxRate, products[0]["taxRate"], 1e-9)
		assert.InDelta(t, 0.21, products[1]["taxRate"], 1e-9)

		// Embedded stock moved onto branch-scoped rows at the default branch.
		for _, p := range products {
			assert.NotContains(t, p, "stock")
		}
		stock, err := ReadAll[map[string]any](ctx, tx, ProductStock)
		require.NoError(t, err)
		require.Len(t, stock, 2)
		assert.Equal(t, "p1-"+DefaultBranchID, stock[0]["id"])
		assert.InDelta(t, 40, stock[0]["stock"], 1e-9)
		assert.Equal(t, DefaultBranchID, stock[0]["branchId"])

		branches, err := ReadAll[map[string]any](ctx, tx, Branches)
		require.NoError(t, err)
		require.Len(t, branches, 1)
		assert.Equal(t, DefaultBranchID, branches[0]["id"])
		assert.Equal(t, DefaultBranchName, branches[0]["name"])
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, storedVersion(t, path))
}

func TestMigrateBackfillsUserBranches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	seedLegacyStore(t, path, 3, map[Collection][]map[string]any{
		Users: {
			{"id": "u1", "name": "Alice", "role": "Admin"},
			{"id": "u2", "name": "Bob", "role": "Cashier", "branchIds": []string{"other-branch"}},
		},
	})

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	err = store.View(ctx, func(tx *Tx) error {
		users, err := ReadAll[map[string]any](ctx, tx, Users)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, []any{DefaultBranchID}, users[0]["branchIds"])
		assert.Equal(t, []any{"other-branch"}, users[1]["branchIds"])
		return nil
	})
	require.NoError(t, err)
}

func TestNewerStoreRefusesToOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	seedLegacyStore(t, path, currentSchemaVersion+1, nil)

	_, err := Open(path)
	require.Error(t, err)
	var migErr *apperror.MigrationError
	require.ErrorAs(t, err, &migErr)
	assert.Equal(t, currentSchemaVersion+1, migErr.From)
}
