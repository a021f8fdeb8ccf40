package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tillpos/internal/apperror"
)

// Schema version history:
//  1 — products, salesHistory, appState collections
//  2 — users collection
//  3 — users collection (re-asserted; v2 shipped without it on some installs)
//  4 — products gain taxRate, backfilled to 0.07
//  5 — branches, shifts, productStock; stock moves off Product onto
//      branch-scoped rows; users gain branchIds
const currentSchemaVersion = 5

// DefaultBranchID is the branch every pre-v5 record is attributed to.
const (
	DefaultBranchID   = "main-branch"
	DefaultBranchName = "Main Branch"

	defaultTaxRate = 0.07
)

// A migrationStep brings the store from version-1 to version. Steps are pure
// relative to the prior step's output and idempotent: creating a collection
// that already exists is a no-op, backfills skip documents already carrying
// the field.
type migrationStep struct {
	version int
	name    string
	apply   func(ctx context.Context, tx *Tx) error
}

var migrationSteps = []migrationStep{
	{1, "create base collections", func(ctx context.Context, tx *Tx) error {
		for _, col := range []Collection{Products, SalesHistory, AppState} {
			if err := tx.createCollection(ctx, col); err != nil {
				return err
			}
		}
		return nil
	}},
	{2, "create users collection", func(ctx context.Context, tx *Tx) error {
		return tx.createCollection(ctx, Users)
	}},
	{3, "ensure users collection", func(ctx context.Context, tx *Tx) error {
		return tx.createCollection(ctx, Users)
	}},
	{4, "backfill product tax rate", migrateTaxRate},
	{5, "branch-scoped stock", migrateBranchStock},
}

// migrate brings the stored schema version up to currentSchemaVersion. The
// whole chain runs in one transaction: either every step lands together with
// the new version number, or nothing does.
func migrate(ctx context.Context, db *sql.DB) error {
	var stored int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&stored); err != nil {
		return &apperror.MigrationError{From: stored, To: currentSchemaVersion, Err: err}
	}
	if stored == currentSchemaVersion {
		return nil
	}
	if stored > currentSchemaVersion {
		return &apperror.MigrationError{From: stored, To: currentSchemaVersion,
			Err: errors.New("store schema is newer than this binary")}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &apperror.MigrationError{From: stored, To: currentSchemaVersion, Err: err}
	}
	wrapped := &Tx{tx: tx}

	for _, step := range migrationSteps {
		if step.version <= stored {
			continue
		}
		if err := step.apply(ctx, wrapped); err != nil {
			tx.Rollback()
			return &apperror.MigrationError{From: stored, To: step.version,
				Err: fmt.Errorf("%s: %w", step.name, err)}
		}
	}

	// PRAGMA user_version does not accept bind parameters.
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		tx.Rollback()
		return &apperror.MigrationError{From: stored, To: currentSchemaVersion, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &apperror.MigrationError{From: stored, To: currentSchemaVersion, Err: err}
	}
	return nil
}

// migrateTaxRate (v3 → v4) gives every product missing a taxRate the default
// rate. Works on raw documents so unknown fields round-trip untouched.
func migrateTaxRate(ctx context.Context, tx *Tx) error {
	docs, err := ReadAll[map[string]any](ctx, tx, Products)
	if err != nil {
		return err
	}
	changed := false
	for _, doc := range docs {
		if _, ok := doc["taxRate"]; !ok {
			doc["taxRate"] = defaultTaxRate
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return ReplaceAll(ctx, tx, Products, docs)
}

// migrateBranchStock (v4 → v5) introduces branches, shifts, and branch-scoped
// stock rows. Every product still carrying the pre-v5 embedded stock field
// has that value moved into a productStock row keyed to the default branch;
// users without branch assignments get the default branch.
func migrateBranchStock(ctx context.Context, tx *Tx) error {
	for _, col := range []Collection{Branches, Shifts, ProductStock} {
		if err := tx.createCollection(ctx, col); err != nil {
			return err
		}
	}

	branches, err := ReadAll[map[string]any](ctx, tx, Branches)
	if err != nil {
		return err
	}
	if len(branches) == 0 {
		branches = []map[string]any{{"id": DefaultBranchID, "name": DefaultBranchName}}
		if err := ReplaceAll(ctx, tx, Branches, branches); err != nil {
			return err
		}
	}

	stockRows, err := ReadAll[map[string]any](ctx, tx, ProductStock)
	if err != nil {
		return err
	}
	existing := make(map[string]bool, len(stockRows))
	for _, row := range stockRows {
		if id, ok := row["id"].(string); ok {
			existing[id] = true
		}
	}

	products, err := ReadAll[map[string]any](ctx, tx, Products)
	if err != nil {
		return err
	}
	productsChanged := false
	stockChanged := false
	for _, doc := range products {
		stock, ok := doc["stock"].(float64)
		if !ok {
			continue
		}
		productID, _ := doc["id"].(string)
		rowID := productID + "-" + DefaultBranchID
		if !existing[rowID] {
			stockRows = append(stockRows, map[string]any{
				"id":        rowID,
				"productId": productID,
				"branchId":  DefaultBranchID,
				"stock":     int(stock),
			})
			existing[rowID] = true
			stockChanged = true
		}
		delete(doc, "stock")
		productsChanged = true
	}
	if productsChanged {
		if err := ReplaceAll(ctx, tx, Products, products); err != nil {
			return err
		}
	}
	if stockChanged {
		if err := ReplaceAll(ctx, tx, ProductStock, stockRows); err != nil {
			return err
		}
	}

	users, err := ReadAll[map[string]any](ctx, tx, Users)
	if err != nil {
		return err
	}
	usersChanged := false
	for _, doc := range users {
		if ids, ok := doc["branchIds"].([]any); ok && len(ids) > 0 {
			continue
		}
		doc["branchIds"] = []string{DefaultBranchID}
		usersChanged = true
	}
	if !usersChanged {
		return nil
	}
	return ReplaceAll(ctx, tx, Users, users)
}
