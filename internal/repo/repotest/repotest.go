// Package repotest opens throwaway in-memory databases for package tests.
package repotest

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/craft_store/internal/models"
	"github.com/Skotchmaster/craft_store/internal/repo"
	"github.com/Skotchmaster/craft_store/pkg/db"
)

// NewDB returns a migrated SQLite database. A single connection keeps the
// in-memory database shared by every query in the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.OpenDialector(context.Background(), sqlite.Open(":memory:"), db.PoolOptions{
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(gdb))

	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

func NewRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	return repo.New(NewDB(t))
}

func SeedProduct(t *testing.T, r *repo.GormRepo, name string, stock int, price string) *models.Product {
	t.Helper()

	p := &models.Product{
		Name:          name,
		StockQuantity: stock,
		Price:         decimal.RequireFromString(price),
		Active:        true,
	}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}
