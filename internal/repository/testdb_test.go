package repository

import (
	"path/filepath"
	"testing"

	"kitchen-store/internal/config"
	"kitchen-store/internal/database"
	"kitchen-store/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// newTestDB opens a migrated sqlite database in a per-test temp directory.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "store.db"),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.RunMigrations(db.DB, db.DriverName(), zap.NewNop()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedCategory(t *testing.T, db *sqlx.DB, id string) {
	t.Helper()
	if err := NewCategoryRepository(db).Create(t.Context(), &domain.Category{ID: id, Name: id}); err != nil {
		t.Fatalf("failed to seed category %s: %v", id, err)
	}
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decimalNull(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(price(s))
}
