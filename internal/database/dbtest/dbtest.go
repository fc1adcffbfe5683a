// Package dbtest provides migrated in-memory SQLite databases for package tests.
package dbtest

import (
	"fmt"
	"testing"

	"pos-backoffice/internal/database"
	"pos-backoffice/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// New returns a fresh database with foreign keys on. It holds a single connection,
// so concurrent transactions queue behind each other the way row locks would make them.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := database.Open(sqlite.Open(dsn), zerolog.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// SeedProduct inserts a product and returns it with its generated id.
func SeedProduct(t testing.TB, db *gorm.DB, p models.Product) models.Product {
	t.Helper()
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

// SeedCategory inserts a category and returns it with its generated id.
func SeedCategory(t testing.TB, db *gorm.DB, name string) models.Category {
	t.Helper()
	c := models.Category{Name: name}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return c
}

// SeedCustomer inserts a customer and returns it with its generated id.
func SeedCustomer(t testing.TB, db *gorm.DB, name string) models.Customer {
	t.Helper()
	c := models.Customer{Name: name}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return c
}

// Stock reads the current stock of a product.
func Stock(t testing.TB, db *gorm.DB, productID uint) int {
	t.Helper()
	var p models.Product
	if err := db.First(&p, productID).Error; err != nil {
		t.Fatalf("read product %d: %v", productID, err)
	}
	return p.Stock
}

// Count returns the number of rows of model matching the optional condition.
func Count(t testing.TB, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
