package inventory

import (
	"context"
	"testing"

	"pos-backoffice/internal/database/dbtest"
	"pos-backoffice/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestReserveAndDecrement(t *testing.T) {
	db := dbtest.New(t)
	p := dbtest.SeedProduct(t, db, models.Product{Name: "Milk", Price: 1.5, Stock: 10})
	guard := NewStockGuard()

	var change StockChange
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		change, err = guard.ReserveAndDecrement(tx, p.ID, 4)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, StockChange{ProductName: "Milk", StockBefore: 10, StockAfter: 6}, change)
	assert.Equal(t, 6, dbtest.Stock(t, db, p.ID))
}

func TestReserveAndDecrementInsufficient(t *testing.T) {
	db := dbtest.New(t)
	p := dbtest.SeedProduct(t, db, models.Product{Name: "Eggs", Stock: 2})

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := NewStockGuard().ReserveAndDecrement(tx, p.ID, 3)
		return err
	})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, p.ID, stockErr.ProductID)
	assert.Equal(t, "Eggs", stockErr.ProductName)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 2, dbtest.Stock(t, db, p.ID))
}

func TestReserveAndDecrementExactStock(t *testing.T) {
	db := dbtest.New(t)
	p := dbtest.SeedProduct(t, db, models.Product{Name: "Salt", Stock: 3})

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := NewStockGuard().ReserveAndDecrement(tx, p.ID, 3)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 0, dbtest.Stock(t, db, p.ID))
}

func TestReserveAndDecrementUnknownProduct(t *testing.T) {
	db := dbtest.New(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := NewStockGuard().ReserveAndDecrement(tx, 999, 1)
		return err
	})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestReserveAndDecrementRejectsNonPositive(t *testing.T) {
	db := dbtest.New(t)
	p := dbtest.SeedProduct(t, db, models.Product{Name: "Rice", Stock: 3})

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := NewStockGuard().ReserveAndDecrement(tx, p.ID, 0)
		return err
	})
	assert.Error(t, err)
	assert.Equal(t, 3, dbtest.Stock(t, db, p.ID))
}

func TestLedgerAppendAndList(t *testing.T) {
	db := dbtest.New(t)
	p := dbtest.SeedProduct(t, db, models.Product{Name: "Soap", Stock: 5})
	other := dbtest.SeedProduct(t, db, models.Product{Name: "Rag", Stock: 5})
	ledger := NewLedger(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := ledger.Append(tx, Entry{
			ProductID: p.ID, ProductName: "Soap", Type: models.TransactionSale,
			QuantityChange: -2, StockBefore: 5, StockAfter: 3,
			RelatedDocumentID: "sale-1", Notes: "Sale sale-1",
		}); err != nil {
			return err
		}
		_, err := ledger.Append(tx, Entry{
			ProductID: other.ID, ProductName: "Rag", Type: models.TransactionSale,
			QuantityChange: -1, StockBefore: 5, StockAfter: 4,
			RelatedDocumentID: "sale-2",
		})
		return err
	})
	require.NoError(t, err)

	rows, err := ledger.List(context.Background(), LedgerFilter{RelatedDocumentID: "sale-1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, p.ID, rows[0].ProductID)
	assert.Equal(t, models.TransactionSale, rows[0].TransactionType)
	assert.Equal(t, -2, rows[0].QuantityChange)
	assert.Equal(t, 5, rows[0].StockBefore)
	assert.Equal(t, 3, rows[0].StockAfter)
	assert.NotEmpty(t, rows[0].ID)

	rows, err = ledger.List(context.Background(), LedgerFilter{ProductID: other.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "sale-2", rows[0].RelatedDocumentID)

	rows, err = ledger.List(context.Background(), LedgerFilter{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestLedgerAppendRejectsUnbalancedEntry(t *testing.T) {
	db := dbtest.New(t)
	p := dbtest.SeedProduct(t, db, models.Product{Name: "Soap", Stock: 5})

	_, err := NewLedger(db).Append(db, Entry{
		ProductID: p.ID, Type: models.TransactionSale,
		QuantityChange: -2, StockBefore: 5, StockAfter: 4,
	})
	assert.Error(t, err)
	assert.Zero(t, dbtest.Count(t, db, &models.InventoryTransaction{}, ""))
}

func TestLedgerRollsBackWithTransaction(t *testing.T) {
	db := dbtest.New(t)
	p := dbtest.SeedProduct(t, db, models.Product{Name: "Soap", Stock: 5})
	ledger := NewLedger(db)

	_ = db.Transaction(func(tx *gorm.DB) error {
		change, err := NewStockGuard().ReserveAndDecrement(tx, p.ID, 1)
		require.NoError(t, err)
		_, err = ledger.Append(tx, Entry{
			ProductID: p.ID, Type: models.TransactionSale, QuantityChange: -1,
			StockBefore: change.StockBefore, StockAfter: change.StockAfter,
		})
		require.NoError(t, err)
		return assert.AnError
	})

	assert.Equal(t, 5, dbtest.Stock(t, db, p.ID))
	assert.Zero(t, dbtest.Count(t, db, &models.InventoryTransaction{}, ""))
}
