package inventory

import (
	"errors"
	"fmt"

	"pos-backoffice/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrProductNotFound = errors.New("product not found")

// InsufficientStockError carries what the cashier needs to react: which product,
// what was on hand when the row was locked, and what was asked for.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (product %d): available %d, requested %d",
		e.ProductName, e.ProductID, e.Available, e.Requested)
}

// StockChange is the before/after view of one decrement.
type StockChange struct {
	ProductName string
	StockBefore int
	StockAfter  int
}

// StockGuard serializes stock decrements on a product row.
type StockGuard struct{}

func NewStockGuard() *StockGuard {
	return &StockGuard{}
}

// ReserveAndDecrement must run inside the caller's transaction. The row lock it
// takes is held until that transaction commits or rolls back, so a concurrent
// caller on the same product sees the decremented value once it gets the lock.
func (g *StockGuard) ReserveAndDecrement(tx *gorm.DB, productID uint, quantity int) (StockChange, error) {
	if quantity < 1 {
		return StockChange{}, fmt.Errorf("decrement product %d: quantity %d must be positive", productID, quantity)
	}

	// 1. Lock the row
	var product models.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return StockChange{}, fmt.Errorf("%w: id %d", ErrProductNotFound, productID)
	}
	if err != nil {
		return StockChange{}, fmt.Errorf("lock product %d: %w", productID, err)
	}

	// 2. Check stock, no mutation on failure
	if product.Stock < quantity {
		return StockChange{}, &InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   product.Stock,
			Requested:   quantity,
		}
	}

	// 3. Deduct
	after := product.Stock - quantity
	res := tx.Model(&models.Product{}).Where("id = ?", product.ID).Update("stock", after)
	if res.Error != nil {
		return StockChange{}, fmt.Errorf("update stock of product %d: %w", productID, res.Error)
	}
	if res.RowsAffected != 1 {
		return StockChange{}, fmt.Errorf("%w: id %d", ErrProductNotFound, productID)
	}

	return StockChange{ProductName: product.Name, StockBefore: product.Stock, StockAfter: after}, nil
}
