// Package pricing derives cart line prices. It does no I/O.
package pricing

import (
	"errors"
	"fmt"

	"pos-backoffice/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrDiscountOutOfRange = errors.New("discount must be between 0 and 100")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrNegativePrice      = errors.New("price must not be negative")
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds half away from zero to two decimals.
func Round2(x float64) float64 {
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}

// NewItem snapshots the product's current price and cost into a cart line.
// The snapshot is never refreshed from the catalog afterwards.
func NewItem(p models.Product, quantity int) (models.TicketItem, error) {
	if quantity < 1 {
		return models.TicketItem{}, ErrInvalidQuantity
	}
	if p.Price < 0 || p.Cost < 0 {
		return models.TicketItem{}, ErrNegativePrice
	}
	return Recompute(models.TicketItem{
		ProductID:         p.ID,
		ProductName:       p.Name,
		Quantity:          quantity,
		OriginalUnitPrice: p.Price,
		CostPrice:         p.Cost,
	}), nil
}

// SetQuantity returns item with a new quantity and re-derived prices.
func SetQuantity(item models.TicketItem, quantity int) (models.TicketItem, error) {
	if quantity < 1 {
		return item, ErrInvalidQuantity
	}
	item.Quantity = quantity
	return Recompute(item), nil
}

// SetDiscount returns item with a new discount. Out of range input leaves
// the previous discount in place.
func SetDiscount(item models.TicketItem, pct float64) (models.TicketItem, error) {
	if pct < 0 || pct > 100 {
		return item, fmt.Errorf("%w: got %v", ErrDiscountOutOfRange, pct)
	}
	item.DiscountPercentage = pct
	return Recompute(item), nil
}

// Recompute derives UnitPrice and TotalPrice from the authoritative fields.
func Recompute(item models.TicketItem) models.TicketItem {
	original := decimal.NewFromFloat(item.OriginalUnitPrice)
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(item.DiscountPercentage).Div(hundred))

	unit := original.Mul(factor).Round(2)
	total := unit.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)

	item.UnitPrice = unit.InexactFloat64()
	item.TotalPrice = total.InexactFloat64()
	return item
}

// Normalize validates a client supplied line and re-derives its prices,
// discarding whatever unitPrice/totalPrice the client sent.
func Normalize(item models.TicketItem) (models.TicketItem, error) {
	if item.Quantity < 1 {
		return item, ErrInvalidQuantity
	}
	if item.DiscountPercentage < 0 || item.DiscountPercentage > 100 {
		return item, fmt.Errorf("%w: got %v", ErrDiscountOutOfRange, item.DiscountPercentage)
	}
	if item.OriginalUnitPrice < 0 || item.CostPrice < 0 {
		return item, ErrNegativePrice
	}
	return Recompute(item), nil
}

// CartTotal sums line totals.
func CartTotal(items []models.TicketItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(it.TotalPrice))
	}
	return sum.Round(2).InexactFloat64()
}
