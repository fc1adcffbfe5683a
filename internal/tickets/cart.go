package tickets

import (
	"context"
	"fmt"

	"pos-backoffice/internal/models"
	"pos-backoffice/internal/pricing"
)

// AddItem snapshots the product from the catalog into the cart. Adding a product
// that is already in the cart bumps that line's quantity instead.
func (s *Store) AddItem(ctx context.Context, id string, version int, productID uint, quantity int) (models.Ticket, error) {
	product, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return models.Ticket{}, err
	}
	return s.applyCart(ctx, id, version, func(items []models.TicketItem) ([]models.TicketItem, error) {
		if i := indexOf(items, productID); i >= 0 {
			line, err := pricing.SetQuantity(items[i], items[i].Quantity+quantity)
			if err != nil {
				return nil, err
			}
			items[i] = line
			return items, nil
		}
		line, err := pricing.NewItem(product, quantity)
		if err != nil {
			return nil, err
		}
		return append(items, line), nil
	})
}

func (s *Store) SetQuantity(ctx context.Context, id string, version int, productID uint, quantity int) (models.Ticket, error) {
	return s.UpdateItem(ctx, id, version, productID, &quantity, nil)
}

func (s *Store) SetDiscount(ctx context.Context, id string, version int, productID uint, pct float64) (models.Ticket, error) {
	return s.UpdateItem(ctx, id, version, productID, nil, &pct)
}

// UpdateItem sets quantity, discount or both on one line as a single versioned
// write. Nothing is stored unless every requested change is valid.
func (s *Store) UpdateItem(ctx context.Context, id string, version int, productID uint, quantity *int, pct *float64) (models.Ticket, error) {
	return s.applyCart(ctx, id, version, func(items []models.TicketItem) ([]models.TicketItem, error) {
		i := indexOf(items, productID)
		if i < 0 {
			return nil, fmt.Errorf("%w: product %d", ErrItemNotInCart, productID)
		}
		line := items[i]
		var err error
		if quantity != nil {
			if line, err = pricing.SetQuantity(line, *quantity); err != nil {
				return nil, err
			}
		}
		if pct != nil {
			if line, err = pricing.SetDiscount(line, *pct); err != nil {
				return nil, err
			}
		}
		items[i] = line
		return items, nil
	})
}

func (s *Store) RemoveItem(ctx context.Context, id string, version int, productID uint) (models.Ticket, error) {
	return s.applyCart(ctx, id, version, func(items []models.TicketItem) ([]models.TicketItem, error) {
		i := indexOf(items, productID)
		if i < 0 {
			return nil, fmt.Errorf("%w: product %d", ErrItemNotInCart, productID)
		}
		return append(items[:i], items[i+1:]...), nil
	})
}

func (s *Store) applyCart(ctx context.Context, id string, version int, edit func([]models.TicketItem) ([]models.TicketItem, error)) (models.Ticket, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return models.Ticket{}, err
	}
	if current.Version != version {
		return models.Ticket{}, fmt.Errorf("%w: ticket %s is at version %d, got %d", ErrVersionConflict, id, current.Version, version)
	}

	items := make([]models.TicketItem, len(current.CartItems))
	copy(items, current.CartItems)
	items, err = edit(items)
	if err != nil {
		return models.Ticket{}, err
	}

	next := current
	next.CartItems = items
	return s.save(ctx, version, next)
}

func indexOf(items []models.TicketItem, productID uint) int {
	for i, it := range items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}
