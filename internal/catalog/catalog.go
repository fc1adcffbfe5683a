// Package catalog is the read side of the product catalog used by the sale core.
// Product and category CRUD live elsewhere.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"pos-backoffice/internal/models"

	"gorm.io/gorm"
)

var ErrProductNotFound = errors.New("product not found")

// Catalog looks products up by id.
type Catalog interface {
	Product(ctx context.Context, id uint) (models.Product, error)
}

type GormCatalog struct {
	db *gorm.DB
}

func New(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

func (c *GormCatalog) Product(ctx context.Context, id uint) (models.Product, error) {
	var p models.Product
	err := c.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p, fmt.Errorf("%w: id %d", ErrProductNotFound, id)
	}
	if err != nil {
		return p, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

// List returns the whole catalog ordered by name.
func (c *GormCatalog) List(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	if err := c.db.WithContext(ctx).Order("name").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}
