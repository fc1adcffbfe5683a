// Package tickets keeps the draft carts a cashier works on before payment.
package tickets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pos-backoffice/internal/catalog"
	"pos-backoffice/internal/models"
	"pos-backoffice/internal/pricing"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultName = "New Ticket"

var (
	ErrNotFound        = errors.New("ticket not found")
	ErrVersionConflict = errors.New("ticket was modified by someone else")
	ErrInvalidStatus   = errors.New("invalid ticket status")
	ErrItemNotInCart   = errors.New("product is not in the cart")
)

// TicketUpdate is a partial update. Nil fields are left alone; CartItems replaces
// the whole cart when set.
type TicketUpdate struct {
	Name      *string
	CartItems *[]models.TicketItem
	Status    *models.TicketStatus
	Version   *int
}

type Store struct {
	db      *gorm.DB
	catalog catalog.Catalog
	now     func() time.Time
}

func NewStore(db *gorm.DB, cat catalog.Catalog) *Store {
	return &Store{db: db, catalog: cat, now: time.Now}
}

func (s *Store) Create(ctx context.Context, name string, status models.TicketStatus, items []models.TicketItem) (models.Ticket, error) {
	if status == "" {
		status = models.TicketActive
	}
	if !status.Valid() {
		return models.Ticket{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if name == "" {
		name = DefaultName
	}
	normalized, err := normalizeAll(items)
	if err != nil {
		return models.Ticket{}, err
	}

	now := s.now().UTC()
	t := models.Ticket{
		ID:            uuid.NewString(),
		Name:          name,
		Status:        status,
		CartItems:     normalized,
		Version:       1,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
		return models.Ticket{}, fmt.Errorf("create ticket: %w", err)
	}
	return t, nil
}

func (s *Store) Get(ctx context.Context, id string) (models.Ticket, error) {
	var t models.Ticket
	err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return t, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return t, fmt.Errorf("get ticket %s: %w", id, err)
	}
	if t.CartItems == nil {
		t.CartItems = []models.TicketItem{}
	}
	return t, nil
}

// List returns all tickets, most recently touched first.
func (s *Store) List(ctx context.Context) ([]models.Ticket, error) {
	list := []models.Ticket{}
	if err := s.db.WithContext(ctx).Order("last_updated_at DESC").Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	for i := range list {
		if list[i].CartItems == nil {
			list[i].CartItems = []models.TicketItem{}
		}
	}
	return list, nil
}

func (s *Store) Update(ctx context.Context, id string, u TicketUpdate) (models.Ticket, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return models.Ticket{}, err
	}
	if u.Version != nil && *u.Version != current.Version {
		return models.Ticket{}, fmt.Errorf("%w: ticket %s is at version %d, got %d", ErrVersionConflict, id, current.Version, *u.Version)
	}

	next := current
	if u.Name != nil {
		next.Name = *u.Name
	}
	if u.Status != nil {
		if !u.Status.Valid() {
			return models.Ticket{}, fmt.Errorf("%w: %q", ErrInvalidStatus, *u.Status)
		}
		next.Status = *u.Status
	}
	if u.CartItems != nil {
		items, err := normalizeAll(*u.CartItems)
		if err != nil {
			return models.Ticket{}, err
		}
		next.CartItems = items
	}
	return s.save(ctx, current.Version, next)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Ticket{})
	if res.Error != nil {
		return fmt.Errorf("delete ticket %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Discard deletes a ticket inside tx. A ticket that is already gone is not an error.
// A positive version must still match, otherwise the cart changed after it was read
// and ErrVersionConflict rolls tx back.
func (s *Store) Discard(tx *gorm.DB, id string, version int) error {
	q := tx.Where("id = ?", id)
	if version > 0 {
		q = q.Where("version = ?", version)
	}
	res := q.Delete(&models.Ticket{})
	if res.Error != nil {
		return fmt.Errorf("discard ticket %s: %w", id, res.Error)
	}
	if res.RowsAffected > 0 || version <= 0 {
		return nil
	}

	var current models.Ticket
	err := tx.Select("version").Where("id = ?", id).Take(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("discard ticket %s: %w", id, err)
	}
	return fmt.Errorf("%w: ticket %s is at version %d, checkout read %d", ErrVersionConflict, id, current.Version, version)
}

// EnsureActive makes sure the cashier always has a ticket to work on.
func (s *Store) EnsureActive(ctx context.Context) (*models.Ticket, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Ticket{}).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("count tickets: %w", err)
	}
	if n > 0 {
		return nil, nil
	}
	t, err := s.Create(ctx, DefaultName, models.TicketActive, nil)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// save writes next only if the row is still at version. Zero rows affected means
// either someone else won the race or the ticket was deleted meanwhile.
func (s *Store) save(ctx context.Context, version int, next models.Ticket) (models.Ticket, error) {
	next.Version = version + 1
	next.LastUpdatedAt = s.now().UTC()
	if next.CartItems == nil {
		next.CartItems = []models.TicketItem{}
	}

	res := s.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("id = ? AND version = ?", next.ID, version).
		Select("Name", "Status", "CartItems", "Version", "LastUpdatedAt").
		Updates(&next)
	if res.Error != nil {
		return models.Ticket{}, fmt.Errorf("update ticket %s: %w", next.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.Get(ctx, next.ID); err != nil {
			return models.Ticket{}, err
		}
		return models.Ticket{}, fmt.Errorf("%w: ticket %s moved past version %d", ErrVersionConflict, next.ID, version)
	}
	return next, nil
}

func normalizeAll(items []models.TicketItem) ([]models.TicketItem, error) {
	out := make([]models.TicketItem, 0, len(items))
	for i, it := range items {
		n, err := pricing.Normalize(it)
		if err != nil {
			return nil, fmt.Errorf("cart item %d (product %d): %w", i, it.ProductID, err)
		}
		out = append(out, n)
	}
	return out, nil
}
