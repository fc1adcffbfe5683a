package inventory

import (
	"context"
	"fmt"
	"time"

	"pos-backoffice/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entry is one stock-affecting event to record.
type Entry struct {
	ProductID         uint
	ProductName       string
	Type              models.TransactionType
	QuantityChange    int
	StockBefore       int
	StockAfter        int
	RelatedDocumentID string
	Notes             string
}

// Ledger is the write-once audit trail of stock changes. There is deliberately
// no update or delete.
type Ledger struct {
	db  *gorm.DB
	now func() time.Time
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// Append inserts a row using tx, which must be the transaction that changed the stock.
func (l *Ledger) Append(tx *gorm.DB, e Entry) (models.InventoryTransaction, error) {
	if e.StockAfter-e.StockBefore != e.QuantityChange {
		return models.InventoryTransaction{}, fmt.Errorf(
			"ledger entry for product %d does not balance: %d -> %d with change %d",
			e.ProductID, e.StockBefore, e.StockAfter, e.QuantityChange)
	}

	row := models.InventoryTransaction{
		ID:                uuid.NewString(),
		ProductID:         e.ProductID,
		ProductName:       e.ProductName,
		TransactionType:   e.Type,
		QuantityChange:    e.QuantityChange,
		StockBefore:       e.StockBefore,
		StockAfter:        e.StockAfter,
		RelatedDocumentID: e.RelatedDocumentID,
		Notes:             e.Notes,
		TransactionDate:   l.now().UTC(),
	}
	if err := tx.Create(&row).Error; err != nil {
		return models.InventoryTransaction{}, fmt.Errorf("append ledger row for product %d: %w", e.ProductID, err)
	}
	return row, nil
}

type LedgerFilter struct {
	ProductID         uint
	RelatedDocumentID string
	Limit             int
}

// List reads ledger rows, newest first.
func (l *Ledger) List(ctx context.Context, f LedgerFilter) ([]models.InventoryTransaction, error) {
	q := l.db.WithContext(ctx).Model(&models.InventoryTransaction{})
	if f.ProductID != 0 {
		q = q.Where("product_id = ?", f.ProductID)
	}
	if f.RelatedDocumentID != "" {
		q = q.Where("related_document_id = ?", f.RelatedDocumentID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	rows := []models.InventoryTransaction{}
	if err := q.Order("transaction_date DESC").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list inventory transactions: %w", err)
	}
	return rows, nil
}
