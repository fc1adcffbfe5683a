package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pos-backoffice/internal/models"

	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// SalesFilter bounds sale dates to [Start, End). Nil means unbounded.
type SalesFilter struct {
	Start *time.Time
	End   *time.Time
}

// ParseFilter reads the query parameters of GET /sales. period=today wins over
// explicit dates; startDate and endDate are whole days in loc, both inclusive.
func ParseFilter(period, startDate, endDate string, now time.Time, loc *time.Location) (SalesFilter, error) {
	var f SalesFilter
	switch period {
	case "":
	case "today":
		local := now.In(loc)
		start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		end := start.AddDate(0, 0, 1)
		f.Start, f.End = &start, &end
		return f, nil
	default:
		return f, invalid("period", "unsupported value %q", period)
	}

	if startDate != "" {
		start, err := time.ParseInLocation(dateLayout, startDate, loc)
		if err != nil {
			return f, invalid("startDate", "expected YYYY-MM-DD, got %q", startDate)
		}
		f.Start = &start
	}
	if endDate != "" {
		end, err := time.ParseInLocation(dateLayout, endDate, loc)
		if err != nil {
			return f, invalid("endDate", "expected YYYY-MM-DD, got %q", endDate)
		}
		end = end.AddDate(0, 0, 1)
		f.End = &end
	}
	if f.Start != nil && f.End != nil && !f.Start.Before(*f.End) {
		return f, invalid("endDate", "must not be before startDate")
	}
	return f, nil
}

func (f SalesFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Start != nil {
		q = q.Where("sales.date >= ?", f.Start.UTC())
	}
	if f.End != nil {
		q = q.Where("sales.date < ?", f.End.UTC())
	}
	return q
}

// ListSales returns sales newest first, each with its lines.
func (s *Service) ListSales(ctx context.Context, f SalesFilter) ([]models.Sale, error) {
	list := []models.Sale{}
	if err := f.apply(s.db.WithContext(ctx).Model(&models.Sale{})).Order("sales.date DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := make([]string, 0, len(list))
	for _, sale := range list {
		ids = append(ids, sale.ID)
	}
	byID, err := loadItems(s.db.WithContext(ctx), ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Items = byID[list[i].ID]
	}
	return list, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (models.Sale, error) {
	var sale models.Sale
	err := s.db.WithContext(ctx).First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sale, fmt.Errorf("%w: %s", ErrSaleNotFound, id)
	}
	if err != nil {
		return sale, fmt.Errorf("get sale %s: %w", id, err)
	}

	byID, err := loadItems(s.db.WithContext(ctx), []string{id})
	if err != nil {
		return sale, err
	}
	sale.Items = byID[id]
	return sale, nil
}

// Summary holds revenue and count over a period.
type Summary struct {
	TotalRevenue float64 `json:"totalRevenue"`
	TotalCount   int64   `json:"totalCount"`
}

func (s *Service) Summarize(ctx context.Context, f SalesFilter) (Summary, error) {
	var sum Summary

	// COALESCE gives 0 instead of NULL on an empty period
	if err := f.apply(s.db.WithContext(ctx).Model(&models.Sale{})).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&sum.TotalRevenue).Error; err != nil {
		return sum, fmt.Errorf("sum sales: %w", err)
	}
	if err := f.apply(s.db.WithContext(ctx).Model(&models.Sale{})).Count(&sum.TotalCount).Error; err != nil {
		return sum, fmt.Errorf("count sales: %w", err)
	}
	return sum, nil
}

// loadItems reads the lines of the given sales with the product's current category.
// A product or category deleted since the sale leaves category null.
func loadItems(db *gorm.DB, saleIDs []string) (map[string][]models.SaleItem, error) {
	var rows []models.SaleItem
	err := db.Table("sale_items").
		Select("sale_items.*, categories.name AS category").
		Joins("LEFT JOIN products ON products.id = sale_items.product_id").
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Where("sale_items.sale_id IN ?", saleIDs).
		Order("sale_items.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load sale items: %w", err)
	}

	byID := make(map[string][]models.SaleItem, len(saleIDs))
	for _, id := range saleIDs {
		byID[id] = []models.SaleItem{}
	}
	for _, r := range rows {
		byID[r.SaleID] = append(byID[r.SaleID], r)
	}
	return byID, nil
}
