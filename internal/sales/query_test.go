package sales

import (
	"context"
	"testing"
	"time"

	"pos-backoffice/internal/database/dbtest"
	"pos-backoffice/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	now := time.Date(2026, 5, 10, 1, 30, 0, 0, time.UTC) // 9 May 22:30 local

	f, err := ParseFilter("today", "", "", now, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 9, 0, 0, 0, 0, loc), *f.Start)
	assert.Equal(t, time.Date(2026, 5, 10, 0, 0, 0, 0, loc), *f.End)

	f, err = ParseFilter("", "2026-05-01", "2026-05-03", now, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, loc), *f.Start)
	assert.Equal(t, time.Date(2026, 5, 4, 0, 0, 0, 0, loc), *f.End)

	f, err = ParseFilter("", "", "", now, loc)
	require.NoError(t, err)
	assert.Nil(t, f.Start)
	assert.Nil(t, f.End)

	f, err = ParseFilter("", "2026-05-03", "2026-05-03", now, loc)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, f.End.Sub(*f.Start))

	for _, bad := range [][3]string{
		{"week", "", ""},
		{"", "05/01/2026", ""},
		{"", "", "yesterday"},
		{"", "2026-05-04", "2026-05-03"},
	} {
		_, err := ParseFilter(bad[0], bad[1], bad[2], now, loc)
		var valErr *ValidationError
		assert.ErrorAs(t, err, &valErr, "%v", bad)
	}
}

func TestListAndGetSales(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := dbtest.SeedProduct(t, f.db, models.Product{Name: "P", Price: 2, Stock: 20})

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for day := 0; day < 3; day++ {
		at := base.AddDate(0, 0, day)
		f.svc.now = func() time.Time { return at }
		sale, err := f.svc.CommitSale(ctx, CommitRequest{
			Items:         []CommitItem{line(p, day+1)},
			PaymentMethod: models.PaymentCash,
			CashierID:     "c",
		})
		require.NoError(t, err)
		ids = append(ids, sale.ID)
	}

	all, err := f.svc.ListSales(ctx, SalesFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)
	for _, s := range all {
		assert.Len(t, s.Items, 1)
	}

	start := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	one, err := f.svc.ListSales(ctx, SalesFilter{Start: &start, End: &end})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, ids[1], one[0].ID)
	assert.Equal(t, 2, one[0].Items[0].Quantity)

	sum, err := f.svc.Summarize(ctx, SalesFilter{Start: &start})
	require.NoError(t, err)
	assert.EqualValues(t, 2, sum.TotalCount)
	assert.Equal(t, 4.0+6.0, sum.TotalRevenue)

	got, err := f.svc.GetSale(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, ids[0], got.ID)
	require.Len(t, got.Items, 1)

	_, err = f.svc.GetSale(ctx, "missing")
	assert.ErrorIs(t, err, ErrSaleNotFound)
}

func TestListSalesEmpty(t *testing.T) {
	f := newFixture(t, nil)
	list, err := f.svc.ListSales(context.Background(), SalesFilter{})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestSaleReadIgnoresLaterCatalogEdits(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := dbtest.SeedProduct(t, f.db, models.Product{Name: "Old name", Price: 5, Cost: 3, Stock: 9})

	committed, err := f.svc.CommitSale(ctx, CommitRequest{
		Items:         []CommitItem{line(p, 2)},
		PaymentMethod: models.PaymentCard,
		CashierID:     "c",
	})
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", p.ID).
		Updates(map[string]any{"name": "New name", "price": 50, "cost": 30}).Error)

	again, err := f.svc.GetSale(ctx, committed.ID)
	require.NoError(t, err)
	assert.Equal(t, committed.Items, again.Items)
	assert.Equal(t, "Old name", again.Items[0].ProductName)
	assert.Equal(t, 5.0, again.Items[0].UnitPrice)
}

func TestSaleItemCategoryNullWhenProductGone(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	cat := dbtest.SeedCategory(t, f.db, "Snacks")
	p := dbtest.SeedProduct(t, f.db, models.Product{Name: "Chips", Price: 1, Stock: 3, CategoryID: &cat.ID})

	sale, err := f.svc.CommitSale(ctx, CommitRequest{
		Items:         []CommitItem{line(p, 1)},
		PaymentMethod: models.PaymentCash,
		CashierID:     "c",
	})
	require.NoError(t, err)
	require.NotNil(t, sale.Items[0].Category)

	require.NoError(t, f.db.Delete(&models.Product{}, p.ID).Error)

	got, err := f.svc.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Items[0].Category)
	assert.Equal(t, "Chips", got.Items[0].ProductName)
}
