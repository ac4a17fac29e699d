package reports

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mensahub/canteen-backend/internal/orders"
	"github.com/mensahub/canteen-backend/pkg/db/models"
	"github.com/mensahub/canteen-backend/pkg/enums"
	pkgerrors "github.com/mensahub/canteen-backend/pkg/errors"
	"github.com/mensahub/canteen-backend/pkg/redis"
)

type stubReportRepo struct {
	calls  int
	orders []models.Order
	err    error
}

func (s *stubReportRepo) FindOrdersInRange(ctx context.Context, scope Scope, rng DateRange, filters Filters) ([]models.Order, error) {
	s.calls++
	return s.orders, s.err
}

type memoryCache struct {
	values map[string]string
	sets   int
}

func (m *memoryCache) Get(ctx context.Context, key string) (string, error) {
	if value, ok := m.values[key]; ok {
		return value, nil
	}
	return "", redis.Nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value.(string)
	m.sets++
	return nil
}

func (m *memoryCache) ReportKey(fingerprint string) string {
	return "mh:report:" + fingerprint
}

func adminActor() orders.Actor {
	return orders.Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin}
}

func testRange() DateRange {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return DateRange{Start: start, End: start.AddDate(0, 1, 0)}
}

func paidOrder(vendorID uuid.UUID, totalCents int64, lines ...models.OrderLine) models.Order {
	return models.Order{
		ID:            uuid.New(),
		CustomerID:    uuid.New(),
		VendorID:      vendorID,
		TotalCents:    totalCents,
		Status:        enums.OrderStatusCompleted,
		PaymentStatus: enums.PaymentStatusPaid,
		Lines:         lines,
	}
}

func newReportService(t *testing.T, repo Repository, cache Cache, ttl time.Duration) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo, Cache: cache, CacheTTL: ttl})
	require.NoError(t, err)
	return svc
}

func TestRevenueExcludesUnpaidCompletedOrders(t *testing.T) {
	vendorID := uuid.New()
	repo := &stubReportRepo{orders: []models.Order{
		{
			ID:            uuid.New(),
			VendorID:      vendorID,
			TotalCents:    10000,
			Status:        enums.OrderStatusCompleted,
			PaymentStatus: enums.PaymentStatusUnpaid,
		},
		paidOrder(vendorID, 20000),
	}}
	svc := newReportService(t, repo, nil, 0)

	report, err := svc.GetRevenueReport(context.Background(), adminActor(), Scope{VendorID: &vendorID}, testRange(), Filters{})
	require.NoError(t, err)
	assert.Equal(t, int64(20000), report.TotalRevenueCents)
	assert.Equal(t, 2, report.OrderCount)
	assert.Equal(t, 1, report.PaidOrderCount)
	assert.Equal(t, int64(20000), report.AverageOrderValueCents)
}

func TestAverageOrderValueZeroWithoutPaidOrders(t *testing.T) {
	repo := &stubReportRepo{orders: []models.Order{{
		ID:            uuid.New(),
		VendorID:      uuid.New(),
		TotalCents:    5000,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusUnpaid,
	}}}
	svc := newReportService(t, repo, nil, 0)

	report, err := svc.GetRevenueReport(context.Background(), adminActor(), Scope{}, testRange(), Filters{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), report.TotalRevenueCents)
	assert.Equal(t, int64(0), report.AverageOrderValueCents)
}

func TestCategoryBreakdownSplitsByLineContribution(t *testing.T) {
	vendorID := uuid.New()
	repo := &stubReportRepo{orders: []models.Order{
		paidOrder(vendorID, 10000,
			models.OrderLine{Category: enums.MenuCategoryMainDish, UnitPriceCents: 6000, Qty: 1, TotalCents: 6000},
			models.OrderLine{Category: enums.MenuCategoryBeverage, UnitPriceCents: 2000, Qty: 2, TotalCents: 4000},
		),
	}}
	svc := newReportService(t, repo, nil, 0)

	report, err := svc.GetRevenueReport(context.Background(), adminActor(), Scope{VendorID: &vendorID}, testRange(), Filters{})
	require.NoError(t, err)
	require.Len(t, report.CategoryBreakdown, 2)

	var categorySum int64
	for _, bucket := range report.CategoryBreakdown {
		categorySum += bucket.RevenueCents
	}
	assert.Equal(t, report.TotalRevenueCents, categorySum, "split, never duplicated per category")
	assert.Equal(t, enums.MenuCategoryMainDish, report.CategoryBreakdown[0].Category)
	assert.Equal(t, int64(6000), report.CategoryBreakdown[0].RevenueCents)
	assert.Equal(t, enums.MenuCategoryBeverage, report.CategoryBreakdown[1].Category)
	assert.Equal(t, int64(4000), report.CategoryBreakdown[1].RevenueCents)
}

func TestCategoryFilterNarrowsRevenueToMatchingLines(t *testing.T) {
	vendorID := uuid.New()
	category := enums.MenuCategorySnack
	repo := &stubReportRepo{orders: []models.Order{
		paidOrder(vendorID, 5000,
			models.OrderLine{Category: enums.MenuCategorySnack, UnitPriceCents: 1500, Qty: 2, TotalCents: 3000},
			models.OrderLine{Category: enums.MenuCategoryDessert, UnitPriceCents: 2000, Qty: 1, TotalCents: 2000},
		),
		paidOrder(vendorID, 4000,
			models.OrderLine{Category: enums.MenuCategoryMainDish, UnitPriceCents: 4000, Qty: 1, TotalCents: 4000},
		),
	}}
	svc := newReportService(t, repo, nil, 0)

	report, err := svc.GetRevenueReport(context.Background(), adminActor(), Scope{VendorID: &vendorID}, testRange(), Filters{Category: &category})
	require.NoError(t, err)
	assert.Equal(t, int64(3000), report.TotalRevenueCents)
	assert.Equal(t, 1, report.OrderCount, "orders without a matching line drop out")
	require.Len(t, report.CategoryBreakdown, 1)
	assert.Equal(t, category, report.CategoryBreakdown[0].Category)
}

func TestReportIsDeterministic(t *testing.T) {
	vendorID := uuid.New()
	repo := &stubReportRepo{orders: []models.Order{
		paidOrder(vendorID, 7000,
			models.OrderLine{Category: enums.MenuCategoryMainDish, UnitPriceCents: 7000, Qty: 1, TotalCents: 7000},
		),
		{
			ID:            uuid.New(),
			VendorID:      vendorID,
			TotalCents:    1500,
			Status:        enums.OrderStatusCancelled,
			PaymentStatus: enums.PaymentStatusUnpaid,
			Lines: []models.OrderLine{
				{Category: enums.MenuCategorySnack, UnitPriceCents: 1500, Qty: 1, TotalCents: 1500},
			},
		},
	}}
	svc := newReportService(t, repo, nil, 0)

	first, err := svc.GetRevenueReport(context.Background(), adminActor(), Scope{VendorID: &vendorID}, testRange(), Filters{})
	require.NoError(t, err)
	second, err := svc.GetRevenueReport(context.Background(), adminActor(), Scope{VendorID: &vendorID}, testRange(), Filters{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestInvalidRangeRejected(t *testing.T) {
	svc := newReportService(t, &stubReportRepo{}, nil, 0)

	_, err := svc.GetRevenueReport(context.Background(), adminActor(), Scope{}, DateRange{}, Filters{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidRange))

	rng := testRange()
	rng.Start, rng.End = rng.End, rng.Start
	_, err = svc.GetRevenueReport(context.Background(), adminActor(), Scope{}, rng, Filters{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidRange))
}

func TestVendorScopeAuthorization(t *testing.T) {
	svc := newReportService(t, &stubReportRepo{}, nil, 0)
	ownVendor := uuid.New()
	otherVendor := uuid.New()
	actor := orders.Actor{UserID: uuid.New(), Role: enums.ActorRoleVendor, VendorID: &ownVendor}

	_, err := svc.GetRevenueReport(context.Background(), actor, Scope{VendorID: &ownVendor}, testRange(), Filters{})
	assert.NoError(t, err)

	_, err = svc.GetRevenueReport(context.Background(), actor, Scope{VendorID: &otherVendor}, testRange(), Filters{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.GetRevenueReport(context.Background(), actor, Scope{}, testRange(), Filters{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.GetRevenueReport(context.Background(), orders.Actor{UserID: uuid.New(), Role: enums.ActorRoleCustomer}, Scope{}, testRange(), Filters{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestReportCacheReadThrough(t *testing.T) {
	vendorID := uuid.New()
	repo := &stubReportRepo{orders: []models.Order{paidOrder(vendorID, 20000)}}
	cache := &memoryCache{}
	svc := newReportService(t, repo, cache, time.Minute)

	first, err := svc.GetRevenueReport(context.Background(), adminActor(), Scope{VendorID: &vendorID}, testRange(), Filters{})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, 1, cache.sets)

	second, err := svc.GetRevenueReport(context.Background(), adminActor(), Scope{VendorID: &vendorID}, testRange(), Filters{})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls, "second read served from cache")
	assert.Equal(t, first.TotalRevenueCents, second.TotalRevenueCents)
}

func TestReportCacheDisabledWithoutTTL(t *testing.T) {
	vendorID := uuid.New()
	repo := &stubReportRepo{orders: []models.Order{paidOrder(vendorID, 20000)}}
	cache := &memoryCache{}
	svc := newReportService(t, repo, cache, 0)

	_, err := svc.GetRevenueReport(context.Background(), adminActor(), Scope{VendorID: &vendorID}, testRange(), Filters{})
	require.NoError(t, err)
	_, err = svc.GetRevenueReport(context.Background(), adminActor(), Scope{VendorID: &vendorID}, testRange(), Filters{})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
	assert.Zero(t, cache.sets)
}
