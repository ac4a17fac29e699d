package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mensahub/canteen-backend/pkg/db/models"
	"github.com/mensahub/canteen-backend/pkg/enums"
	"github.com/mensahub/canteen-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  vendor_id TEXT NOT NULL,
  total_cents INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'unpaid',
  created_at DATETIME,
  last_status_change_at DATETIME,
  updated_at DATETIME
);`
	orderLines := `
CREATE TABLE IF NOT EXISTS order_lines (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  menu_item_id TEXT NOT NULL,
  name_snapshot TEXT NOT NULL,
  category TEXT NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  qty INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderLines).Error)
	return db
}

func seedOrder(t *testing.T, repo Repository, customerID, vendorID uuid.UUID, createdAt time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		CustomerID:    customerID,
		VendorID:      vendorID,
		TotalCents:    10000,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusUnpaid,
		Lines: []models.OrderLine{{
			MenuItemID:     uuid.New(),
			NameSnapshot:   "Schnitzel",
			Category:       enums.MenuCategoryMainDish,
			UnitPriceCents: 5000,
			Qty:            2,
			TotalCents:     10000,
		}},
		CreatedAt:          createdAt,
		LastStatusChangeAt: createdAt,
	}
	created, err := repo.Create(context.Background(), order)
	require.NoError(t, err)
	return created
}

func TestRepositoryCreateAndFindRoundTrip(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	created := seedOrder(t, repo, uuid.New(), uuid.New(), time.Now().UTC())

	found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, int64(10000), found.TotalCents)
	require.Len(t, found.Lines, 1)
	assert.Equal(t, "Schnitzel", found.Lines[0].NameSnapshot)
	assert.Equal(t, found.TotalCents, found.LinesTotalCents())
}

func TestRepositoryUpdateGuardedMatchesPrecondition(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	created := seedOrder(t, repo, uuid.New(), uuid.New(), time.Now().UTC())

	rows, err := repo.UpdateGuarded(context.Background(), created.ID,
		GuardedRead{Status: enums.OrderStatusPending, PaymentStatus: enums.PaymentStatusUnpaid},
		Decision{Status: enums.OrderStatusConfirmed, PaymentStatus: enums.PaymentStatusUnpaid})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	// a second writer still holding the stale precondition must not match
	rows, err = repo.UpdateGuarded(context.Background(), created.ID,
		GuardedRead{Status: enums.OrderStatusPending, PaymentStatus: enums.PaymentStatusUnpaid},
		Decision{Status: enums.OrderStatusCancelled, PaymentStatus: enums.PaymentStatusUnpaid})
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, found.Status)
}

func TestRepositoryUpdateGuardedNeverTouchesSnapshots(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	created := seedOrder(t, repo, uuid.New(), uuid.New(), time.Now().UTC())

	_, err := repo.UpdateGuarded(context.Background(), created.ID,
		GuardedRead{Status: enums.OrderStatusPending, PaymentStatus: enums.PaymentStatusUnpaid},
		Decision{Status: enums.OrderStatusConfirmed, PaymentStatus: enums.PaymentStatusUnpaid})
	require.NoError(t, err)

	found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), found.TotalCents)
	require.Len(t, found.Lines, 1)
	assert.Equal(t, int64(5000), found.Lines[0].UnitPriceCents)
}

func TestRepositoryListFiltersAndPaginates(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	customerID := uuid.New()
	vendorA := uuid.New()
	vendorB := uuid.New()
	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		seedOrder(t, repo, customerID, vendorA, base.Add(time.Duration(i)*time.Minute))
	}
	seedOrder(t, repo, uuid.New(), vendorB, base.Add(10*time.Minute))

	list, err := repo.List(context.Background(), pagination.Params{Limit: 2}, ListFilters{VendorID: &vendorA})
	require.NoError(t, err)
	require.Len(t, list.Orders, 2)
	require.NotEmpty(t, list.NextCursor)
	assert.True(t, list.Orders[0].CreatedAt.After(list.Orders[1].CreatedAt), "newest first")

	rest, err := repo.List(context.Background(), pagination.Params{Limit: 2, Cursor: list.NextCursor}, ListFilters{VendorID: &vendorA})
	require.NoError(t, err)
	require.Len(t, rest.Orders, 1)
	assert.Empty(t, rest.NextCursor)

	from := base.Add(5 * time.Minute)
	byDate, err := repo.List(context.Background(), pagination.Params{}, ListFilters{DateFrom: &from})
	require.NoError(t, err)
	require.Len(t, byDate.Orders, 1)
	assert.Equal(t, vendorB, byDate.Orders[0].VendorID)
}
