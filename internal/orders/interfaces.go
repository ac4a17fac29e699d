package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mensahub/canteen-backend/pkg/db/models"
	"github.com/mensahub/canteen-backend/pkg/enums"
	"github.com/mensahub/canteen-backend/pkg/pagination"
)

// Repository defines persistence operations for the order ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// UpdateGuarded applies the decided (status, payment status) pair with a
	// precondition on the previously read pair. It returns the number of rows
	// matched; zero means a concurrent writer got there first.
	UpdateGuarded(ctx context.Context, id uuid.UUID, read GuardedRead, decision Decision) (int64, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
}

// GuardedRead is the (status, payment status) pair a transition was validated
// against. The guarded update re-asserts it at write time.
type GuardedRead struct {
	Status        enums.OrderStatus
	PaymentStatus enums.PaymentStatus
}
