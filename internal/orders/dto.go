package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/mensahub/canteen-backend/internal/pricing"
	"github.com/mensahub/canteen-backend/pkg/enums"
)

// Actor is the verified identity attached to every ledger operation. Identity
// verification happens upstream; the ledger only scopes and authorizes.
type Actor struct {
	UserID   uuid.UUID
	Role     enums.ActorRole
	VendorID *uuid.UUID
}

// CreateOrderInput captures a checkout request before pricing.
type CreateOrderInput struct {
	VendorID   uuid.UUID
	CustomerID uuid.UUID
	Lines      []pricing.LineInput
}

// TransitionInput names the order, the desired target and the acting identity.
type TransitionInput struct {
	OrderID uuid.UUID
	Target  enums.TransitionTarget
	Actor   Actor
}

// ListFilters describe the inputs supported by the order list.
type ListFilters struct {
	CustomerID    *uuid.UUID
	VendorID      *uuid.UUID
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	DateFrom      *time.Time
	DateTo        *time.Time
}

// OrderSummary exposes the aggregated fields returned in the order list.
type OrderSummary struct {
	ID            uuid.UUID           `json:"id"`
	CustomerID    uuid.UUID           `json:"customer_id"`
	VendorID      uuid.UUID           `json:"vendor_id"`
	TotalCents    int64               `json:"total_cents"`
	TotalItems    int                 `json:"total_items"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time           `json:"created_at"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
