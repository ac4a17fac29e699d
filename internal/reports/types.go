package reports

import (
	"time"

	"github.com/google/uuid"

	"github.com/mensahub/canteen-backend/pkg/enums"
)

// Scope bounds a report to one vendor or, when VendorID is nil, the platform.
type Scope struct {
	VendorID *uuid.UUID
}

// DateRange is the half-open interval [Start, End) applied to order creation time.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Filters narrow which orders and lines a report aggregates.
type Filters struct {
	Status   *enums.OrderStatus
	Category *enums.MenuCategory
}

// StatusBucket is per-status volume and recognized revenue.
type StatusBucket struct {
	Status       enums.OrderStatus `json:"status"`
	OrderCount   int               `json:"order_count"`
	RevenueCents int64             `json:"revenue_cents"`
}

// CategoryBucket attributes revenue to each line's own category by its
// price-times-quantity contribution, so a multi-category order is split, not
// duplicated.
type CategoryBucket struct {
	Category     enums.MenuCategory `json:"category"`
	LineCount    int                `json:"line_count"`
	RevenueCents int64              `json:"revenue_cents"`
}

// RevenueReport is a derived read projection; it is recomputed per request and
// never persisted.
type RevenueReport struct {
	VendorID               *uuid.UUID       `json:"vendor_id,omitempty"`
	Start                  time.Time        `json:"start"`
	End                    time.Time        `json:"end"`
	TotalRevenueCents      int64            `json:"total_revenue_cents"`
	OrderCount             int              `json:"order_count"`
	PaidOrderCount         int              `json:"paid_order_count"`
	AverageOrderValueCents int64            `json:"average_order_value_cents"`
	StatusBreakdown        []StatusBucket   `json:"status_breakdown"`
	CategoryBreakdown      []CategoryBucket `json:"category_breakdown"`
}
