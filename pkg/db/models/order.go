package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mensahub/canteen-backend/pkg/enums"
)

// Order is the durable record produced at checkout. TotalCents and the line
// snapshots are write-once; only status, payment_status and
// last_status_change_at mutate after creation.
type Order struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID         uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	VendorID           uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null;index"`
	TotalCents         int64               `gorm:"column:total_cents;not null"`
	Status             enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus      enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	Lines              []OrderLine         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime;index"`
	LastStatusChangeAt time.Time           `gorm:"column:last_status_change_at;not null"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// LinesTotalCents sums the per-line snapshot totals.
func (o Order) LinesTotalCents() int64 {
	var total int64
	for _, line := range o.Lines {
		total += line.TotalCents
	}
	return total
}
