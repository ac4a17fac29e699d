package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mensahub/canteen-backend/pkg/enums"
)

// Vendor is a canteen stall registered on the platform.
type Vendor struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerUserID     uuid.UUID          `gorm:"column:owner_user_id;type:uuid;not null"`
	DisplayName     string             `gorm:"column:display_name;not null"`
	Status          enums.VendorStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	AcceptingOrders bool               `gorm:"column:accepting_orders;not null;default:false"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// CanTakeOrders reports whether new orders may be created against the vendor.
func (v Vendor) CanTakeOrders() bool {
	return v.Status == enums.VendorStatusApproved && v.AcceptingOrders
}
