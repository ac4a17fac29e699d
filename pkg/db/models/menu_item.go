package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mensahub/canteen-backend/pkg/enums"
)

// MenuItem is a vendor's sellable item. The catalog is mutable at any time;
// orders never read it after creation because lines carry their own snapshot.
type MenuItem struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID   uuid.UUID          `gorm:"column:vendor_id;type:uuid;not null;index"`
	Name       string             `gorm:"column:name;not null"`
	PriceCents int64              `gorm:"column:price_cents;not null"`
	Category   enums.MenuCategory `gorm:"column:category;type:text;not null"`
	Available  bool               `gorm:"column:available;not null;default:true"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
