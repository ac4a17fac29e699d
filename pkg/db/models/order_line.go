package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mensahub/canteen-backend/pkg/enums"
)

// OrderLine freezes one menu item at purchase time. Name, price and category
// are copied from the catalog when the order is created and never updated,
// so later catalog edits cannot rewrite history.
type OrderLine struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	MenuItemID     uuid.UUID          `gorm:"column:menu_item_id;type:uuid;not null"`
	NameSnapshot   string             `gorm:"column:name_snapshot;not null"`
	Category       enums.MenuCategory `gorm:"column:category;type:text;not null"`
	UnitPriceCents int64              `gorm:"column:unit_price_cents;not null"`
	Qty            int                `gorm:"column:qty;not null"`
	TotalCents     int64              `gorm:"column:total_cents;not null"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
}
