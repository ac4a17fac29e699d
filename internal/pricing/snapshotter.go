package pricing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mensahub/canteen-backend/internal/catalog"
	"github.com/mensahub/canteen-backend/internal/vendors"
	"github.com/mensahub/canteen-backend/pkg/db/models"
	pkgerrors "github.com/mensahub/canteen-backend/pkg/errors"
)

// LineInput is one requested cart line before pricing.
type LineInput struct {
	MenuItemID uuid.UUID
	Qty        int
}

// Quote carries the priced line snapshots and their precomputed total. Nothing
// is persisted here; the caller owns the write.
type Quote struct {
	VendorID   uuid.UUID
	Lines      []models.OrderLine
	TotalCents int64
}

// Snapshotter freezes menu item name and price into order lines at checkout
// time so later catalog edits never change historical orders.
type Snapshotter interface {
	Snapshot(ctx context.Context, tx *gorm.DB, vendorID uuid.UUID, lines []LineInput) (*Quote, error)
}

type snapshotter struct {
	vendors vendors.Repository
	catalog catalog.Repository
}

// NewSnapshotter builds the pricing snapshotter with its read dependencies.
func NewSnapshotter(vendorRepo vendors.Repository, catalogRepo catalog.Repository) (Snapshotter, error) {
	if vendorRepo == nil {
		return nil, fmt.Errorf("vendor repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &snapshotter{vendors: vendorRepo, catalog: catalogRepo}, nil
}

func (s *snapshotter) Snapshot(ctx context.Context, tx *gorm.DB, vendorID uuid.UUID, lines []LineInput) (*Quote, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyOrder, "order must contain at least one line")
	}
	for _, line := range lines {
		if line.MenuItemID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item id required on every line")
		}
		if line.Qty < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be at least 1").
				WithDetails(map[string]any{"menu_item_id": line.MenuItemID})
		}
	}

	vendorRepo := s.vendors.WithTx(tx)
	catalogRepo := s.catalog.WithTx(tx)

	vendor, err := vendorRepo.FindByID(ctx, vendorID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidReference, "vendor does not exist").
				WithDetails(map[string]any{"vendor_id": vendorID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading vendor")
	}
	if !vendor.CanTakeOrders() {
		return nil, pkgerrors.New(pkgerrors.CodeVendorNotAccepting, "vendor is not approved or not accepting orders").
			WithDetails(map[string]any{"vendor_id": vendorID, "status": vendor.Status})
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.MenuItemID)
	}
	items, err := catalogRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading menu items")
	}
	byID := make(map[uuid.UUID]models.MenuItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	quote := &Quote{VendorID: vendorID, Lines: make([]models.OrderLine, 0, len(lines))}
	for _, line := range lines {
		item, ok := byID[line.MenuItemID]
		if !ok || item.VendorID != vendorID {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidReference, "menu item does not exist for this vendor").
				WithDetails(map[string]any{"menu_item_id": line.MenuItemID})
		}
		if !item.Available {
			return nil, pkgerrors.New(pkgerrors.CodeItemUnavailable, "menu item is currently unavailable").
				WithDetails(map[string]any{"menu_item_id": item.ID, "name": item.Name})
		}

		lineTotal := item.PriceCents * int64(line.Qty)
		quote.Lines = append(quote.Lines, models.OrderLine{
			MenuItemID:     item.ID,
			NameSnapshot:   item.Name,
			Category:       item.Category,
			UnitPriceCents: item.PriceCents,
			Qty:            line.Qty,
			TotalCents:     lineTotal,
		})
		quote.TotalCents += lineTotal
	}

	return quote, nil
}
