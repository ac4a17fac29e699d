package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mensahub/canteen-backend/pkg/db/models"
)

// Repository exposes menu item reads. Orders never mutate the catalog; price
// and name travel into the order as snapshots instead.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.MenuItem, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.MenuItem, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.MenuItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.MenuItem
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("name ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
