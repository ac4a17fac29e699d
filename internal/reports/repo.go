package reports

import (
	"context"

	"gorm.io/gorm"

	"github.com/mensahub/canteen-backend/pkg/db/models"
)

// Repository is the aggregator's read-only view of the order ledger.
type Repository interface {
	FindOrdersInRange(ctx context.Context, scope Scope, rng DateRange, filters Filters) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reports repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindOrdersInRange(ctx context.Context, scope Scope, rng DateRange, filters Filters) ([]models.Order, error) {
	qb := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("created_at >= ? AND created_at < ?", rng.Start, rng.End)

	if scope.VendorID != nil {
		qb = qb.Where("vendor_id = ?", *scope.VendorID)
	}
	if filters.Status != nil {
		qb = qb.Where("status = ?", *filters.Status)
	}

	var records []models.Order
	err := qb.
		Preload("Lines").
		Order("created_at ASC").Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
