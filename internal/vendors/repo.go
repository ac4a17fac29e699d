package vendors

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mensahub/canteen-backend/pkg/db/models"
)

// Repository exposes vendor reads needed at checkout and in the report layer.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	ListApproved(ctx context.Context) ([]models.Vendor, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a vendor repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&vendor).Error
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *repository) ListApproved(ctx context.Context) ([]models.Vendor, error) {
	var vendors []models.Vendor
	err := r.db.WithContext(ctx).
		Where("status = ?", "approved").
		Order("display_name ASC").
		Find(&vendors).Error
	if err != nil {
		return nil, err
	}
	return vendors, nil
}
