package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mensahub/canteen-backend/pkg/db/models"
	"github.com/mensahub/canteen-backend/pkg/pagination"
)

type repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository builds an order ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db, now: time.Now}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx, now: r.now}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Lines {
		if order.Lines[i].ID == uuid.Nil {
			order.Lines[i].ID = uuid.New()
		}
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_lines.created_at ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateGuarded(ctx context.Context, id uuid.UUID, read GuardedRead, decision Decision) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ? AND payment_status = ?", id, read.Status, read.PaymentStatus).
		Updates(map[string]any{
			"status":                decision.Status,
			"payment_status":        decision.PaymentStatus,
			"last_status_change_at": r.now().UTC(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Model(&models.Order{})

	if filters.CustomerID != nil {
		qb = qb.Where("customer_id = ?", *filters.CustomerID)
	}
	if filters.VendorID != nil {
		qb = qb.Where("vendor_id = ?", *filters.VendorID)
	}
	if filters.Status != nil {
		qb = qb.Where("status = ?", *filters.Status)
	}
	if filters.PaymentStatus != nil {
		qb = qb.Where("payment_status = ?", *filters.PaymentStatus)
	}
	if filters.DateFrom != nil {
		qb = qb.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		qb = qb.Where("created_at < ?", *filters.DateTo)
	}

	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var records []models.Order
	err = qb.
		Preload("Lines").
		Order("created_at DESC").Order("id DESC").
		Limit(limitWithBuffer).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	rows := records
	nextCursor := ""
	if len(records) > pageSize {
		rows = records[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	summaries := make([]OrderSummary, 0, len(rows))
	for _, order := range rows {
		totalItems := 0
		for _, line := range order.Lines {
			totalItems += line.Qty
		}
		summaries = append(summaries, OrderSummary{
			ID:            order.ID,
			CustomerID:    order.CustomerID,
			VendorID:      order.VendorID,
			TotalCents:    order.TotalCents,
			TotalItems:    totalItems,
			Status:        order.Status,
			PaymentStatus: order.PaymentStatus,
			CreatedAt:     order.CreatedAt,
		})
	}

	return &OrderList{Orders: summaries, NextCursor: nextCursor}, nil
}
