package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mensahub/canteen-backend/internal/pricing"
	"github.com/mensahub/canteen-backend/pkg/db/models"
	"github.com/mensahub/canteen-backend/pkg/enums"
	pkgerrors "github.com/mensahub/canteen-backend/pkg/errors"
	"github.com/mensahub/canteen-backend/pkg/logger"
	"github.com/mensahub/canteen-backend/pkg/metrics"
	"github.com/mensahub/canteen-backend/pkg/outbox"
	"github.com/mensahub/canteen-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service is the order ledger: creation via the pricing snapshotter, guarded
// state transitions, and scoped reads.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error)
	ListOrders(ctx context.Context, actor Actor, params pagination.Params, filters ListFilters) (*OrderList, error)
}

type service struct {
	repo        Repository
	tx          txRunner
	snapshotter pricing.Snapshotter
	outbox      outboxPublisher
	logg        *logger.Logger
	metrics     *metrics.OrderMetrics
	attempts    int
	now         func() time.Time
}

// ServiceParams wires the ledger's dependencies.
type ServiceParams struct {
	Repo        Repository
	Tx          txRunner
	Snapshotter pricing.Snapshotter
	Outbox      outboxPublisher
	Logger      *logger.Logger
	Metrics     *metrics.OrderMetrics
	// TransitionAttempts bounds the guarded-write retry loop.
	TransitionAttempts int
}

// NewService builds the order ledger service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Snapshotter == nil {
		return nil, fmt.Errorf("pricing snapshotter required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	attempts := params.TransitionAttempts
	if attempts <= 0 {
		attempts = 3
	}
	return &service{
		repo:        params.Repo,
		tx:          params.Tx,
		snapshotter: params.Snapshotter,
		outbox:      params.Outbox,
		logg:        params.Logger,
		metrics:     params.Metrics,
		attempts:    attempts,
		now:         time.Now,
	}, nil
}

type orderCreatedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	VendorID   uuid.UUID `json:"vendor_id"`
	TotalCents int64     `json:"total_cents"`
	LineCount  int       `json:"line_count"`
}

type orderStatusChangedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	From          enums.OrderStatus   `json:"from"`
	To            enums.OrderStatus   `json:"to"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
}

type orderPaymentChangedEvent struct {
	OrderID uuid.UUID           `json:"order_id"`
	From    enums.PaymentStatus `json:"from"`
	To      enums.PaymentStatus `json:"to"`
	Status  enums.OrderStatus   `json:"status"`
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		quote, err := s.snapshotter.Snapshot(ctx, tx, input.VendorID, input.Lines)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		order := &models.Order{
			CustomerID:         input.CustomerID,
			VendorID:           quote.VendorID,
			TotalCents:         quote.TotalCents,
			Status:             enums.OrderStatusPending,
			PaymentStatus:      enums.PaymentStatusUnpaid,
			Lines:              quote.Lines,
			LastStatusChangeAt: now,
		}
		if order.TotalCents != order.LinesTotalCents() {
			return pkgerrors.New(pkgerrors.CodeInternal, "order total does not reconcile with line snapshots")
		}

		created, err = s.repo.WithTx(tx).Create(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting order")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   created.ID,
			Actor:         &outbox.ActorRef{UserID: input.CustomerID, Role: string(enums.ActorRoleCustomer)},
			Data: orderCreatedEvent{
				OrderID:    created.ID,
				CustomerID: created.CustomerID,
				VendorID:   created.VendorID,
				TotalCents: created.TotalCents,
				LineCount:  len(created.Lines),
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncCreated()
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, created.ID.String())
		s.logg.Info(logCtx, "order created")
	}
	return created, nil
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown transition target").
			WithDetails(map[string]any{"target": input.Target})
	}
	if input.Actor.UserID == uuid.Nil && input.Actor.Role != enums.ActorRolePaymentWebhook {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	var (
		result   *models.Order
		lastRead *GuardedRead
	)

	for attempt := 0; attempt < s.attempts; attempt++ {
		stale := false
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			order, err := repo.FindByID(ctx, input.OrderID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
			}
			if err := authorizeOrderAccess(order, input.Actor); err != nil {
				return err
			}

			read := GuardedRead{Status: order.Status, PaymentStatus: order.PaymentStatus}
			if lastRead != nil && read != *lastRead {
				// Someone else moved the order between our attempts. The caller
				// must re-read and decide again with the new state in hand.
				return pkgerrors.New(pkgerrors.CodeConflict, "order changed concurrently").
					WithDetails(map[string]any{"status": read.Status, "payment_status": read.PaymentStatus})
			}

			decision, err := Decide(order.Status, order.PaymentStatus, input.Target, input.Actor.Role)
			if err != nil {
				return err
			}

			rows, err := repo.UpdateGuarded(ctx, order.ID, read, decision)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying transition")
			}
			if rows == 0 {
				lastRead = &read
				stale = true
				return pkgerrors.New(pkgerrors.CodeConflict, "transition precondition lost")
			}

			if err := s.emitTransition(ctx, tx, order, decision, input); err != nil {
				return err
			}

			order.Status = decision.Status
			order.PaymentStatus = decision.PaymentStatus
			order.LastStatusChangeAt = s.now().UTC()
			result = order
			return nil
		})
		if err != nil {
			if stale {
				continue
			}
			if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
				s.metrics.IncConflict(string(input.Target))
			}
			return nil, err
		}

		s.metrics.IncTransition(string(input.Target))
		if s.logg != nil {
			logCtx := s.logg.WithOrderID(ctx, result.ID.String())
			logCtx = s.logg.WithFields(logCtx, map[string]any{
				"target": input.Target,
				"role":   input.Actor.Role,
			})
			s.logg.Info(logCtx, "order transition applied")
		}
		return result, nil
	}

	s.metrics.IncConflict(string(input.Target))
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "could not acquire transition precondition").
		WithDetails(map[string]any{"attempts": s.attempts})
}

func (s *service) emitTransition(ctx context.Context, tx *gorm.DB, order *models.Order, decision Decision, input TransitionInput) error {
	actor := &outbox.ActorRef{UserID: input.Actor.UserID, Role: string(input.Actor.Role)}
	if input.Target.IsPaymentTarget() {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaymentChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor,
			Data: orderPaymentChangedEvent{
				OrderID: order.ID,
				From:    order.PaymentStatus,
				To:      decision.PaymentStatus,
				Status:  decision.Status,
			},
			Version: 1,
		})
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Data: orderStatusChangedEvent{
			OrderID:       order.ID,
			From:          order.Status,
			To:            decision.Status,
			PaymentStatus: decision.PaymentStatus,
		},
		Version: 1,
	})
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if err := authorizeOrderAccess(order, actor); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, actor Actor, params pagination.Params, filters ListFilters) (*OrderList, error) {
	switch actor.Role {
	case enums.ActorRoleCustomer:
		filters.CustomerID = &actor.UserID
	case enums.ActorRoleVendor:
		if actor.VendorID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing")
		}
		filters.VendorID = actor.VendorID
	case enums.ActorRoleAdmin:
		// admins list freely
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role may not list orders")
	}

	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return list, nil
}

func authorizeOrderAccess(order *models.Order, actor Actor) error {
	switch actor.Role {
	case enums.ActorRoleCustomer:
		if order.CustomerID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
		}
	case enums.ActorRoleVendor:
		if actor.VendorID == nil || *actor.VendorID != order.VendorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another vendor")
		}
	case enums.ActorRoleAdmin, enums.ActorRolePaymentWebhook:
		// full access
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "unknown actor role")
	}
	return nil
}
