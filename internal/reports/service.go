package reports

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mensahub/canteen-backend/internal/orders"
	"github.com/mensahub/canteen-backend/pkg/db/models"
	"github.com/mensahub/canteen-backend/pkg/enums"
	pkgerrors "github.com/mensahub/canteen-backend/pkg/errors"
	"github.com/mensahub/canteen-backend/pkg/logger"
	"github.com/mensahub/canteen-backend/pkg/metrics"
)

// Cache is the optional read-through store for finished reports. The redis
// client satisfies it; a nil cache (or zero TTL) disables caching entirely.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	ReportKey(fingerprint string) string
}

// Service is the revenue aggregator plus its inbound validation.
type Service interface {
	GetRevenueReport(ctx context.Context, actor orders.Actor, scope Scope, rng DateRange, filters Filters) (*RevenueReport, error)
}

type service struct {
	repo     Repository
	cache    Cache
	cacheTTL time.Duration
	logg     *logger.Logger
	metrics  *metrics.OrderMetrics
	now      func() time.Time
}

// ServiceParams wires the aggregator's dependencies.
type ServiceParams struct {
	Repo Repository
	// Cache and CacheTTL are both required to enable report caching.
	Cache    Cache
	CacheTTL time.Duration
	Logger   *logger.Logger
	Metrics  *metrics.OrderMetrics
}

// NewService builds the revenue report service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	return &service{
		repo:     params.Repo,
		cache:    params.Cache,
		cacheTTL: params.CacheTTL,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      time.Now,
	}, nil
}

func (s *service) GetRevenueReport(ctx context.Context, actor orders.Actor, scope Scope, rng DateRange, filters Filters) (*RevenueReport, error) {
	if err := validateRange(rng); err != nil {
		return nil, err
	}
	if err := validateFilters(filters); err != nil {
		return nil, err
	}
	if err := authorizeScope(actor, scope); err != nil {
		return nil, err
	}

	scopeLabel := "platform"
	if scope.VendorID != nil {
		scopeLabel = "vendor"
	}
	s.metrics.IncReportRequest(scopeLabel)

	cacheKey := ""
	if s.cacheEnabled() {
		cacheKey = s.cache.ReportKey(fingerprint(scope, rng, filters))
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
			var report RevenueReport
			if err := json.Unmarshal([]byte(cached), &report); err == nil {
				s.metrics.IncReportCache("hit")
				return &report, nil
			}
		}
		s.metrics.IncReportCache("miss")
	}

	started := s.now()
	matched, err := s.repo.FindOrdersInRange(ctx, scope, rng, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "scanning ledger")
	}
	report := aggregate(scope, rng, filters, matched)
	s.metrics.ObserveReportDuration(scopeLabel, s.now().Sub(started))

	if s.cacheEnabled() {
		if encoded, err := json.Marshal(report); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(encoded), s.cacheTTL); err != nil && s.logg != nil {
				s.logg.Warn(ctx, "caching revenue report failed")
			}
		}
	}
	return report, nil
}

func (s *service) cacheEnabled() bool {
	return s.cache != nil && s.cacheTTL > 0
}

func validateRange(rng DateRange) error {
	if rng.Start.IsZero() || rng.End.IsZero() {
		return pkgerrors.New(pkgerrors.CodeInvalidRange, "start and end are required")
	}
	if rng.End.Before(rng.Start) {
		return pkgerrors.New(pkgerrors.CodeInvalidRange, "end must not precede start").
			WithDetails(map[string]any{"start": rng.Start, "end": rng.End})
	}
	return nil
}

func validateFilters(filters Filters) error {
	if filters.Status != nil && !filters.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown status filter")
	}
	if filters.Category != nil && !filters.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown category filter")
	}
	return nil
}

func authorizeScope(actor orders.Actor, scope Scope) error {
	switch actor.Role {
	case enums.ActorRoleAdmin:
		return nil
	case enums.ActorRoleVendor:
		if scope.VendorID == nil {
			return pkgerrors.New(pkgerrors.CodeForbidden, "vendors may not request platform-wide reports")
		}
		if actor.VendorID == nil || *actor.VendorID != *scope.VendorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "report scope belongs to another vendor")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "role may not request revenue reports")
	}
}

var statusOrder = []enums.OrderStatus{
	enums.OrderStatusPending,
	enums.OrderStatusConfirmed,
	enums.OrderStatusPreparing,
	enums.OrderStatusReady,
	enums.OrderStatusCompleted,
	enums.OrderStatusCancelled,
}

var categoryOrder = []enums.MenuCategory{
	enums.MenuCategoryMainDish,
	enums.MenuCategorySnack,
	enums.MenuCategoryBeverage,
	enums.MenuCategoryDessert,
}

// aggregate is the pure projection: same inputs, bit-identical output.
func aggregate(scope Scope, rng DateRange, filters Filters, matched []models.Order) *RevenueReport {
	report := &RevenueReport{
		VendorID: scope.VendorID,
		Start:    rng.Start,
		End:      rng.End,
	}

	statusBuckets := map[enums.OrderStatus]*StatusBucket{}
	categoryBuckets := map[enums.MenuCategory]*CategoryBucket{}
	var totalRevenue int64

	for _, order := range matched {
		lines := order.Lines
		if filters.Category != nil {
			lines = nil
			for _, line := range order.Lines {
				if line.Category == *filters.Category {
					lines = append(lines, line)
				}
			}
			if len(lines) == 0 {
				continue
			}
		}

		// With a category filter only the matching lines' value counts;
		// otherwise the full snapshot total does.
		orderValue := order.TotalCents
		if filters.Category != nil {
			orderValue = 0
			for _, line := range lines {
				orderValue += line.TotalCents
			}
		}

		report.OrderCount++
		paid := order.PaymentStatus == enums.PaymentStatusPaid
		if paid {
			report.PaidOrderCount++
			totalRevenue += orderValue
		}

		bucket := statusBuckets[order.Status]
		if bucket == nil {
			bucket = &StatusBucket{Status: order.Status}
			statusBuckets[order.Status] = bucket
		}
		bucket.OrderCount++
		if paid {
			bucket.RevenueCents += orderValue
		}

		for _, line := range lines {
			cat := categoryBuckets[line.Category]
			if cat == nil {
				cat = &CategoryBucket{Category: line.Category}
				categoryBuckets[line.Category] = cat
			}
			cat.LineCount++
			if paid {
				cat.RevenueCents += line.TotalCents
			}
		}
	}

	report.TotalRevenueCents = totalRevenue
	if report.PaidOrderCount > 0 {
		report.AverageOrderValueCents = decimal.NewFromInt(totalRevenue).
			DivRound(decimal.NewFromInt(int64(report.PaidOrderCount)), 0).
			IntPart()
	}

	for _, status := range statusOrder {
		if bucket, ok := statusBuckets[status]; ok {
			report.StatusBreakdown = append(report.StatusBreakdown, *bucket)
		}
	}
	for _, category := range categoryOrder {
		if bucket, ok := categoryBuckets[category]; ok {
			report.CategoryBreakdown = append(report.CategoryBreakdown, *bucket)
		}
	}
	return report
}

func fingerprint(scope Scope, rng DateRange, filters Filters) string {
	vendor := "platform"
	if scope.VendorID != nil {
		vendor = scope.VendorID.String()
	}
	status := ""
	if filters.Status != nil {
		status = string(*filters.Status)
	}
	category := ""
	if filters.Category != nil {
		category = string(*filters.Category)
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d|%s|%s",
		vendor, rng.Start.UTC().UnixNano(), rng.End.UTC().UnixNano(), status, category)))
	return hex.EncodeToString(sum[:])
}
