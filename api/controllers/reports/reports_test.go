package reports

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mensahub/canteen-backend/api/middleware"
	"github.com/mensahub/canteen-backend/internal/orders"
	internalreports "github.com/mensahub/canteen-backend/internal/reports"
	"github.com/mensahub/canteen-backend/pkg/enums"
	pkgerrors "github.com/mensahub/canteen-backend/pkg/errors"
	"github.com/mensahub/canteen-backend/pkg/types"
)

type stubReportsService struct {
	get func(ctx context.Context, actor orders.Actor, scope internalreports.Scope, rng internalreports.DateRange, filters internalreports.Filters) (*internalreports.RevenueReport, error)
}

func (s *stubReportsService) GetRevenueReport(ctx context.Context, actor orders.Actor, scope internalreports.Scope, rng internalreports.DateRange, filters internalreports.Filters) (*internalreports.RevenueReport, error) {
	if s.get != nil {
		return s.get(ctx, actor, scope, rng, filters)
	}
	return &internalreports.RevenueReport{}, nil
}

func vendorReportRequest(target string, vendorID uuid.UUID, role enums.ActorRole, ownVendorID *uuid.UUID) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("vendorId", vendorID.String())
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	ctx = middleware.WithUserID(ctx, uuid.New().String())
	ctx = middleware.WithRole(ctx, role.String())
	if ownVendorID != nil {
		ctx = middleware.WithVendorID(ctx, ownVendorID.String())
	}
	return req.WithContext(ctx)
}

func TestVendorRevenueParsesWindow(t *testing.T) {
	vendorID := uuid.New()
	svc := &stubReportsService{
		get: func(ctx context.Context, actor orders.Actor, scope internalreports.Scope, rng internalreports.DateRange, filters internalreports.Filters) (*internalreports.RevenueReport, error) {
			if scope.VendorID == nil || *scope.VendorID != vendorID {
				t.Fatalf("scope vendor not parsed")
			}
			if !rng.Start.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
				t.Fatalf("unexpected start %s", rng.Start)
			}
			if !rng.End.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
				t.Fatalf("unexpected end %s", rng.End)
			}
			if filters.Category == nil || *filters.Category != enums.MenuCategoryMainDish {
				t.Fatalf("category filter not parsed")
			}
			return &internalreports.RevenueReport{TotalRevenueCents: 20000, PaidOrderCount: 1}, nil
		},
	}

	req := vendorReportRequest("/api/v1/reports/vendors/"+vendorID.String()+"/revenue?start=2026-03-01&end=2026-04-01&category=main_dish", vendorID, enums.ActorRoleVendor, &vendorID)
	resp := httptest.NewRecorder()
	VendorRevenue(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data internalreports.RevenueReport `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.TotalRevenueCents != 20000 {
		t.Fatalf("unexpected revenue %d", envelope.Data.TotalRevenueCents)
	}
}

func TestVendorRevenueMissingWindow(t *testing.T) {
	vendorID := uuid.New()
	req := vendorReportRequest("/api/v1/reports/vendors/"+vendorID.String()+"/revenue", vendorID, enums.ActorRoleVendor, &vendorID)

	resp := httptest.NewRecorder()
	VendorRevenue(&stubReportsService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeInvalidRange) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
}

func TestVendorRevenueMalformedDate(t *testing.T) {
	vendorID := uuid.New()
	req := vendorReportRequest("/api/v1/reports/vendors/"+vendorID.String()+"/revenue?start=yesterday&end=2026-04-01", vendorID, enums.ActorRoleVendor, &vendorID)

	resp := httptest.NewRecorder()
	VendorRevenue(&stubReportsService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeInvalidRange) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
}

func TestVendorRevenuePropagatesForbidden(t *testing.T) {
	vendorID := uuid.New()
	otherVendor := uuid.New()
	svc := &stubReportsService{
		get: func(ctx context.Context, actor orders.Actor, scope internalreports.Scope, rng internalreports.DateRange, filters internalreports.Filters) (*internalreports.RevenueReport, error) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "report scope not permitted")
		},
	}

	req := vendorReportRequest("/api/v1/reports/vendors/"+vendorID.String()+"/revenue?start=2026-03-01&end=2026-04-01", vendorID, enums.ActorRoleVendor, &otherVendor)
	resp := httptest.NewRecorder()
	VendorRevenue(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestPlatformRevenueUsesPlatformScope(t *testing.T) {
	svc := &stubReportsService{
		get: func(ctx context.Context, actor orders.Actor, scope internalreports.Scope, rng internalreports.DateRange, filters internalreports.Filters) (*internalreports.RevenueReport, error) {
			if scope.VendorID != nil {
				t.Fatalf("platform scope must not carry a vendor id")
			}
			return &internalreports.RevenueReport{OrderCount: 3}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/platform/revenue?start=2026-03-01&end=2026-04-01", nil)
	ctx := middleware.WithUserID(req.Context(), uuid.New().String())
	ctx = middleware.WithRole(ctx, enums.ActorRoleAdmin.String())
	req = req.WithContext(ctx)

	resp := httptest.NewRecorder()
	PlatformRevenue(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}
