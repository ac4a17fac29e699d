package reports

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mensahub/canteen-backend/api/controllers/actorcontext"
	"github.com/mensahub/canteen-backend/api/responses"
	"github.com/mensahub/canteen-backend/api/validators"
	internalreports "github.com/mensahub/canteen-backend/internal/reports"
	"github.com/mensahub/canteen-backend/pkg/enums"
	pkgerrors "github.com/mensahub/canteen-backend/pkg/errors"
	"github.com/mensahub/canteen-backend/pkg/logger"
)

// VendorRevenue serves the revenue report for a single vendor. Vendors can
// only read their own report; admins can read any.
func VendorRevenue(svc internalreports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		actor, err := actorcontext.ResolveActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendorID, err := uuid.Parse(chi.URLParam(r, "vendorId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor id"))
			return
		}

		rng, err := parseDateRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := parseFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.GetRevenueReport(r.Context(), actor, internalreports.Scope{VendorID: &vendorID}, rng, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// PlatformRevenue serves the platform-wide revenue report. Admin only.
func PlatformRevenue(svc internalreports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		actor, err := actorcontext.ResolveActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rng, err := parseDateRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := parseFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.GetRevenueReport(r.Context(), actor, internalreports.Scope{}, rng, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func parseDateRange(r *http.Request) (internalreports.DateRange, error) {
	var rng internalreports.DateRange

	start, err := validators.ParseQueryDate(r, "start", pkgerrors.CodeInvalidRange)
	if err != nil {
		return rng, err
	}
	end, err := validators.ParseQueryDate(r, "end", pkgerrors.CodeInvalidRange)
	if err != nil {
		return rng, err
	}
	if start == nil || end == nil {
		return rng, pkgerrors.New(pkgerrors.CodeInvalidRange, "start and end are required")
	}

	rng.Start = *start
	rng.End = *end
	return rng, nil
}

func parseFilters(r *http.Request) (internalreports.Filters, error) {
	var filters internalreports.Filters

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
		category, err := enums.ParseMenuCategory(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category filter")
		}
		filters.Category = &category
	}
	return filters, nil
}
