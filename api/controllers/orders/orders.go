package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mensahub/canteen-backend/api/controllers/actorcontext"
	"github.com/mensahub/canteen-backend/api/responses"
	"github.com/mensahub/canteen-backend/api/validators"
	internalorders "github.com/mensahub/canteen-backend/internal/orders"
	"github.com/mensahub/canteen-backend/internal/pricing"
	"github.com/mensahub/canteen-backend/pkg/enums"
	pkgerrors "github.com/mensahub/canteen-backend/pkg/errors"
	"github.com/mensahub/canteen-backend/pkg/logger"
	"github.com/mensahub/canteen-backend/pkg/pagination"
)

type createOrderRequest struct {
	VendorID string              `json:"vendor_id" validate:"required,uuid"`
	Lines    []createLineRequest `json:"lines" validate:"omitempty,dive"`
}

type createLineRequest struct {
	MenuItemID string `json:"menu_item_id" validate:"required,uuid"`
	Qty        int    `json:"qty" validate:"required,min=1"`
}

type transitionRequest struct {
	Target string `json:"target" validate:"required"`
}

// Create places a new order for the authenticated customer. Prices and item
// names are frozen at this moment regardless of later menu edits.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorcontext.ResolveActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if actor.Role != enums.ActorRoleCustomer {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "only customers can place orders"))
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendorID, err := uuid.Parse(req.VendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor id"))
			return
		}

		lines := make([]pricing.LineInput, 0, len(req.Lines))
		for _, line := range req.Lines {
			itemID, err := uuid.Parse(line.MenuItemID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid menu item id"))
				return
			}
			lines = append(lines, pricing.LineInput{MenuItemID: itemID, Qty: line.Qty})
		}

		order, err := svc.CreateOrder(r.Context(), internalorders.CreateOrderInput{
			VendorID:   vendorID,
			CustomerID: actor.UserID,
			Lines:      lines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// Transition moves an order along the fulfilment or cancellation path on
// behalf of the authenticated actor.
func Transition(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorcontext.ResolveActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req transitionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseTransitionTarget(req.Target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transition target"))
			return
		}

		order, err := svc.Transition(r.Context(), internalorders.TransitionInput{
			OrderID: orderID,
			Target:  target,
			Actor:   actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Detail returns a single order after the ledger checks the actor owns it.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorcontext.ResolveActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// List returns a cursor page of order summaries scoped to the actor's role.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorcontext.ResolveActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		filters, err := buildListFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListOrders(r.Context(), actor, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "orderId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return id, nil
}

func buildListFilters(r *http.Request) (internalorders.ListFilters, error) {
	var filters internalorders.ListFilters

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("payment_status")); raw != "" {
		payment, err := enums.ParsePaymentStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status filter")
		}
		filters.PaymentStatus = &payment
	}

	vendorID, err := validators.ParseQueryUUID(r, "vendor_id")
	if err != nil {
		return filters, err
	}
	filters.VendorID = vendorID

	from, err := validators.ParseQueryDate(r, "date_from", pkgerrors.CodeValidation)
	if err != nil {
		return filters, err
	}
	filters.DateFrom = from

	to, err := validators.ParseQueryDate(r, "date_to", pkgerrors.CodeValidation)
	if err != nil {
		return filters, err
	}
	filters.DateTo = to

	return filters, nil
}
