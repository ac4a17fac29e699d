package actorcontext

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/mensahub/canteen-backend/api/middleware"
	"github.com/mensahub/canteen-backend/internal/orders"
	"github.com/mensahub/canteen-backend/pkg/enums"
	pkgerrors "github.com/mensahub/canteen-backend/pkg/errors"
)

// ResolveActor rebuilds the authenticated actor from the request context
// seeded by the auth middleware.
func ResolveActor(r *http.Request) (orders.Actor, error) {
	ctx := r.Context()

	rawUserID := middleware.UserIDFromContext(ctx)
	if rawUserID == "" {
		return orders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return orders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}

	role, err := enums.ParseActorRole(middleware.RoleFromContext(ctx))
	if err != nil {
		return orders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor role")
	}

	actor := orders.Actor{UserID: userID, Role: role}
	if rawVendorID := middleware.VendorIDFromContext(ctx); rawVendorID != "" {
		vendorID, err := uuid.Parse(rawVendorID)
		if err != nil {
			return orders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid vendor id")
		}
		actor.VendorID = &vendorID
	}
	return actor, nil
}
