package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mensahub/canteen-backend/api/responses"
	internalorders "github.com/mensahub/canteen-backend/internal/orders"
	"github.com/mensahub/canteen-backend/pkg/db/models"
	"github.com/mensahub/canteen-backend/pkg/enums"
	pkgerrors "github.com/mensahub/canteen-backend/pkg/errors"
	"github.com/mensahub/canteen-backend/pkg/logger"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body keyed
// with the shared webhook secret.
const SignatureHeader = "X-MensaHub-Signature"

type paymentEvent struct {
	EventID string `json:"event_id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type transitionService interface {
	Transition(ctx context.Context, input internalorders.TransitionInput) (*models.Order, error)
}

// IdempotencyGuard deduplicates webhook deliveries by event id.
type IdempotencyGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Unmark(ctx context.Context, eventID string) error
}

// PaymentWebhook applies paid/refunded confirmations from the payment
// provider. It is the only channel allowed to move the payment axis.
func PaymentWebhook(svc transitionService, guard IdempotencyGuard, secret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		if secret == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook secret not configured"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := r.Header.Get(SignatureHeader)
		if signature == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature missing"))
			return
		}
		if !validateSignature(payload, secret, signature) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature mismatch"))
			return
		}

		var event paymentEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode event"))
			return
		}

		orderID, err := uuid.Parse(event.OrderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}
		target, err := enums.ParseTransitionTarget(event.Status)
		if err != nil || !target.IsPaymentTarget() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "status must be paid or refunded"))
			return
		}

		eventID := strings.TrimSpace(event.EventID)
		if guard != nil && eventID != "" {
			alreadyProcessed, err := guard.CheckAndMark(ctx, eventID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if alreadyProcessed {
				responses.WriteSuccess(w, nil)
				return
			}
		}

		order, err := svc.Transition(ctx, internalorders.TransitionInput{
			OrderID: orderID,
			Target:  target,
			Actor:   internalorders.Actor{Role: enums.ActorRolePaymentWebhook},
		})
		if err != nil {
			if guard != nil && eventID != "" {
				_ = guard.Unmark(ctx, eventID)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("payment event %s applied to order %s", eventID, order.ID))
		}
		responses.WriteSuccess(w, nil)
	}
}

func validateSignature(payload []byte, secret, header string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(header)))
}
