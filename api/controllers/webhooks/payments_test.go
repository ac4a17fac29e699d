package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	internalorders "github.com/mensahub/canteen-backend/internal/orders"
	"github.com/mensahub/canteen-backend/pkg/db/models"
	"github.com/mensahub/canteen-backend/pkg/enums"
	pkgerrors "github.com/mensahub/canteen-backend/pkg/errors"
)

const testSecret = "hook-secret"

type stubTransitionService struct {
	transition func(ctx context.Context, input internalorders.TransitionInput) (*models.Order, error)
}

func (s *stubTransitionService) Transition(ctx context.Context, input internalorders.TransitionInput) (*models.Order, error) {
	if s.transition != nil {
		return s.transition(ctx, input)
	}
	return &models.Order{ID: input.OrderID}, nil
}

type memoryGuard struct {
	seen     map[string]bool
	unmarked []string
}

func (g *memoryGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if g.seen == nil {
		g.seen = map[string]bool{}
	}
	if g.seen[eventID] {
		return true, nil
	}
	g.seen[eventID] = true
	return false, nil
}

func (g *memoryGuard) Unmark(ctx context.Context, eventID string) error {
	g.unmarked = append(g.unmarked, eventID)
	delete(g.seen, eventID)
	return nil
}

func sign(payload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func signedRequest(payload string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payments", strings.NewReader(payload))
	req.Header.Set(SignatureHeader, sign(payload, testSecret))
	return req
}

func TestPaymentWebhookAppliesPaid(t *testing.T) {
	orderID := uuid.New()
	svc := &stubTransitionService{
		transition: func(ctx context.Context, input internalorders.TransitionInput) (*models.Order, error) {
			if input.OrderID != orderID {
				t.Fatalf("unexpected order id %s", input.OrderID)
			}
			if input.Target != enums.TargetPaid {
				t.Fatalf("unexpected target %s", input.Target)
			}
			if input.Actor.Role != enums.ActorRolePaymentWebhook {
				t.Fatalf("unexpected role %s", input.Actor.Role)
			}
			return &models.Order{ID: orderID, PaymentStatus: enums.PaymentStatusPaid}, nil
		},
	}

	payload := `{"event_id":"evt-1","order_id":"` + orderID.String() + `","status":"paid"}`
	resp := httptest.NewRecorder()
	PaymentWebhook(svc, &memoryGuard{}, testSecret, nil).ServeHTTP(resp, signedRequest(payload))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestPaymentWebhookRejectsBadSignature(t *testing.T) {
	orderID := uuid.New()
	payload := `{"event_id":"evt-1","order_id":"` + orderID.String() + `","status":"paid"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payments", strings.NewReader(payload))
	req.Header.Set(SignatureHeader, sign(payload, "wrong-secret"))

	called := false
	svc := &stubTransitionService{
		transition: func(ctx context.Context, input internalorders.TransitionInput) (*models.Order, error) {
			called = true
			return nil, nil
		},
	}

	resp := httptest.NewRecorder()
	PaymentWebhook(svc, &memoryGuard{}, testSecret, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if called {
		t.Fatalf("service must not run on signature mismatch")
	}
}

func TestPaymentWebhookRejectsFulfilmentTargets(t *testing.T) {
	orderID := uuid.New()
	payload := `{"event_id":"evt-1","order_id":"` + orderID.String() + `","status":"confirmed"}`

	resp := httptest.NewRecorder()
	PaymentWebhook(&stubTransitionService{}, &memoryGuard{}, testSecret, nil).ServeHTTP(resp, signedRequest(payload))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestPaymentWebhookDeduplicatesEvents(t *testing.T) {
	orderID := uuid.New()
	calls := 0
	svc := &stubTransitionService{
		transition: func(ctx context.Context, input internalorders.TransitionInput) (*models.Order, error) {
			calls++
			return &models.Order{ID: orderID}, nil
		},
	}
	guard := &memoryGuard{}

	payload := `{"event_id":"evt-dup","order_id":"` + orderID.String() + `","status":"paid"}`
	for i := 0; i < 2; i++ {
		resp := httptest.NewRecorder()
		PaymentWebhook(svc, guard, testSecret, nil).ServeHTTP(resp, signedRequest(payload))
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", resp.Code)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one transition, got %d", calls)
	}
}

func TestPaymentWebhookUnmarksOnFailure(t *testing.T) {
	orderID := uuid.New()
	svc := &stubTransitionService{
		transition: func(ctx context.Context, input internalorders.TransitionInput) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "transition precondition lost")
		},
	}
	guard := &memoryGuard{}

	payload := `{"event_id":"evt-retry","order_id":"` + orderID.String() + `","status":"paid"}`
	resp := httptest.NewRecorder()
	PaymentWebhook(svc, guard, testSecret, nil).ServeHTTP(resp, signedRequest(payload))
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	if len(guard.unmarked) != 1 || guard.unmarked[0] != "evt-retry" {
		t.Fatalf("event mark should be released for retry, got %v", guard.unmarked)
	}
}
