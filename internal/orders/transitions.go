package orders

import (
	"github.com/mensahub/canteen-backend/pkg/enums"
	pkgerrors "github.com/mensahub/canteen-backend/pkg/errors"
)

// Decision is the (status, payment status) pair a legal transition produces.
type Decision struct {
	Status        enums.OrderStatus
	PaymentStatus enums.PaymentStatus
}

type statusEdge struct {
	from enums.OrderStatus
	to   enums.OrderStatus
}

// statusEdges is the full fulfillment transition table. Edges absent here are
// illegal for every actor role.
var statusEdges = map[statusEdge]struct{}{
	{enums.OrderStatusPending, enums.OrderStatusConfirmed}:   {},
	{enums.OrderStatusConfirmed, enums.OrderStatusPreparing}: {},
	{enums.OrderStatusPreparing, enums.OrderStatusReady}:     {},
	{enums.OrderStatusReady, enums.OrderStatusCompleted}:     {},
	{enums.OrderStatusPending, enums.OrderStatusCancelled}:   {},
	{enums.OrderStatusConfirmed, enums.OrderStatusCancelled}: {},
	{enums.OrderStatusPreparing, enums.OrderStatusCancelled}: {},
}

// edgeActors is the single authorization table keyed by transition edge.
// Customers may only abandon an order that has not been confirmed yet; staff
// roles drive the rest of the fulfillment path.
var edgeActors = map[statusEdge]map[enums.ActorRole]struct{}{
	{enums.OrderStatusPending, enums.OrderStatusConfirmed}:   staffOnly,
	{enums.OrderStatusConfirmed, enums.OrderStatusPreparing}: staffOnly,
	{enums.OrderStatusPreparing, enums.OrderStatusReady}:     staffOnly,
	{enums.OrderStatusReady, enums.OrderStatusCompleted}:     staffOnly,
	{enums.OrderStatusPending, enums.OrderStatusCancelled}:   staffAndCustomer,
	{enums.OrderStatusConfirmed, enums.OrderStatusCancelled}: staffOnly,
	{enums.OrderStatusPreparing, enums.OrderStatusCancelled}: staffOnly,
}

var staffOnly = map[enums.ActorRole]struct{}{
	enums.ActorRoleVendor: {},
	enums.ActorRoleAdmin:  {},
}

var staffAndCustomer = map[enums.ActorRole]struct{}{
	enums.ActorRoleCustomer: {},
	enums.ActorRoleVendor:   {},
	enums.ActorRoleAdmin:    {},
}

// Decide validates a transition request against the current (status, payment
// status) pair and returns the pair a successful write must produce. It is
// pure: persistence and concurrency control stay with the caller.
func Decide(status enums.OrderStatus, payment enums.PaymentStatus, target enums.TransitionTarget, role enums.ActorRole) (Decision, error) {
	if target.IsPaymentTarget() {
		return decidePayment(status, payment, target, role)
	}

	next, ok := target.OrderStatus()
	if !ok {
		return Decision{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown transition target").
			WithDetails(map[string]any{"target": target})
	}

	edge := statusEdge{from: status, to: next}
	if _, ok := statusEdges[edge]; !ok {
		return Decision{}, pkgerrors.New(pkgerrors.CodeInvalidTransition, "no such transition from current status").
			WithDetails(map[string]any{"from": status, "to": next})
	}
	allowed, ok := edgeActors[edge]
	if !ok {
		return Decision{}, pkgerrors.New(pkgerrors.CodeInvalidTransition, "no such transition from current status").
			WithDetails(map[string]any{"from": status, "to": next})
	}
	if _, ok := allowed[role]; !ok {
		return Decision{}, pkgerrors.New(pkgerrors.CodeForbidden, "actor role may not perform this transition").
			WithDetails(map[string]any{"role": role, "from": status, "to": next})
	}

	return Decision{Status: next, PaymentStatus: payment}, nil
}

func decidePayment(status enums.OrderStatus, payment enums.PaymentStatus, target enums.TransitionTarget, role enums.ActorRole) (Decision, error) {
	if role != enums.ActorRolePaymentWebhook {
		return Decision{}, pkgerrors.New(pkgerrors.CodeForbidden, "only the payment collaborator may change payment status").
			WithDetails(map[string]any{"role": role, "target": target})
	}

	switch target {
	case enums.TargetPaid:
		if payment != enums.PaymentStatusUnpaid {
			return Decision{}, pkgerrors.New(pkgerrors.CodeInvalidTransition, "order is not awaiting payment").
				WithDetails(map[string]any{"payment_status": payment})
		}
		return Decision{Status: status, PaymentStatus: enums.PaymentStatusPaid}, nil

	case enums.TargetRefunded:
		if payment != enums.PaymentStatusPaid {
			return Decision{}, pkgerrors.New(pkgerrors.CodeInvalidTransition, "only paid orders can be refunded").
				WithDetails(map[string]any{"payment_status": payment})
		}
		if status != enums.OrderStatusCancelled && status != enums.OrderStatusCompleted {
			return Decision{}, pkgerrors.New(pkgerrors.CodeInvalidTransition, "refund requires a cancelled or completed order").
				WithDetails(map[string]any{"status": status})
		}
		return Decision{Status: status, PaymentStatus: enums.PaymentStatusRefunded}, nil

	default:
		return Decision{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown transition target").
			WithDetails(map[string]any{"target": target})
	}
}
