package enums

import "fmt"

// TransitionTarget names the state a transition request wants to reach.
// It covers both axes: order statuses and the two payment targets the
// payment collaborator may request. "unpaid" is never a target; it is only
// the initial payment state.
type TransitionTarget string

const (
	TargetConfirmed TransitionTarget = "confirmed"
	TargetPreparing TransitionTarget = "preparing"
	TargetReady     TransitionTarget = "ready"
	TargetCompleted TransitionTarget = "completed"
	TargetCancelled TransitionTarget = "cancelled"
	TargetPaid      TransitionTarget = "paid"
	TargetRefunded  TransitionTarget = "refunded"
)

var validTransitionTargets = []TransitionTarget{
	TargetConfirmed,
	TargetPreparing,
	TargetReady,
	TargetCompleted,
	TargetCancelled,
	TargetPaid,
	TargetRefunded,
}

// String implements fmt.Stringer.
func (t TransitionTarget) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TransitionTarget.
func (t TransitionTarget) IsValid() bool {
	for _, candidate := range validTransitionTargets {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsPaymentTarget reports whether the target belongs to the payment axis.
func (t TransitionTarget) IsPaymentTarget() bool {
	return t == TargetPaid || t == TargetRefunded
}

// OrderStatus returns the order status a non-payment target maps to.
func (t TransitionTarget) OrderStatus() (OrderStatus, bool) {
	if t.IsPaymentTarget() {
		return "", false
	}
	status := OrderStatus(t)
	return status, status.IsValid()
}

// ParseTransitionTarget converts raw input into a TransitionTarget.
func ParseTransitionTarget(value string) (TransitionTarget, error) {
	for _, candidate := range validTransitionTargets {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transition target %q", value)
}
