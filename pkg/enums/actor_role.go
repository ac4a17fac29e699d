package enums

import "fmt"

// ActorRole identifies who is asking for an order operation.
type ActorRole string

const (
	ActorRoleCustomer       ActorRole = "customer"
	ActorRoleVendor         ActorRole = "vendor"
	ActorRoleAdmin          ActorRole = "admin"
	ActorRolePaymentWebhook ActorRole = "payment_webhook"
)

var validActorRoles = []ActorRole{
	ActorRoleCustomer,
	ActorRoleVendor,
	ActorRoleAdmin,
	ActorRolePaymentWebhook,
}

// String implements fmt.Stringer.
func (a ActorRole) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActorRole.
func (a ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
