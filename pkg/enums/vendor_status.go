package enums

import "fmt"

// VendorStatus is the platform approval state of a vendor.
type VendorStatus string

const (
	VendorStatusPending   VendorStatus = "pending"
	VendorStatusApproved  VendorStatus = "approved"
	VendorStatusSuspended VendorStatus = "suspended"
)

var validVendorStatuses = []VendorStatus{
	VendorStatusPending,
	VendorStatusApproved,
	VendorStatusSuspended,
}

// String implements fmt.Stringer.
func (v VendorStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VendorStatus.
func (v VendorStatus) IsValid() bool {
	for _, candidate := range validVendorStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVendorStatus converts raw input into a VendorStatus.
func ParseVendorStatus(value string) (VendorStatus, error) {
	for _, candidate := range validVendorStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vendor status %q", value)
}
