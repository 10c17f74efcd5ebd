package enums

import "fmt"

// FulfillmentStatus tracks a single shippable unit, independent of the parent
// order's status.
type FulfillmentStatus string

const (
	FulfillmentStatusPreparing FulfillmentStatus = "preparing"
	FulfillmentStatusShipped   FulfillmentStatus = "shipped"
)

// String implements fmt.Stringer.
func (s FulfillmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known FulfillmentStatus.
func (s FulfillmentStatus) IsValid() bool {
	return s == FulfillmentStatusPreparing || s == FulfillmentStatusShipped
}

// ParseFulfillmentStatus converts raw input into a FulfillmentStatus.
func ParseFulfillmentStatus(value string) (FulfillmentStatus, error) {
	switch FulfillmentStatus(value) {
	case FulfillmentStatusPreparing:
		return FulfillmentStatusPreparing, nil
	case FulfillmentStatusShipped:
		return FulfillmentStatusShipped, nil
	default:
		return "", fmt.Errorf("invalid fulfillment status %q", value)
	}
}
