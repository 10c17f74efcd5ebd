package enums

// NotificationKind labels outbound notification events.
type NotificationKind string

const (
	NotificationOrderConfirmed NotificationKind = "order.confirmed"
	NotificationAdminAlert     NotificationKind = "order.admin_alert"
	NotificationUnitShipped    NotificationKind = "fulfillment.shipped"
)

// String implements fmt.Stringer.
func (k NotificationKind) String() string {
	return string(k)
}
