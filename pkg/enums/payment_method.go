package enums

import "fmt"

// PaymentMethod discriminates how an order is paid.
type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentMethodGatewayCard    PaymentMethod = "gateway_card"
	PaymentMethodGatewayWallet  PaymentMethod = "gateway_wallet"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCashOnDelivery,
	PaymentMethodGatewayCard,
	PaymentMethodGatewayWallet,
}

// String implements fmt.Stringer.
func (m PaymentMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is a known PaymentMethod.
func (m PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// IsGateway reports whether the method settles through the payment gateway
// rather than on delivery.
func (m PaymentMethod) IsGateway() bool {
	return m == PaymentMethodGatewayCard || m == PaymentMethodGatewayWallet
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
