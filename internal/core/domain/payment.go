package domain

import (
	"fmt"
	"strings"
)

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "Cash On Delivery"
	PaymentWireTransfer   PaymentMethod = "Wire Transfer"
)

var PaymentMethods = []PaymentMethod{PaymentCashOnDelivery, PaymentWireTransfer}

func (p PaymentMethod) Valid() bool {
	return p == PaymentCashOnDelivery || p == PaymentWireTransfer
}

// ParsePaymentMethod matches value case-insensitively against the known
// methods and returns the canonical spelling. The empty string clears the
// selection.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	if value == "" {
		return "", nil
	}
	for _, method := range PaymentMethods {
		if strings.EqualFold(value, string(method)) {
			return method, nil
		}
	}
	return "", fmt.Errorf("%w: payment method %q", ErrInvalidChoice, value)
}
