package enum

import (
	"encoding/json"
	"fmt"
)

// CheckoutStep is a state of the POS checkout flow
type CheckoutStep string

const (
	CheckoutStepSelectingProducts CheckoutStep = "selecting_products"
	CheckoutStepSettingPayment    CheckoutStep = "setting_payment"
	CheckoutStepSelectingCustomer CheckoutStep = "selecting_customer"
	CheckoutStepReviewing         CheckoutStep = "reviewing"
	CheckoutStepCompleted         CheckoutStep = "completed"
)

var checkoutStepOrder = map[CheckoutStep]int{
	CheckoutStepSelectingProducts: 0,
	CheckoutStepSettingPayment:    1,
	CheckoutStepSelectingCustomer: 2,
	CheckoutStepReviewing:         3,
	CheckoutStepCompleted:         4,
}

// ParseCheckoutStep resolves a wire or path value to a step
func ParseCheckoutStep(s string) (CheckoutStep, error) {
	step := CheckoutStep(s)
	if _, ok := checkoutStepOrder[step]; !ok {
		return "", fmt.Errorf("unknown checkout step %q", s)
	}
	return step, nil
}

func (s CheckoutStep) IsValid() bool {
	_, ok := checkoutStepOrder[s]
	return ok
}

// Before reports whether s comes earlier in the flow than other
func (s CheckoutStep) Before(other CheckoutStep) bool {
	return checkoutStepOrder[s] < checkoutStepOrder[other]
}

func (s CheckoutStep) String() string {
	return string(s)
}

func (s *CheckoutStep) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseCheckoutStep(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
