package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PaymentMethod is how the customer settles a sale. Capture happens out of band;
// the method is recorded on the receipt only.
type PaymentMethod string

const (
	PaymentMethodNone         PaymentMethod = ""
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodMobileMoney  PaymentMethod = "mobile_money"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

// PaymentMethodInfo holds the presentation attributes of a payment method
type PaymentMethodInfo struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	// OpensDrawer is true for tenders that go into the cash drawer
	OpensDrawer bool `json:"opens_drawer"`
}

var paymentMethods = map[PaymentMethod]PaymentMethodInfo{
	PaymentMethodCash:         {Label: "Cash", Icon: "banknote", OpensDrawer: true},
	PaymentMethodCard:         {Label: "Card", Icon: "credit-card"},
	PaymentMethodMobileMoney:  {Label: "Mobile Money", Icon: "smartphone"},
	PaymentMethodBankTransfer: {Label: "Bank Transfer", Icon: "landmark"},
}

// PaymentMethods lists the supported methods in display order
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		PaymentMethodCash,
		PaymentMethodCard,
		PaymentMethodMobileMoney,
		PaymentMethodBankTransfer,
	}
}

// ParsePaymentMethod resolves a wire value to a known method
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(s)
	if _, ok := paymentMethods[m]; !ok {
		return PaymentMethodNone, fmt.Errorf("unknown payment method %q", s)
	}
	return m, nil
}

func (m PaymentMethod) IsValid() bool {
	_, ok := paymentMethods[m]
	return ok
}

// Info returns the lookup-table entry; the zero value for unset or unknown methods
func (m PaymentMethod) Info() PaymentMethodInfo {
	return paymentMethods[m]
}

func (m PaymentMethod) String() string {
	if info, ok := paymentMethods[m]; ok {
		return info.Label
	}
	return "None"
}

func (m *PaymentMethod) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if str == "" {
		*m = PaymentMethodNone
		return nil
	}
	parsed, err := ParsePaymentMethod(str)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m PaymentMethod) Value() (driver.Value, error) {
	return string(m), nil
}

func (m *PaymentMethod) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*m = PaymentMethodNone
	case string:
		*m = PaymentMethod(v)
	case []byte:
		*m = PaymentMethod(v)
	default:
		return fmt.Errorf("cannot scan %T into PaymentMethod", value)
	}
	return nil
}
