package checkout

import (
	"github.com/sangkips/investify-pos/internal/domain/enum"
)

// Redirect reasons reported by the guard
const (
	ReasonCartEmpty        = "cart_empty"
	ReasonPaymentMissing   = "payment_method_missing"
	ReasonNoCompletedSale  = "no_completed_sale"
	ReasonCommitInProgress = "commit_in_progress"
)

// Transition is the guard's answer to a navigation request
type Transition struct {
	Requested  enum.CheckoutStep `json:"requested"`
	Step       enum.CheckoutStep `json:"step"`
	Redirected bool              `json:"redirected"`
	Reason     string            `json:"reason,omitempty"`
}

// precondition returns the step to fall back to and why, or ok=true when the
// flow may stay on the step
type precondition func(f *Flow) (fallback enum.CheckoutStep, reason string, ok bool)

func requireLines(f *Flow) (enum.CheckoutStep, string, bool) {
	if f.Session == nil || f.Session.IsEmpty() {
		return enum.CheckoutStepSelectingProducts, ReasonCartEmpty, false
	}
	return "", "", true
}

func requirePayment(f *Flow) (enum.CheckoutStep, string, bool) {
	if !f.Session.HasPaymentMethod() {
		return enum.CheckoutStepSettingPayment, ReasonPaymentMissing, false
	}
	return "", "", true
}

func requireCompletedSale(f *Flow) (enum.CheckoutStep, string, bool) {
	if f.LastReceiptID == nil {
		return enum.CheckoutStepReviewing, ReasonNoCompletedSale, false
	}
	return "", "", true
}

// Guard decides which step a flow may render. Entry conditions are evaluated
// on every entry, so direct navigation is held to the same rules as stepping
// forward.
type Guard struct {
	nextReceiptNumber func() string
	rules             map[enum.CheckoutStep][]precondition
}

// NewGuard creates a guard that draws receipt numbers from next
func NewGuard(next func() string) *Guard {
	return &Guard{
		nextReceiptNumber: next,
		rules: map[enum.CheckoutStep][]precondition{
			enum.CheckoutStepSelectingProducts: nil,
			enum.CheckoutStepSettingPayment:    {requireLines},
			enum.CheckoutStepSelectingCustomer: {requireLines},
			enum.CheckoutStepReviewing:         {requireLines, requirePayment},
			enum.CheckoutStepCompleted:         {requireCompletedSale},
		},
	}
}

// Enter moves the flow to the requested step or to the nearest earlier step
// whose conditions hold. Entering review assigns the receipt number once.
// While a commit is in flight the flow stays where it is.
func (g *Guard) Enter(f *Flow, requested enum.CheckoutStep) Transition {
	t := Transition{Requested: requested}

	if f.Committing {
		t.Step = f.Step
		t.Redirected = requested != f.Step
		if t.Redirected {
			t.Reason = ReasonCommitInProgress
		}
		return t
	}

	step := requested
	for {
		fallback, reason, ok := g.check(f, step)
		if ok {
			break
		}
		if t.Reason == "" {
			t.Reason = reason
		}
		step = fallback
	}

	t.Step = step
	t.Redirected = step != requested
	f.Step = step

	if step == enum.CheckoutStepReviewing && f.ReceiptNumber == "" {
		f.ReceiptNumber = g.nextReceiptNumber()
	}
	return t
}

// Resolve re-checks the current step, typically after a mutation such as
// clearing the cart
func (g *Guard) Resolve(f *Flow) Transition {
	return g.Enter(f, f.Step)
}

func (g *Guard) check(f *Flow, step enum.CheckoutStep) (enum.CheckoutStep, string, bool) {
	for _, rule := range g.rules[step] {
		if fallback, reason, ok := rule(f); !ok {
			return fallback, reason, false
		}
	}
	return "", "", true
}
