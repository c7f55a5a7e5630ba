package checkout

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/shopspring/decimal"
)

type counter struct{ n int }

func (c *counter) next() string {
	c.n++
	return fmt.Sprintf("RCP-TEST-%05d", c.n)
}

func newFlowWithLine(t *testing.T) *Flow {
	t.Helper()
	f := NewFlow(uuid.New(), uuid.New(), time.Now())
	p := &entity.Product{ID: uuid.New(), Name: "Tea", UnitPrice: decimal.NewFromInt(120), Stock: 5}
	if _, err := f.Session.AddLine(p, 1); err != nil {
		t.Fatalf("add line: %v", err)
	}
	return f
}

func TestEmptyCartRedirectsFromReviewScenarioB(t *testing.T) {
	g := NewGuard((&counter{}).next)
	f := NewFlow(uuid.New(), uuid.New(), time.Now())

	tr := g.Enter(f, enum.CheckoutStepReviewing)

	if tr.Step != enum.CheckoutStepSelectingProducts || !tr.Redirected {
		t.Fatalf("expected redirect to selecting_products, got %+v", tr)
	}
	if tr.Reason != ReasonCartEmpty {
		t.Errorf("expected reason %s, got %s", ReasonCartEmpty, tr.Reason)
	}
	if f.ReceiptNumber != "" {
		t.Error("receipt number must not be assigned on a redirect")
	}
}

func TestMissingPaymentRedirectsFromReviewScenarioC(t *testing.T) {
	g := NewGuard((&counter{}).next)
	f := newFlowWithLine(t)

	tr := g.Enter(f, enum.CheckoutStepReviewing)

	if tr.Step != enum.CheckoutStepSettingPayment || tr.Reason != ReasonPaymentMissing {
		t.Fatalf("expected redirect to setting_payment, got %+v", tr)
	}
	if f.Step != enum.CheckoutStepSettingPayment {
		t.Errorf("flow step should follow the redirect, got %s", f.Step)
	}
}

func TestStepsRequiringLines(t *testing.T) {
	g := NewGuard((&counter{}).next)
	for _, step := range []enum.CheckoutStep{enum.CheckoutStepSettingPayment, enum.CheckoutStepSelectingCustomer} {
		f := NewFlow(uuid.New(), uuid.New(), time.Now())
		if tr := g.Enter(f, step); tr.Step != enum.CheckoutStepSelectingProducts {
			t.Errorf("%s: expected redirect to selecting_products, got %s", step, tr.Step)
		}

		f = newFlowWithLine(t)
		if tr := g.Enter(f, step); tr.Redirected {
			t.Errorf("%s: expected to stay, got %+v", step, tr)
		}
	}
}

func TestWalkInCanReview(t *testing.T) {
	g := NewGuard((&counter{}).next)
	f := newFlowWithLine(t)
	_ = f.Session.SetPaymentMethod(enum.PaymentMethodCash)

	tr := g.Enter(f, enum.CheckoutStepReviewing)
	if tr.Redirected || f.Session.CustomerID() != nil {
		t.Fatalf("expected walk-in sale to reach review, got %+v", tr)
	}
}

func TestReviewReusesReceiptNumber(t *testing.T) {
	c := &counter{}
	g := NewGuard(c.next)
	f := newFlowWithLine(t)
	_ = f.Session.SetPaymentMethod(enum.PaymentMethodCard)

	g.Enter(f, enum.CheckoutStepReviewing)
	first := f.ReceiptNumber
	g.Enter(f, enum.CheckoutStepSelectingCustomer)
	g.Enter(f, enum.CheckoutStepReviewing)
	g.Enter(f, enum.CheckoutStepReviewing)

	if first == "" || f.ReceiptNumber != first {
		t.Errorf("expected receipt number %q to be reused, got %q", first, f.ReceiptNumber)
	}
	if c.n != 1 {
		t.Errorf("expected one generated number, got %d", c.n)
	}
}

func TestCompletedRequiresCommittedSale(t *testing.T) {
	g := NewGuard((&counter{}).next)
	f := newFlowWithLine(t)
	_ = f.Session.SetPaymentMethod(enum.PaymentMethodCash)

	tr := g.Enter(f, enum.CheckoutStepCompleted)
	if tr.Step != enum.CheckoutStepReviewing || tr.Reason != ReasonNoCompletedSale {
		t.Fatalf("expected redirect to reviewing, got %+v", tr)
	}

	f.Complete(uuid.New(), time.Now())
	tr = g.Enter(f, enum.CheckoutStepCompleted)
	if tr.Redirected {
		t.Errorf("expected completed to be reachable after commit, got %+v", tr)
	}
	if !f.Session.IsEmpty() || f.ReceiptNumber != "" {
		t.Error("completing must reset the session and receipt number")
	}
}

func TestNavigationFrozenWhileCommitting(t *testing.T) {
	g := NewGuard((&counter{}).next)
	f := newFlowWithLine(t)
	_ = f.Session.SetPaymentMethod(enum.PaymentMethodCash)
	g.Enter(f, enum.CheckoutStepReviewing)
	f.Committing = true

	tr := g.Enter(f, enum.CheckoutStepSelectingProducts)
	if tr.Step != enum.CheckoutStepReviewing || tr.Reason != ReasonCommitInProgress {
		t.Errorf("expected flow to stay on review, got %+v", tr)
	}
}

func TestResolveAfterClearingCart(t *testing.T) {
	g := NewGuard((&counter{}).next)
	f := newFlowWithLine(t)
	_ = f.Session.SetPaymentMethod(enum.PaymentMethodCash)
	g.Enter(f, enum.CheckoutStepReviewing)

	f.Session.Clear()
	tr := g.Resolve(f)
	if tr.Step != enum.CheckoutStepSelectingProducts {
		t.Errorf("expected selecting_products after clearing, got %s", tr.Step)
	}
}

func TestCancelKeepsTaxRate(t *testing.T) {
	f := newFlowWithLine(t)
	_ = f.Session.SetTaxRate(decimal.NewFromInt(16))
	f.ReceiptNumber = "RCP-1"

	f.Cancel(time.Now())

	if !f.Session.IsEmpty() || f.ReceiptNumber != "" || f.Step != enum.CheckoutStepSelectingProducts {
		t.Errorf("cancel did not reset the flow: %+v", f)
	}
	if !f.Session.TaxRate().Equal(decimal.NewFromInt(16)) {
		t.Errorf("expected tax rate to carry over, got %s", f.Session.TaxRate())
	}
}

func TestFlowJSONRoundTrip(t *testing.T) {
	f := newFlowWithLine(t)
	_ = f.Session.SetPaymentMethod(enum.PaymentMethodMobileMoney)

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored Flow
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restored.ID != f.ID || len(restored.Session.Lines()) != 1 {
		t.Errorf("flow did not survive a round trip: %+v", restored)
	}
	if !restored.Session.Totals().Total.Equal(f.Session.Totals().Total) {
		t.Errorf("expected total %s, got %s", f.Session.Totals().Total, restored.Session.Totals().Total)
	}
}

func TestValidateForCommit(t *testing.T) {
	f := NewFlow(uuid.New(), uuid.New(), time.Now())
	err := ValidateForCommit(f.Session.Snapshot())
	appErr := apperror.GetAppError(err)
	if appErr.Kind != apperror.KindValidation || len(appErr.Errors) != 2 {
		t.Fatalf("expected two field errors, got %+v", appErr)
	}

	f = newFlowWithLine(t)
	_ = f.Session.SetPaymentMethod(enum.PaymentMethodCash)
	if err := ValidateForCommit(f.Session.Snapshot()); err != nil {
		t.Errorf("expected valid snapshot, got %v", err)
	}
}
