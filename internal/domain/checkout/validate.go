package checkout

import (
	"github.com/sangkips/investify-pos/internal/domain/cart"
	"github.com/sangkips/investify-pos/pkg/apperror"
)

// ValidateForCommit rejects snapshots the commit engine must never see
func ValidateForCommit(snap cart.Snapshot) error {
	var fieldErrors []apperror.FieldError
	if snap.IsEmpty() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "lines", Message: "cart is empty"})
	}
	if !snap.PaymentMethod.IsValid() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "payment_method", Message: "payment method is required"})
	}
	for _, l := range snap.Lines {
		if l.Quantity <= 0 {
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: "lines." + l.ItemID.String(), Message: "quantity must be positive"})
		}
	}
	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}
