package contracts

import (
	"github.com/google/uuid"

	pkgerrors "github.com/OneKeyCoder/batdongscam-backend/pkg/errors"
)

// FieldViolation names a single rejected field. A draft is checked field by
// field and every violation is reported, not just the first one hit.
type FieldViolation struct {
	Field   string           `json:"field"`
	Reason  pkgerrors.Reason `json:"reason"`
	Message string           `json:"message"`
}

// ApplyDepositDefaults fills the optional deposit fields that have documented
// defaults. CancellationPenalty falls back to DepositAmount when the caller
// leaves it unset.
func ApplyDepositDefaults(d *DepositDraft) {
	if d.CancellationPenalty == nil {
		penalty := d.DepositAmount
		d.CancellationPenalty = &penalty
	}
}

// ValidateDepositDraft checks a deposit draft against the creation rules and
// returns all violations found.
func ValidateDepositDraft(d DepositDraft) []FieldViolation {
	var violations []FieldViolation
	if d.PropertyID == uuid.Nil {
		violations = append(violations, missingField("propertyId"))
	}
	if d.CustomerID == uuid.Nil {
		violations = append(violations, missingField("customerId"))
	}
	if !d.DepositAmount.IsPositive() {
		violations = append(violations, nonPositive("depositAmount"))
	}
	if !d.AgreedPrice.IsPositive() {
		violations = append(violations, nonPositive("agreedPrice"))
	}
	if d.CancellationPenalty != nil && !d.CancellationPenalty.IsPositive() {
		violations = append(violations, nonPositive("cancellationPenalty"))
	}
	if d.StartDate.IsZero() {
		violations = append(violations, missingField("startDate"))
	}
	return violations
}

// ValidatePurchaseDraft checks a purchase draft against the creation rules
// and returns all violations found. Commission must stay strictly below the
// property value; a commission equal to the full price is rejected.
func ValidatePurchaseDraft(d PurchaseDraft) []FieldViolation {
	var violations []FieldViolation
	if d.PropertyID == uuid.Nil {
		violations = append(violations, missingField("propertyId"))
	}
	if d.CustomerID == uuid.Nil {
		violations = append(violations, missingField("customerId"))
	}
	if !d.PropertyValue.IsPositive() {
		violations = append(violations, nonPositive("propertyValue"))
	}
	if d.AdvancePaymentAmount.IsNegative() {
		violations = append(violations, FieldViolation{
			Field:   "advancePaymentAmount",
			Reason:  pkgerrors.ReasonNonPositiveAmount,
			Message: "advancePaymentAmount must not be negative",
		})
	}
	if d.CommissionAmount.IsNegative() {
		violations = append(violations, FieldViolation{
			Field:   "commissionAmount",
			Reason:  pkgerrors.ReasonNonPositiveAmount,
			Message: "commissionAmount must not be negative",
		})
	} else if d.PropertyValue.IsPositive() && d.CommissionAmount.GreaterThanOrEqual(d.PropertyValue) {
		violations = append(violations, FieldViolation{
			Field:   "commissionAmount",
			Reason:  pkgerrors.ReasonInvalidCommission,
			Message: "commissionAmount must be strictly less than propertyValue",
		})
	}
	if d.StartDate.IsZero() {
		violations = append(violations, missingField("startDate"))
	}
	return violations
}

func missingField(field string) FieldViolation {
	return FieldViolation{
		Field:   field,
		Reason:  pkgerrors.ReasonMissingRequiredField,
		Message: field + " is required",
	}
}

func nonPositive(field string) FieldViolation {
	return FieldViolation{
		Field:   field,
		Reason:  pkgerrors.ReasonNonPositiveAmount,
		Message: field + " must be greater than zero",
	}
}

// violationsError folds a non-empty violation list into a single validation
// error. The reason of the first violation is promoted onto the error so
// single-field rejections stay machine readable.
func violationsError(violations []FieldViolation) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, "contract draft failed validation").
		WithReason(violations[0].Reason).
		WithDetails(violations)
}
