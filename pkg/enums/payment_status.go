package enums

import "fmt"

// PaymentStatus tracks the lifecycle of a payment. SYSTEM_* variants mark
// entries created by automation rather than a person; business logic treats
// them the same as their plain counterparts.
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "PENDING"
	PaymentStatusSuccess       PaymentStatus = "SUCCESS"
	PaymentStatusFailed        PaymentStatus = "FAILED"
	PaymentStatusSystemPending PaymentStatus = "SYSTEM_PENDING"
	PaymentStatusSystemSuccess PaymentStatus = "SYSTEM_SUCCESS"
	PaymentStatusSystemFailed  PaymentStatus = "SYSTEM_FAILED"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusSuccess,
	PaymentStatusFailed,
	PaymentStatusSystemPending,
	PaymentStatusSystemSuccess,
	PaymentStatusSystemFailed,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// Semantic collapses SYSTEM_* variants onto their plain counterparts.
func (p PaymentStatus) Semantic() PaymentStatus {
	switch p {
	case PaymentStatusSystemPending:
		return PaymentStatusPending
	case PaymentStatusSystemSuccess:
		return PaymentStatusSuccess
	case PaymentStatusSystemFailed:
		return PaymentStatusFailed
	}
	return p
}

// IsSystem reports whether the entry was created by automation.
func (p PaymentStatus) IsSystem() bool {
	return p != p.Semantic()
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
