package enums

import "fmt"

// PaymentType classifies a ledger entry.
type PaymentType string

const (
	PaymentTypeDeposit     PaymentType = "DEPOSIT"
	PaymentTypeAdvance     PaymentType = "ADVANCE"
	PaymentTypeInstallment PaymentType = "INSTALLMENT"
	PaymentTypeFullPay     PaymentType = "FULL_PAY"
	PaymentTypeMonthly     PaymentType = "MONTHLY"
	PaymentTypePenalty     PaymentType = "PENALTY"
	PaymentTypeMoneySale   PaymentType = "MONEY_SALE"
	PaymentTypeMoneyRental PaymentType = "MONEY_RENTAL"
	PaymentTypeSalary      PaymentType = "SALARY"
	PaymentTypeBonus       PaymentType = "BONUS"
	PaymentTypeServiceFee  PaymentType = "SERVICE_FEE"
)

var validPaymentTypes = []PaymentType{
	PaymentTypeDeposit,
	PaymentTypeAdvance,
	PaymentTypeInstallment,
	PaymentTypeFullPay,
	PaymentTypeMonthly,
	PaymentTypePenalty,
	PaymentTypeMoneySale,
	PaymentTypeMoneyRental,
	PaymentTypeSalary,
	PaymentTypeBonus,
	PaymentTypeServiceFee,
}

// String implements fmt.Stringer.
func (p PaymentType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentType.
func (p PaymentType) IsValid() bool {
	for _, candidate := range validPaymentTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentType converts raw input into a PaymentType.
func ParsePaymentType(value string) (PaymentType, error) {
	for _, candidate := range validPaymentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment type %q", value)
}
