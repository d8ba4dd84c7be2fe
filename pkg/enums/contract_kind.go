package enums

import "fmt"

// ContractKind distinguishes which contract table a payment row belongs to.
type ContractKind string

const (
	ContractKindDeposit  ContractKind = "DEPOSIT"
	ContractKindPurchase ContractKind = "PURCHASE"
)

var validContractKinds = []ContractKind{
	ContractKindDeposit,
	ContractKindPurchase,
}

// String implements fmt.Stringer.
func (c ContractKind) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ContractKind.
func (c ContractKind) IsValid() bool {
	for _, candidate := range validContractKinds {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseContractKind converts raw input into a ContractKind.
func ParseContractKind(value string) (ContractKind, error) {
	for _, candidate := range validContractKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid contract kind %q", value)
}
