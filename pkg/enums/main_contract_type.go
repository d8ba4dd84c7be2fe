package enums

import "fmt"

// MainContractType declares which kind of main contract a deposit leads to.
type MainContractType string

const (
	MainContractTypePurchase MainContractType = "PURCHASE"
	MainContractTypeRental   MainContractType = "RENTAL"
)

var validMainContractTypes = []MainContractType{
	MainContractTypePurchase,
	MainContractTypeRental,
}

// String implements fmt.Stringer.
func (m MainContractType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MainContractType.
func (m MainContractType) IsValid() bool {
	for _, candidate := range validMainContractTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMainContractType converts raw input into a MainContractType.
func ParseMainContractType(value string) (MainContractType, error) {
	for _, candidate := range validMainContractTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid main contract type %q", value)
}
