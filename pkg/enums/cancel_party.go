package enums

import "fmt"

// CancelParty identifies which side initiated a contract cancellation.
type CancelParty string

const (
	CancelPartyCustomer CancelParty = "CUSTOMER"
	CancelPartyOwner    CancelParty = "OWNER"
)

var validCancelParties = []CancelParty{
	CancelPartyCustomer,
	CancelPartyOwner,
}

// String implements fmt.Stringer.
func (c CancelParty) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CancelParty.
func (c CancelParty) IsValid() bool {
	for _, candidate := range validCancelParties {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCancelParty converts raw input into a CancelParty.
func ParseCancelParty(value string) (CancelParty, error) {
	for _, candidate := range validCancelParties {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cancel party %q", value)
}
