package enums

import "fmt"

// ContractStatus tracks the lifecycle shared by deposit and purchase contracts.
type ContractStatus string

const (
	ContractStatusDraft           ContractStatus = "DRAFT"
	ContractStatusPendingPayment  ContractStatus = "PENDING_PAYMENT"
	ContractStatusWaitingOfficial ContractStatus = "WAITING_OFFICIAL"
	ContractStatusActive          ContractStatus = "ACTIVE"
	ContractStatusCompleted       ContractStatus = "COMPLETED"
	ContractStatusCancelled       ContractStatus = "CANCELLED"
	ContractStatusVoided          ContractStatus = "VOIDED"
)

var validContractStatuses = []ContractStatus{
	ContractStatusDraft,
	ContractStatusPendingPayment,
	ContractStatusWaitingOfficial,
	ContractStatusActive,
	ContractStatusCompleted,
	ContractStatusCancelled,
	ContractStatusVoided,
}

// String implements fmt.Stringer.
func (c ContractStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ContractStatus.
func (c ContractStatus) IsValid() bool {
	for _, candidate := range validContractStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (c ContractStatus) IsTerminal() bool {
	switch c {
	case ContractStatusCompleted, ContractStatusCancelled, ContractStatusVoided:
		return true
	}
	return false
}

// ParseContractStatus converts raw input into a ContractStatus.
func ParseContractStatus(value string) (ContractStatus, error) {
	for _, candidate := range validContractStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid contract status %q", value)
}
