package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateDepositContract  OutboxAggregateType = "deposit_contract"
	AggregatePurchaseContract OutboxAggregateType = "purchase_contract"
	AggregatePayment          OutboxAggregateType = "payment"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateDepositContract,
	AggregatePurchaseContract,
	AggregatePayment,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventDepositContractCreated   OutboxEventType = "deposit_contract_created"
	EventDepositContractActivated OutboxEventType = "deposit_contract_activated"
	EventDepositContractVoided    OutboxEventType = "deposit_contract_voided"
	EventPurchaseContractCreated  OutboxEventType = "purchase_contract_created"
	EventPurchaseContractUpdated  OutboxEventType = "purchase_contract_updated"
	EventPurchaseContractApproved OutboxEventType = "purchase_contract_approved"
	EventPurchaseContractOfficial OutboxEventType = "purchase_contract_official"
	EventPurchaseContractVoided   OutboxEventType = "purchase_contract_voided"
	EventContractCancelled        OutboxEventType = "contract_cancelled"
	EventContractCompleted        OutboxEventType = "contract_completed"
	EventPaymentScheduled         OutboxEventType = "payment_scheduled"
	EventPaymentSettled           OutboxEventType = "payment_settled"
	EventPaymentFailed            OutboxEventType = "payment_failed"
	EventPaymentOverdue           OutboxEventType = "payment_overdue"
)

var validOutboxEventTypes = []OutboxEventType{
	EventDepositContractCreated,
	EventDepositContractActivated,
	EventDepositContractVoided,
	EventPurchaseContractCreated,
	EventPurchaseContractUpdated,
	EventPurchaseContractApproved,
	EventPurchaseContractOfficial,
	EventPurchaseContractVoided,
	EventContractCancelled,
	EventContractCompleted,
	EventPaymentScheduled,
	EventPaymentSettled,
	EventPaymentFailed,
	EventPaymentOverdue,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
