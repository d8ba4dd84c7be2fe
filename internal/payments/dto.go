package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/OneKeyCoder/batdongscam-backend/pkg/enums"
)

// Actor identifies the authenticated caller performing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.MemberRole
}

// RecordPaymentInput is a manually recorded ledger entry.
type RecordPaymentInput struct {
	ContractID  uuid.UUID
	Kind        enums.ContractKind
	PaymentType enums.PaymentType
	Amount      decimal.Decimal
	DueDate     time.Time
	PayerID     *uuid.UUID
	PayeeID     *uuid.UUID
	Note        *string
}

// SettlementOutcome is the terminal result of a settlement attempt.
type SettlementOutcome string

const (
	SettlementSuccess SettlementOutcome = "success"
	SettlementFailure SettlementOutcome = "failure"
)

// SettlementInput records the outcome of one payment.
type SettlementInput struct {
	PaymentID uuid.UUID
	PaidTime  time.Time
	Outcome   SettlementOutcome
	Actor     Actor
}

// PaymentFilters describe the inputs supported by the payment list.
type PaymentFilters struct {
	ContractID  *uuid.UUID
	Kind        *enums.ContractKind
	Statuses    []enums.PaymentStatus
	PayerID     *uuid.UUID
	PayeeID     *uuid.UUID
	DueDateFrom *time.Time
	DueDateTo   *time.Time
	AmountMin   *decimal.Decimal
	AmountMax   *decimal.Decimal
}

// PaymentSummary is the row shape returned by the payment list.
type PaymentSummary struct {
	ID           uuid.UUID           `json:"id"`
	ContractID   uuid.UUID           `json:"contractId"`
	ContractType enums.ContractKind  `json:"contractType"`
	PaymentType  enums.PaymentType   `json:"paymentType"`
	Amount       decimal.Decimal     `json:"amount"`
	DueDate      time.Time           `json:"dueDate"`
	PaidTime     *time.Time          `json:"paidTime,omitempty"`
	Status       enums.PaymentStatus `json:"status"`
	PayerID      *uuid.UUID          `json:"payerId,omitempty"`
	PayeeID      *uuid.UUID          `json:"payeeId,omitempty"`
	Note         *string             `json:"note,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
}
