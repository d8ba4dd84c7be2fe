package contracts

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

// DepositDraft carries the fields validated before a deposit contract is persisted.
type DepositDraft struct {
	ContractNumber      string
	PropertyID          uuid.UUID
	CustomerID          uuid.UUID
	AgentID             *uuid.UUID
	MainContractType    enums.MainContractType
	DepositAmount       decimal.Decimal
	AgreedPrice         decimal.Decimal
	CancellationPenalty *decimal.Decimal
	StartDate           time.Time
	EndDate             *time.Time
	SpecialTerms        *string
}

// PurchaseDraft carries the fields validated before a purchase contract is persisted.
type PurchaseDraft struct {
	ContractNumber       string
	PropertyID           uuid.UUID
	CustomerID           uuid.UUID
	AgentID              *uuid.UUID
	DepositContractID    *uuid.UUID
	PropertyValue        decimal.Decimal
	AdvancePaymentAmount decimal.Decimal
	CommissionAmount     decimal.Decimal
	StartDate            time.Time
	SpecialTerms         *string
}

// PurchaseUpdate carries the partial-update fields accepted while a purchase
// contract is still DRAFT. Nil fields are left untouched.
type PurchaseUpdate struct {
	PropertyValue        *decimal.Decimal
	AdvancePaymentAmount *decimal.Decimal
	CommissionAmount     *decimal.Decimal
	StartDate            *time.Time
	SpecialTerms         *string
}

// CancelInput carries the metadata recorded on a customer/owner cancellation.
type CancelInput struct {
	ContractID uuid.UUID
	Reason     string
	Party      enums.CancelParty
	Actor      Actor
}

// DepositContractFilters describe the inputs supported by the deposit contract list.
type DepositContractFilters struct {
	Search        string
	Statuses      []enums.ContractStatus
	CustomerID    *uuid.UUID
	AgentID       *uuid.UUID
	PropertyID    *uuid.UUID
	OwnerID       *uuid.UUID
	StartDateFrom *time.Time
	StartDateTo   *time.Time
	EndDateFrom   *time.Time
	EndDateTo     *time.Time
}

// PurchaseContractFilters describe the inputs supported by the purchase contract list.
type PurchaseContractFilters struct {
	Search             string
	Statuses           []enums.ContractStatus
	CustomerID         *uuid.UUID
	AgentID            *uuid.UUID
	PropertyID         *uuid.UUID
	OwnerID            *uuid.UUID
	StartDateFrom      *time.Time
	StartDateTo        *time.Time
	HasDepositContract *bool
}

// DepositContractSummary is the row shape returned by the deposit contract list.
type DepositContractSummary struct {
	ID                   uuid.UUID              `json:"id" gorm:"column:id"`
	ContractNumber       string                 `json:"contractNumber" gorm:"column:contract_number"`
	PropertyTitle        string                 `json:"propertyTitle" gorm:"column:property_title"`
	MainContractType     enums.MainContractType `json:"mainContractType" gorm:"column:main_contract_type"`
	Status               enums.ContractStatus   `json:"status" gorm:"column:status"`
	StartDate            time.Time              `json:"startDate" gorm:"column:start_date"`
	EndDate              *time.Time             `json:"endDate,omitempty" gorm:"column:end_date"`
	DepositAmount        decimal.Decimal        `json:"depositAmount" gorm:"column:deposit_amount"`
	AgreedPrice          decimal.Decimal        `json:"agreedPrice" gorm:"column:agreed_price"`
	CustomerName         string                 `json:"customerName" gorm:"column:customer_name"`
	LinkedToMainContract bool                   `json:"linkedToMainContract" gorm:"column:linked_to_main_contract"`
}

// PurchaseContractSummary is the row shape returned by the purchase contract list.
type PurchaseContractSummary struct {
	ID                   uuid.UUID            `json:"id" gorm:"column:id"`
	ContractNumber       string               `json:"contractNumber" gorm:"column:contract_number"`
	PropertyTitle        string               `json:"propertyTitle" gorm:"column:property_title"`
	Status               enums.ContractStatus `json:"status" gorm:"column:status"`
	StartDate            time.Time            `json:"startDate" gorm:"column:start_date"`
	PropertyValue        decimal.Decimal      `json:"propertyValue" gorm:"column:property_value"`
	AdvancePaymentAmount decimal.Decimal      `json:"advancePaymentAmount" gorm:"column:advance_payment_amount"`
	CommissionAmount     decimal.Decimal      `json:"commissionAmount" gorm:"column:commission_amount"`
	CustomerName         string               `json:"customerName" gorm:"column:customer_name"`
	HasDepositContract   bool                 `json:"hasDepositContract" gorm:"column:has_deposit_contract"`
}

// PartySummary is the nested user shape embedded in contract details.
type PartySummary struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
	Email    string    `json:"email"`
	Phone    *string   `json:"phone,omitempty"`
	Tier     *string   `json:"tier,omitempty"`
}

// PropertySummary is the nested property shape embedded in contract details.
type PropertySummary struct {
	ID      uuid.UUID       `json:"id"`
	Title   string          `json:"title"`
	Address *string         `json:"address,omitempty"`
	Price   decimal.Decimal `json:"price"`
}

// ContractPaymentSummary is the payment row shape nested in contract details.
type ContractPaymentSummary struct {
	ID          uuid.UUID           `json:"id"`
	PaymentType enums.PaymentType   `json:"paymentType"`
	Amount      decimal.Decimal     `json:"amount"`
	DueDate     time.Time           `json:"dueDate"`
	PaidTime    *time.Time          `json:"paidTime,omitempty"`
	Status      enums.PaymentStatus `json:"status"`
}

// DepositContractDetail is the full read shape for a single deposit contract.
type DepositContractDetail struct {
	ID                  uuid.UUID                `json:"id"`
	ContractNumber      string                   `json:"contractNumber"`
	MainContractType    enums.MainContractType   `json:"mainContractType"`
	Status              enums.ContractStatus     `json:"status"`
	DepositAmount       decimal.Decimal          `json:"depositAmount"`
	AgreedPrice         decimal.Decimal          `json:"agreedPrice"`
	CancellationPenalty decimal.Decimal          `json:"cancellationPenalty"`
	StartDate           time.Time                `json:"startDate"`
	EndDate             *time.Time               `json:"endDate,omitempty"`
	SpecialTerms        *string                  `json:"specialTerms,omitempty"`
	CancellationReason  *string                  `json:"cancellationReason,omitempty"`
	CancelledBy         *enums.CancelParty       `json:"cancelledBy,omitempty"`
	Customer            *PartySummary            `json:"customer,omitempty"`
	Agent               *PartySummary            `json:"agent,omitempty"`
	Owner               *PartySummary            `json:"owner,omitempty"`
	Property            *PropertySummary         `json:"property,omitempty"`
	Payments            []ContractPaymentSummary `json:"payments"`
	CreatedAt           time.Time                `json:"createdAt"`
	UpdatedAt           time.Time                `json:"updatedAt"`
}

// PurchaseContractDetail is the full read shape for a single purchase contract.
type PurchaseContractDetail struct {
	ID                    uuid.UUID                `json:"id"`
	ContractNumber        string                   `json:"contractNumber"`
	Status                enums.ContractStatus     `json:"status"`
	PropertyValue         decimal.Decimal          `json:"propertyValue"`
	AdvancePaymentAmount  decimal.Decimal          `json:"advancePaymentAmount"`
	CommissionAmount      decimal.Decimal          `json:"commissionAmount"`
	StartDate             time.Time                `json:"startDate"`
	SpecialTerms          *string                  `json:"specialTerms,omitempty"`
	CancellationReason    *string                  `json:"cancellationReason,omitempty"`
	CancelledBy           *enums.CancelParty       `json:"cancelledBy,omitempty"`
	Customer              *PartySummary            `json:"customer,omitempty"`
	Agent                 *PartySummary            `json:"agent,omitempty"`
	Owner                 *PartySummary            `json:"owner,omitempty"`
	Property              *PropertySummary         `json:"property,omitempty"`
	DepositContractID     *uuid.UUID               `json:"depositContractId,omitempty"`
	DepositContractStatus *enums.ContractStatus    `json:"depositContractStatus,omitempty"`
	Payments              []ContractPaymentSummary `json:"payments"`
	CreatedAt             time.Time                `json:"createdAt"`
	UpdatedAt             time.Time                `json:"updatedAt"`
}
