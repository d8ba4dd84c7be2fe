package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/OneKeyCoder/batdongscam-backend/pkg/enums"
)

// PurchaseContract is the main sale agreement, optionally backed by a deposit
// contract. The unique index on deposit_contract_id enforces the one-to-one
// linkage at the storage level.
type PurchaseContract struct {
	ID                   uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ContractNumber       string               `gorm:"column:contract_number;type:text;not null;uniqueIndex"`
	PropertyID           uuid.UUID            `gorm:"column:property_id;type:uuid;not null"`
	CustomerID           uuid.UUID            `gorm:"column:customer_id;type:uuid;not null"`
	AgentID              *uuid.UUID           `gorm:"column:agent_id;type:uuid"`
	DepositContractID    *uuid.UUID           `gorm:"column:deposit_contract_id;type:uuid;uniqueIndex:uq_purchase_contracts_deposit_contract_id"`
	PropertyValue        decimal.Decimal      `gorm:"column:property_value;type:numeric(18,0);not null"`
	AdvancePaymentAmount decimal.Decimal      `gorm:"column:advance_payment_amount;type:numeric(18,0);not null;default:0"`
	CommissionAmount     decimal.Decimal      `gorm:"column:commission_amount;type:numeric(18,0);not null;default:0"`
	StartDate            time.Time            `gorm:"column:start_date;not null"`
	SpecialTerms         *string              `gorm:"column:special_terms"`
	Status               enums.ContractStatus `gorm:"column:status;type:text;not null;default:'DRAFT'"`
	CancellationReason   *string              `gorm:"column:cancellation_reason"`
	CancelledBy          *enums.CancelParty   `gorm:"column:cancelled_by;type:text"`
	Property             *Property            `gorm:"foreignKey:PropertyID"`
	Customer             *User                `gorm:"foreignKey:CustomerID"`
	Agent                *User                `gorm:"foreignKey:AgentID"`
	DepositContract      *DepositContract     `gorm:"foreignKey:DepositContractID"`
	CreatedAt            time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
