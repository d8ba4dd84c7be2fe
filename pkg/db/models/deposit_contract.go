package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/OneKeyCoder/batdongscam-backend/pkg/enums"
)

// DepositContract reserves a property ahead of a main contract.
type DepositContract struct {
	ID                  uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ContractNumber      string                 `gorm:"column:contract_number;type:text;not null;uniqueIndex"`
	PropertyID          uuid.UUID              `gorm:"column:property_id;type:uuid;not null"`
	CustomerID          uuid.UUID              `gorm:"column:customer_id;type:uuid;not null"`
	AgentID             *uuid.UUID             `gorm:"column:agent_id;type:uuid"`
	MainContractType    enums.MainContractType `gorm:"column:main_contract_type;type:text;not null"`
	DepositAmount       decimal.Decimal        `gorm:"column:deposit_amount;type:numeric(18,0);not null"`
	AgreedPrice         decimal.Decimal        `gorm:"column:agreed_price;type:numeric(18,0);not null"`
	CancellationPenalty decimal.Decimal        `gorm:"column:cancellation_penalty;type:numeric(18,0);not null"`
	StartDate           time.Time              `gorm:"column:start_date;not null"`
	EndDate             *time.Time             `gorm:"column:end_date"`
	SpecialTerms        *string                `gorm:"column:special_terms"`
	Status              enums.ContractStatus   `gorm:"column:status;type:text;not null;default:'DRAFT'"`
	CancellationReason  *string                `gorm:"column:cancellation_reason"`
	CancelledBy         *enums.CancelParty     `gorm:"column:cancelled_by;type:text"`
	Property            *Property              `gorm:"foreignKey:PropertyID"`
	Customer            *User                  `gorm:"foreignKey:CustomerID"`
	Agent               *User                  `gorm:"foreignKey:AgentID"`
	CreatedAt           time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
