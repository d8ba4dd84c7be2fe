package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/OneKeyCoder/batdongscam-backend/pkg/enums"
)

// Payment is a ledger entry tied to a contract. PaidTime is only set when the
// payment reaches a success status.
type Payment struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ContractID   uuid.UUID           `gorm:"column:contract_id;type:uuid;not null;index:idx_payments_contract"`
	ContractType enums.ContractKind  `gorm:"column:contract_type;type:text;not null;index:idx_payments_contract"`
	PaymentType  enums.PaymentType   `gorm:"column:payment_type;type:text;not null"`
	Amount       decimal.Decimal     `gorm:"column:amount;type:numeric(18,0);not null"`
	DueDate      time.Time           `gorm:"column:due_date;not null"`
	PaidTime     *time.Time          `gorm:"column:paid_time"`
	Status       enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'PENDING'"`
	PayerID      *uuid.UUID          `gorm:"column:payer_id;type:uuid"`
	PayeeID      *uuid.UUID          `gorm:"column:payee_id;type:uuid"`
	Note         *string             `gorm:"column:note"`
	Payer        *User               `gorm:"foreignKey:PayerID"`
	Payee        *User               `gorm:"foreignKey:PayeeID"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
