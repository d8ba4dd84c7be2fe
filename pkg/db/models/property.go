package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Property is a local projection of the listing service's property entity.
type Property struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Title     string          `gorm:"column:title;not null"`
	Address   *string         `gorm:"column:address"`
	OwnerID   uuid.UUID       `gorm:"column:owner_id;type:uuid;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(18,0);not null"`
	Owner     *User           `gorm:"foreignKey:OwnerID"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
