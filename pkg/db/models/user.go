package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a local projection of the directory service's identity entity.
// Contracts only reference users; account management lives elsewhere.
type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string     `gorm:"type:text;not null;uniqueIndex"`
	FullName  string     `gorm:"column:full_name;not null"`
	Phone     *string    `gorm:"column:phone"`
	Tier      *string    `gorm:"column:tier"`
	IsActive  bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt *time.Time `gorm:"column:deleted_at"`
}
