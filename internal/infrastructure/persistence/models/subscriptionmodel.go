package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/sunstrike-inc/sunstrike/internal/shared/constants"
)

// SubscriptionModel represents the database persistence model for subscriptions
// This is the anti-corruption layer between domain and database
type SubscriptionModel struct {
	ID               uint    `gorm:"primarykey"`
	Username         string  `gorm:"uniqueIndex;not null;size:64"`
	CredentialSecret string  `gorm:"not null;size:255"`
	Active           bool    `gorm:"not null;default:false;index:idx_active_state,priority:1"`
	Link             *string `gorm:"size:1024"`
	ProvisionState   string  `gorm:"not null;size:20;default:unprovisioned;index:idx_active_state,priority:2"`
	ProvisionError   *string `gorm:"size:500"`
	ProfileUUID      *string `gorm:"size:36;index"`
	Version          int     `gorm:"not null;default:1"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for GORM
func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}

// BeforeCreate hook for GORM
func (s *SubscriptionModel) BeforeCreate(tx *gorm.DB) error {
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}
