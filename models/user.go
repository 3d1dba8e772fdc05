package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is an individual cash holder of an organization.
type User struct {
	ID             string          `gorm:"primary_key;size:36" json:"id"`
	OrganizationId string          `gorm:"index;size:36;not null" json:"organization_id"`
	Name           string          `gorm:"size:100;not null" json:"name"`
	Wallet         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"wallet"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "users" }
