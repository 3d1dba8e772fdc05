package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Organization is the tenant. Wallet holds the company cash balance.
type Organization struct {
	ID        string          `gorm:"primary_key;size:36" json:"id"`
	Name      string          `gorm:"size:100;not null" json:"name"`
	Wallet    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"wallet"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Organization) TableName() string { return "organizations" }
