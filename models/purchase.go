package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is a buyer's order from a seller. TransactionDate stays nil until
// payment is confirmed (bank transfers) and is set on creation for cash.
type Purchase struct {
	ID              string          `gorm:"primary_key;size:36" json:"id"`
	OrganizationId  string          `gorm:"index;size:36;not null" json:"organization_id"`
	SellerId        string          `gorm:"index;size:36;not null" json:"seller_id"`
	UserId          string          `gorm:"index;size:36" json:"user_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	PaymentMethod   PaymentMethod   `gorm:"type:enum('CASH','BANK_TRANSFER');not null" json:"payment_method"`
	TransactionDate *time.Time      `json:"transaction_date"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Purchase) TableName() string { return "purchases" }
