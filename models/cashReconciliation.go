package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashReconciliation records a cash count. A nil UserId means the company wallet was counted.
type CashReconciliation struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OrganizationId string          `gorm:"index;size:36;not null" json:"organization_id"`
	UserId         *string         `gorm:"index;size:36" json:"user_id"`
	ExpectedAmount decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"expected_amount"`
	CountedAmount  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"counted_amount"`
	Difference     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"difference"`
	Note           string          `gorm:"type:text" json:"note"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (CashReconciliation) TableName() string { return "cash_reconciliations" }

func (r CashReconciliation) IsIndividual() bool {
	return r.UserId != nil && *r.UserId != ""
}
