package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ThresholdSettings holds the per-organization notification rules.
// A NULL amount disables the rule; it is never read as zero.
type ThresholdSettings struct {
	ID                                      int                 `gorm:"primary_key" json:"id"`
	OrganizationId                          string              `gorm:"size:36;not null;uniqueIndex" json:"organization_id"`
	CompanyCashBalanceLowerThreshold        decimal.NullDecimal `gorm:"type:decimal(20,4)" json:"company_cash_balance_lower_threshold"`
	IndividualCashBalanceLowerThreshold     decimal.NullDecimal `gorm:"type:decimal(20,4)" json:"individual_cash_balance_lower_threshold"`
	PrivateSellerSalesBalanceUpperThreshold decimal.NullDecimal `gorm:"type:decimal(20,4)" json:"private_seller_sales_balance_upper_threshold"`
	SellerSalesBalanceUpperThreshold        decimal.NullDecimal `gorm:"type:decimal(20,4)" json:"seller_sales_balance_upper_threshold"`
	CreatedAt                               time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                               time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ThresholdSettings) TableName() string { return "threshold_settings" }

// UpperThresholdColumn returns the settings column holding the sales limit for class.
func UpperThresholdColumn(class SellerClass) string {
	if class == SellerClassPrivate {
		return "private_seller_sales_balance_upper_threshold"
	}
	return "seller_sales_balance_upper_threshold"
}

func (s *ThresholdSettings) UpperThreshold(class SellerClass) decimal.NullDecimal {
	if s == nil {
		return decimal.NullDecimal{}
	}
	if class == SellerClassPrivate {
		return s.PrivateSellerSalesBalanceUpperThreshold
	}
	return s.SellerSalesBalanceUpperThreshold
}

// LowerCashThreshold returns the company limit when individual is false, otherwise the per-user limit.
func (s *ThresholdSettings) LowerCashThreshold(individual bool) decimal.NullDecimal {
	if s == nil {
		return decimal.NullDecimal{}
	}
	if individual {
		return s.IndividualCashBalanceLowerThreshold
	}
	return s.CompanyCashBalanceLowerThreshold
}
