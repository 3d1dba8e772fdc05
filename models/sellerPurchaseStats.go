package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SellerPurchaseStats accumulates a seller's qualifying sales since LastReconciledAt.
// Unique per (seller_class, seller_id).
type SellerPurchaseStats struct {
	ID               int             `gorm:"primary_key" json:"id"`
	SellerClass      SellerClass     `gorm:"type:enum('PRIVATE','GENERAL');not null;uniqueIndex:idx_seller_stats_class_seller,priority:1" json:"seller_class"`
	SellerId         string          `gorm:"size:36;not null;uniqueIndex:idx_seller_stats_class_seller,priority:2" json:"seller_id"`
	OrganizationId   string          `gorm:"size:36;not null;index:idx_seller_stats_org_notified,priority:1" json:"organization_id"`
	TotalSales       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_sales"`
	TotalQuantity    int             `gorm:"not null;default:0" json:"total_quantity"`
	IsNotified       bool            `gorm:"not null;default:false;index:idx_seller_stats_org_notified,priority:2" json:"is_notified"`
	LastReconciledAt time.Time       `gorm:"not null" json:"last_reconciled_at"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SellerPurchaseStats) TableName() string { return "seller_purchase_stats" }
