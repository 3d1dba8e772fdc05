package models

import "time"

type Seller struct {
	ID             string      `gorm:"primary_key;size:36" json:"id"`
	OrganizationId string      `gorm:"index;size:36;not null" json:"organization_id"`
	Name           string      `gorm:"size:100;not null" json:"name"`
	SellerClass    SellerClass `gorm:"type:enum('PRIVATE','GENERAL');not null" json:"seller_class"`
	CreatedAt      time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Seller) TableName() string { return "sellers" }
