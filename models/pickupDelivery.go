package models

import "time"

type PickupDelivery struct {
	ID             string       `gorm:"primary_key;size:36" json:"id"`
	OrganizationId string       `gorm:"index;size:36;not null" json:"organization_id"`
	PurchaseId     string       `gorm:"index;size:36;not null" json:"purchase_id"`
	Status         PickupStatus `gorm:"type:enum('PENDING','PICKED_UP');default:PENDING;not null" json:"status"`
	ScheduledAt    *time.Time   `json:"scheduled_at"`
	CreatedAt      time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PickupDelivery) TableName() string { return "pickup_deliveries" }
