package models

import "gorm.io/gorm"

func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&Organization{}, &User{}, &Seller{},
		&Purchase{}, &PickupDelivery{}, &CashReconciliation{},
		&ThresholdSettings{}, &SellerPurchaseStats{},
		&TodoList{},
	)
}
