// seed-organization creates a development organization with one cash holder,
// one seller per class and default thresholds, then prints an admin token for it.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-organization -name "Dev Market"
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/mmdatafocus/marketplace_backend/config"
	"github.com/mmdatafocus/marketplace_backend/models"
	"github.com/mmdatafocus/marketplace_backend/utils"
	"github.com/shopspring/decimal"
)

func main() {
	name := flag.String("name", "Dev Marketplace", "organization name")
	flag.Parse()
	if err := utils.CheckJwtSecret(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	if err := models.MigrateTable(db); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	org := &models.Organization{ID: uuid.NewString(), Name: *name, Wallet: decimal.NewFromInt(1000)}
	user := &models.User{ID: uuid.NewString(), OrganizationId: org.ID, Name: "Cashier", Wallet: decimal.NewFromInt(200)}

	// Tenant guard scopes every statement to this organization.
	ctx := utils.SetOrganizationIdInContext(context.Background(), org.ID)
	ctx = utils.SetUserIdInContext(ctx, user.ID)
	ctx = utils.SetUserNameInContext(ctx, "Seed")

	store := models.NewGormStore(db)
	err := store.Transaction(ctx, models.TxOptions{}, func(tx models.Store) error {
		if err := tx.CreateOrganization(ctx, org); err != nil {
			return fmt.Errorf("create organization: %w", err)
		}
		if err := tx.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		for _, class := range models.AllSellerClasses {
			seller := &models.Seller{ID: uuid.NewString(), OrganizationId: org.ID, Name: string(class) + " seller", SellerClass: class}
			if err := tx.CreateSeller(ctx, seller); err != nil {
				return fmt.Errorf("create %s seller: %w", class, err)
			}
			fmt.Printf("seller %s: %s\n", class, seller.ID)
		}
		return tx.UpsertThresholdSettings(ctx, &models.ThresholdSettings{
			OrganizationId:                          org.ID,
			CompanyCashBalanceLowerThreshold:        decimal.NewNullDecimal(decimal.NewFromInt(500)),
			IndividualCashBalanceLowerThreshold:     decimal.NewNullDecimal(decimal.NewFromInt(100)),
			PrivateSellerSalesBalanceUpperThreshold: decimal.NewNullDecimal(decimal.NewFromInt(5000)),
			SellerSalesBalanceUpperThreshold:        decimal.NewNullDecimal(decimal.NewFromInt(10000)),
		})
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}

	token, err := utils.JwtGenerate(user.ID, org.ID, user.Name, utils.RoleAdmin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("organization: %s\nuser: %s\ntoken: %s\n", org.ID, user.ID, token)
}
