package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmdatafocus/marketplace_backend/models"
	"github.com/shopspring/decimal"
)

var ErrInvalidIncrement = errors.New("increment amount and quantity must not be negative")

// IncrementSellerStats adds one qualifying sale to the seller's running totals,
// creating the stats row on the seller's first sale. Thresholds are not
// evaluated here; the hourly scan owns that.
func IncrementSellerStats(ctx context.Context, store models.Store, sellerId string, amount decimal.Decimal, quantity int) (*models.SellerPurchaseStats, error) {
	seller, err := store.GetSeller(ctx, sellerId)
	if err != nil {
		return nil, fmt.Errorf("seller %q: %w", sellerId, err)
	}
	if err := incrementForSeller(ctx, store, seller, amount, quantity); err != nil {
		return nil, err
	}
	return store.GetSellerStats(ctx, seller.SellerClass, seller.ID)
}

func incrementForSeller(ctx context.Context, store models.Store, seller *models.Seller, amount decimal.Decimal, quantity int) error {
	if amount.IsNegative() || quantity < 0 {
		return ErrInvalidIncrement
	}
	return store.IncrementSellerStats(ctx, models.StatsIncrement{
		SellerClass:    seller.SellerClass,
		SellerId:       seller.ID,
		OrganizationId: seller.OrganizationId,
		Amount:         amount,
		Quantity:       quantity,
		At:             timeNow(),
	})
}
