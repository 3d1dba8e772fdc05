package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/marketplace_backend/models"
	"github.com/mmdatafocus/marketplace_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var ErrInvalidPurchase = errors.New("invalid purchase")

type NewPurchase struct {
	ID                string
	OrganizationId    string
	SellerId          string
	UserId            string
	Amount            decimal.Decimal
	Quantity          int
	PaymentMethod     models.PaymentMethod
	Pickup            bool
	PickupScheduledAt *time.Time
}

type PurchaseResult struct {
	Purchase *models.Purchase       `json:"purchase"`
	Pickup   *models.PickupDelivery `json:"pickup,omitempty"`
	Todos    []*models.TodoList     `json:"todos"`
}

// qualifiesForSellerStats reports whether a purchase counts toward the seller's
// sales totals: every purchase from a private seller, cash purchases otherwise.
func qualifiesForSellerStats(seller *models.Seller, method models.PaymentMethod) bool {
	if seller.SellerClass == models.SellerClassPrivate {
		return true
	}
	return method == models.PaymentMethodCash
}

func validatePurchase(input NewPurchase) error {
	switch {
	case input.OrganizationId == "":
		return fmt.Errorf("%w: organization is required", ErrInvalidPurchase)
	case input.SellerId == "":
		return fmt.Errorf("%w: seller is required", ErrInvalidPurchase)
	case !input.Amount.IsPositive():
		return fmt.Errorf("%w: amount must be positive", ErrInvalidPurchase)
	case input.Quantity <= 0:
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidPurchase)
	case !input.PaymentMethod.IsValid():
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidPurchase, input.PaymentMethod)
	}
	return nil
}

// CreatePurchase records a purchase together with its stats increment and todo rows.
func CreatePurchase(ctx context.Context, store models.Store, logger *logrus.Logger, notifier Notifier, input NewPurchase) (*PurchaseResult, error) {
	logger = loggerOrDefault(logger)
	if err := validatePurchase(input); err != nil {
		return nil, err
	}

	var result *PurchaseResult
	err := store.Transaction(ctx, models.TxOptions{}, func(tx models.Store) error {
		result = &PurchaseResult{}
		seller, err := tx.GetSeller(ctx, input.SellerId)
		if err != nil {
			return fmt.Errorf("seller %q: %w", input.SellerId, err)
		}
		if seller.OrganizationId != input.OrganizationId {
			return fmt.Errorf("seller %q: %w", input.SellerId, utils.ErrorRecordNotFound)
		}

		now := timeNow()
		purchase := &models.Purchase{
			ID:             input.ID,
			OrganizationId: input.OrganizationId,
			SellerId:       seller.ID,
			UserId:         input.UserId,
			Amount:         input.Amount,
			Quantity:       input.Quantity,
			PaymentMethod:  input.PaymentMethod,
		}
		if purchase.ID == "" {
			purchase.ID = uuid.NewString()
		}
		if input.PaymentMethod == models.PaymentMethodCash {
			purchase.TransactionDate = &now
		}
		if err := tx.CreatePurchase(ctx, purchase); err != nil {
			return err
		}
		result.Purchase = purchase

		if input.PaymentMethod == models.PaymentMethodBankTransfer {
			todo, err := RegisterEvent(ctx, tx, models.TodoListEventPurchaseInitiatedWithBankTransfer, EventPayload{
				OrganizationId: input.OrganizationId,
				PurchaseId:     purchase.ID,
			})
			if err != nil {
				return err
			}
			result.Todos = append(result.Todos, todo)
		}

		if qualifiesForSellerStats(seller, input.PaymentMethod) {
			if err := incrementForSeller(ctx, tx, seller, input.Amount, input.Quantity); err != nil {
				return err
			}
		}

		if input.Pickup {
			pickup := &models.PickupDelivery{
				ID:             uuid.NewString(),
				OrganizationId: input.OrganizationId,
				PurchaseId:     purchase.ID,
				Status:         models.PickupStatusPending,
				ScheduledAt:    input.PickupScheduledAt,
			}
			if err := tx.CreatePickupDelivery(ctx, pickup); err != nil {
				return err
			}
			result.Pickup = pickup
			todo, err := RegisterEvent(ctx, tx, models.TodoListEventOrderPickupInitiated, EventPayload{
				OrganizationId: input.OrganizationId,
				PickUpOrderId:  pickup.ID,
			})
			if err != nil {
				return err
			}
			result.Todos = append(result.Todos, todo)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	notifyCreated(ctx, notifier, logger, result.Todos)
	return result, nil
}
