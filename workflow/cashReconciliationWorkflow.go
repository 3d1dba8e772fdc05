package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmdatafocus/marketplace_backend/models"
	"github.com/mmdatafocus/marketplace_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var ErrInvalidReconciliation = errors.New("invalid cash reconciliation")

type NewCashReconciliation struct {
	OrganizationId string
	// UserId selects an individual wallet; empty means the company wallet.
	UserId        string
	CountedAmount decimal.Decimal
	Note          string
}

type CashReconciliationResult struct {
	Reconciliation *models.CashReconciliation `json:"reconciliation"`
	Todos          []*models.TodoList         `json:"todos"`
}

// CreateCashReconciliation records a cash count, moves the wallet to the
// counted amount and raises the cash balance todos the new balance calls for.
func CreateCashReconciliation(ctx context.Context, store models.Store, logger *logrus.Logger, notifier Notifier, input NewCashReconciliation) (*CashReconciliationResult, error) {
	logger = loggerOrDefault(logger)
	if input.OrganizationId == "" {
		return nil, fmt.Errorf("%w: organization is required", ErrInvalidReconciliation)
	}
	if input.CountedAmount.IsNegative() {
		return nil, fmt.Errorf("%w: counted amount must not be negative", ErrInvalidReconciliation)
	}
	individual := input.UserId != ""

	var result *CashReconciliationResult
	err := store.Transaction(ctx, models.TxOptions{}, func(tx models.Store) error {
		result = &CashReconciliationResult{}

		var expected decimal.Decimal
		if individual {
			user, err := tx.GetUser(ctx, input.UserId)
			if err != nil {
				return fmt.Errorf("user %q: %w", input.UserId, err)
			}
			if user.OrganizationId != input.OrganizationId {
				return fmt.Errorf("user %q: %w", input.UserId, utils.ErrorRecordNotFound)
			}
			expected = user.Wallet
		} else {
			org, err := tx.GetOrganization(ctx, input.OrganizationId)
			if err != nil {
				return fmt.Errorf("organization %q: %w", input.OrganizationId, err)
			}
			expected = org.Wallet
		}

		rec := &models.CashReconciliation{
			OrganizationId: input.OrganizationId,
			UserId:         utils.NilIfEmpty(input.UserId),
			ExpectedAmount: expected,
			CountedAmount:  input.CountedAmount,
			Difference:     input.CountedAmount.Sub(expected),
			Note:           input.Note,
		}
		if err := tx.CreateCashReconciliation(ctx, rec); err != nil {
			return err
		}
		result.Reconciliation = rec

		var err error
		if individual {
			err = tx.UpdateUserWallet(ctx, input.UserId, input.CountedAmount)
		} else {
			err = tx.UpdateOrganizationWallet(ctx, input.OrganizationId, input.CountedAmount)
		}
		if err != nil {
			return err
		}

		settings, err := optionalSettings(ctx, tx, input.OrganizationId)
		if err != nil {
			return err
		}
		for _, event := range cashBalanceEvents(individual, expected, input.CountedAmount, settings.LowerCashThreshold(individual)) {
			todo, err := RegisterEvent(ctx, tx, event, EventPayload{
				OrganizationId: input.OrganizationId,
				UserId:         input.UserId,
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

// cashBalanceEvents picks the todo events for a wallet moving from before to after.
// A NULL threshold disables the check.
func cashBalanceEvents(individual bool, before, after decimal.Decimal, threshold decimal.NullDecimal) []models.TodoListEvent {
	if !threshold.Valid {
		return nil
	}
	limit := threshold.Decimal
	if after.LessThan(limit) {
		if individual {
			return []models.TodoListEvent{models.TodoListEventIndividualCashBalanceBelowThreshold}
		}
		return []models.TodoListEvent{models.TodoListEventCompanyCashBalanceBelowThreshold}
	}
	if individual && before.LessThan(limit) {
		return []models.TodoListEvent{models.TodoListEventIndividualCashBalanceAboveThreshold}
	}
	return nil
}
