package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/marketplace_backend/models"
	"github.com/mmdatafocus/marketplace_backend/utils"
)

type CompletionInput struct {
	OrganizationId string
	TodoListId     int
	PurchaseId     *string
	PaymentDate    *time.Time
}

type completer func(ctx context.Context, tx models.Store, todo *models.TodoList, input CompletionInput) error

var completers = map[models.TodoListEvent]completer{
	models.TodoListEventCompanyCashBalanceBelowThreshold:    completeStatusOnly,
	models.TodoListEventIndividualCashBalanceBelowThreshold: completeStatusOnly,
	models.TodoListEventIndividualCashBalanceAboveThreshold: completeStatusOnly,
	models.TodoListEventOrderPickupInitiated:                completeStatusOnly,
	models.TodoListEventPurchaseInitiatedWithBankTransfer:   completeBankTransferPurchase,
	models.TodoListEventPrivateSellerSalesAboveThreshold:    completeStatusOnly,
	models.TodoListEventSellerCashSalesAboveThreshold:       completeStatusOnly,
}

// CompleteEvent runs the event's finalization and flips the row to DONE in one
// transaction. Finalization always happens before the status change.
func CompleteEvent(ctx context.Context, store models.Store, event models.TodoListEvent, input CompletionInput) (*models.TodoList, error) {
	finish, ok := completers[event]
	if !ok {
		return nil, fmt.Errorf("%w: %q", utils.ErrUnrecognizedEvent, event)
	}

	var done *models.TodoList
	err := store.Transaction(ctx, models.TxOptions{}, func(tx models.Store) error {
		todo, err := tx.GetTodoList(ctx, input.OrganizationId, input.TodoListId)
		if err != nil {
			return err
		}
		if todo.Event != event {
			return fmt.Errorf("%w: todo %d is %s", utils.ErrEventMismatch, todo.ID, todo.Event)
		}
		if todo.Status == models.TodoListStatusDone {
			return utils.ErrTodoAlreadyDone
		}
		if err := finish(ctx, tx, todo, input); err != nil {
			return err
		}
		if err := tx.MarkTodoListDone(ctx, input.OrganizationId, todo.ID); err != nil {
			return err
		}
		done, err = tx.GetTodoList(ctx, input.OrganizationId, todo.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return done, nil
}

func completeStatusOnly(context.Context, models.Store, *models.TodoList, CompletionInput) error {
	return nil
}

// completeBankTransferPurchase stamps the purchase's transaction date with the payment date.
func completeBankTransferPurchase(ctx context.Context, tx models.Store, todo *models.TodoList, input CompletionInput) error {
	if input.PurchaseId == nil || *input.PurchaseId == "" {
		return fmt.Errorf("%w: purchaseId", utils.ErrMissingParameter)
	}
	if input.PaymentDate == nil || input.PaymentDate.IsZero() {
		return fmt.Errorf("%w: paymentDate", utils.ErrMissingParameter)
	}

	meta, err := todo.DecodeMeta()
	if err != nil {
		return err
	}
	if pm, ok := meta.(*models.PurchaseMeta); !ok || pm.PurchaseId != *input.PurchaseId {
		return fmt.Errorf("%w: purchase %q is not referenced by todo %d", utils.ErrEventMismatch, *input.PurchaseId, todo.ID)
	}

	purchase, err := tx.GetPurchase(ctx, *input.PurchaseId)
	if err != nil {
		return fmt.Errorf("purchase %q: %w", *input.PurchaseId, err)
	}
	return tx.StampPurchaseTransactionDate(ctx, purchase.ID, input.PaymentDate.UTC())
}
