package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmdatafocus/marketplace_backend/models"
	"github.com/mmdatafocus/marketplace_backend/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// EventPayload carries the inputs any event may need. Handlers read only the
// fields relevant to their event; absent fields stay at their zero value.
type EventPayload struct {
	OrganizationId string
	UserId         string
	PickUpOrderId  string
	PurchaseId     string
	SellerId       string
	TotalSales     decimal.Decimal
	TotalQuantity  int
}

type metaBuilder func(ctx context.Context, store models.Store, payload EventPayload) (models.TodoMeta, error)

var metaBuilders = map[models.TodoListEvent]metaBuilder{
	models.TodoListEventCompanyCashBalanceBelowThreshold:    companyCashBalanceMeta,
	models.TodoListEventIndividualCashBalanceBelowThreshold: individualCashBalanceMeta,
	models.TodoListEventIndividualCashBalanceAboveThreshold: individualCashBalanceMeta,
	models.TodoListEventOrderPickupInitiated:                pickupOrderMeta,
	models.TodoListEventPurchaseInitiatedWithBankTransfer:   purchaseMeta,
	models.TodoListEventPrivateSellerSalesAboveThreshold:    sellerSalesMeta,
	models.TodoListEventSellerCashSalesAboveThreshold:       sellerSalesMeta,
}

// RegisterEvent inserts one OPEN todo list row for event. It performs no
// deduplication. Cash balance events snapshot the current wallet.
func RegisterEvent(ctx context.Context, store models.Store, event models.TodoListEvent, payload EventPayload) (*models.TodoList, error) {
	ctx, span := tracer.Start(ctx, "workflow.RegisterEvent", trace.WithAttributes(
		attribute.String("todo.event", string(event)),
		attribute.String("organization.id", payload.OrganizationId),
	))
	defer span.End()

	build, ok := metaBuilders[event]
	if !ok {
		err := fmt.Errorf("%w: %q", utils.ErrUnrecognizedEvent, event)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	meta, err := build(ctx, store, payload)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	raw, err := models.EncodeTodoMeta(event, meta)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	organizationId := payload.OrganizationId
	if cash, ok := meta.(*models.CashBalanceMeta); ok && organizationId == "" {
		organizationId = cash.OrganizationId
	}
	todo := &models.TodoList{
		OrganizationId: organizationId,
		Event:          event,
		Status:         models.TodoListStatusOpen,
		Meta:           raw,
	}
	if err := store.CreateTodoList(ctx, todo); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("todo.id", todo.ID))
	return todo, nil
}

func companyCashBalanceMeta(ctx context.Context, store models.Store, payload EventPayload) (models.TodoMeta, error) {
	org, err := store.GetOrganization(ctx, payload.OrganizationId)
	if err != nil {
		return nil, fmt.Errorf("organization %q: %w", payload.OrganizationId, err)
	}
	settings, err := optionalSettings(ctx, store, org.ID)
	if err != nil {
		return nil, err
	}
	return &models.CashBalanceMeta{
		OrganizationId:   org.ID,
		CurrentBalance:   org.Wallet,
		ThresholdBalance: settings.LowerCashThreshold(false),
	}, nil
}

func individualCashBalanceMeta(ctx context.Context, store models.Store, payload EventPayload) (models.TodoMeta, error) {
	user, err := store.GetUser(ctx, payload.UserId)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", payload.UserId, err)
	}
	organizationId := payload.OrganizationId
	if organizationId == "" {
		organizationId = user.OrganizationId
	}
	settings, err := optionalSettings(ctx, store, organizationId)
	if err != nil {
		return nil, err
	}
	return &models.CashBalanceMeta{
		OrganizationId:   organizationId,
		UserId:           user.ID,
		CurrentBalance:   user.Wallet,
		ThresholdBalance: settings.LowerCashThreshold(true),
	}, nil
}

func pickupOrderMeta(_ context.Context, _ models.Store, payload EventPayload) (models.TodoMeta, error) {
	return &models.PickupOrderMeta{PickUpOrderId: payload.PickUpOrderId}, nil
}

func purchaseMeta(_ context.Context, _ models.Store, payload EventPayload) (models.TodoMeta, error) {
	return &models.PurchaseMeta{PurchaseId: payload.PurchaseId}, nil
}

func sellerSalesMeta(_ context.Context, _ models.Store, payload EventPayload) (models.TodoMeta, error) {
	return &models.SellerSalesMeta{
		SellerId:      payload.SellerId,
		TotalSales:    payload.TotalSales,
		TotalQuantity: payload.TotalQuantity,
	}, nil
}

// optionalSettings returns nil settings when the organization never configured any.
func optionalSettings(ctx context.Context, store models.Store, organizationId string) (*models.ThresholdSettings, error) {
	settings, err := store.GetThresholdSettings(ctx, organizationId)
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return nil, nil
	}
	return settings, err
}
