package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/marketplace_backend/models"
	"github.com/mmdatafocus/marketplace_backend/utils"
	"github.com/sirupsen/logrus"
)

// ResolvedTodoList is a ledger row with its soft reference looked up.
type ResolvedTodoList struct {
	ID             int                    `json:"id"`
	OrganizationId string                 `json:"organization_id"`
	Event          models.TodoListEvent   `json:"event"`
	Status         models.TodoListStatus  `json:"status"`
	Meta           models.TodoMeta        `json:"meta"`
	Purchase       *models.Purchase       `json:"purchase,omitempty"`
	PickupDelivery *models.PickupDelivery `json:"pickup_delivery,omitempty"`
	User           *models.User           `json:"user,omitempty"`
	Seller         *models.Seller         `json:"seller,omitempty"`
	Organization   *models.Organization   `json:"organization,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// resolver queues the lookup of a row's reference and returns a func that
// waits for it and fills out.
type resolver func(ctx context.Context, loaders *referenceLoaders, out *ResolvedTodoList) func() error

var resolvers = map[models.TodoListEvent]resolver{
	models.TodoListEventCompanyCashBalanceBelowThreshold:    resolveOrganization,
	models.TodoListEventIndividualCashBalanceBelowThreshold: resolveUser,
	models.TodoListEventIndividualCashBalanceAboveThreshold: resolveUser,
	models.TodoListEventOrderPickupInitiated:                resolvePickupDelivery,
	models.TodoListEventPurchaseInitiatedWithBankTransfer:   resolvePurchase,
	models.TodoListEventPrivateSellerSalesAboveThreshold:    resolveSeller,
	models.TodoListEventSellerCashSalesAboveThreshold:       resolveSeller,
}

type pendingTodoList struct {
	todo *models.TodoList
	item *ResolvedTodoList
	wait func() error
}

// ListTodoLists returns the organization's ledger rows with live references.
// References are looked up in one batch per entity kind. Rows whose reference
// is gone or whose meta is unreadable are left out.
func ListTodoLists(ctx context.Context, store models.Store, logger *logrus.Logger, organizationId string, filter models.TodoListFilter) ([]ResolvedTodoList, error) {
	logger = loggerOrDefault(logger)
	todos, err := store.ListTodoLists(ctx, organizationId, filter)
	if err != nil {
		return nil, err
	}

	loaders := newReferenceLoaders(store)
	pending := make([]pendingTodoList, 0, len(todos))
	for i := range todos {
		item, wait, err := queueTodoList(ctx, loaders, &todos[i])
		if err != nil {
			logDroppedTodoList(logger, &todos[i], err)
			continue
		}
		pending = append(pending, pendingTodoList{todo: &todos[i], item: item, wait: wait})
	}

	out := make([]ResolvedTodoList, 0, len(pending))
	for _, p := range pending {
		if err := p.wait(); err != nil {
			logDroppedTodoList(logger, p.todo, err)
			continue
		}
		out = append(out, *p.item)
	}
	return out, nil
}

func logDroppedTodoList(logger *logrus.Logger, todo *models.TodoList, err error) {
	entry := logger.WithFields(logrus.Fields{
		"todo_list_id": todo.ID,
		"event":        todo.Event,
	}).WithError(err)
	if errors.Is(err, utils.ErrorRecordNotFound) {
		entry.Debug("dropping todo with dangling reference")
		return
	}
	entry.Warn("dropping unresolvable todo")
}

func queueTodoList(ctx context.Context, loaders *referenceLoaders, todo *models.TodoList) (*ResolvedTodoList, func() error, error) {
	resolve, ok := resolvers[todo.Event]
	if !ok {
		return nil, nil, utils.ErrUnrecognizedEvent
	}
	meta, err := todo.DecodeMeta()
	if err != nil {
		return nil, nil, err
	}
	item := &ResolvedTodoList{
		ID:             todo.ID,
		OrganizationId: todo.OrganizationId,
		Event:          todo.Event,
		Status:         todo.Status,
		Meta:           meta,
		CreatedAt:      todo.CreatedAt,
		UpdatedAt:      todo.UpdatedAt,
	}
	return item, resolve(ctx, loaders, item), nil
}

func resolveOrganization(ctx context.Context, loaders *referenceLoaders, out *ResolvedTodoList) func() error {
	id := out.OrganizationId
	if meta, ok := out.Meta.(*models.CashBalanceMeta); ok && meta.OrganizationId != "" {
		id = meta.OrganizationId
	}
	return await(loaders.organizations.Load(ctx, id), func(org *models.Organization) { out.Organization = org })
}

func resolveUser(ctx context.Context, loaders *referenceLoaders, out *ResolvedTodoList) func() error {
	meta, _ := out.Meta.(*models.CashBalanceMeta)
	if meta == nil || meta.UserId == "" {
		return notFound
	}
	return await(loaders.users.Load(ctx, meta.UserId), func(user *models.User) { out.User = user })
}

func resolvePickupDelivery(ctx context.Context, loaders *referenceLoaders, out *ResolvedTodoList) func() error {
	meta, _ := out.Meta.(*models.PickupOrderMeta)
	if meta == nil || meta.PickUpOrderId == "" {
		return notFound
	}
	return await(loaders.pickups.Load(ctx, meta.PickUpOrderId), func(pickup *models.PickupDelivery) { out.PickupDelivery = pickup })
}

func resolvePurchase(ctx context.Context, loaders *referenceLoaders, out *ResolvedTodoList) func() error {
	meta, _ := out.Meta.(*models.PurchaseMeta)
	if meta == nil || meta.PurchaseId == "" {
		return notFound
	}
	return await(loaders.purchases.Load(ctx, meta.PurchaseId), func(purchase *models.Purchase) { out.Purchase = purchase })
}

func resolveSeller(ctx context.Context, loaders *referenceLoaders, out *ResolvedTodoList) func() error {
	meta, _ := out.Meta.(*models.SellerSalesMeta)
	if meta == nil || meta.SellerId == "" {
		return notFound
	}
	return await(loaders.sellers.Load(ctx, meta.SellerId), func(seller *models.Seller) { out.Seller = seller })
}
