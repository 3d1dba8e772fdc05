package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmdatafocus/marketplace_backend/models"
	"github.com/mmdatafocus/marketplace_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionCommitsOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := New()

	boom := errors.New("boom")
	err := s.Transaction(ctx, models.TxOptions{}, func(tx models.Store) error {
		require.NoError(t, tx.CreateOrganization(ctx, &models.Organization{ID: "org-1", Name: "One"}))
		return boom
	})
	require.ErrorIs(t, err, boom)
	_, err = s.GetOrganization(ctx, "org-1")
	assert.ErrorIs(t, err, utils.ErrorRecordNotFound)

	err = s.Transaction(ctx, models.TxOptions{}, func(tx models.Store) error {
		return tx.CreateOrganization(ctx, &models.Organization{ID: "org-1", Name: "One"})
	})
	require.NoError(t, err)
	org, err := s.GetOrganization(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, "One", org.Name)
}

func TestNestedTransactionJoinsOuter(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.Transaction(ctx, models.TxOptions{}, func(tx models.Store) error {
		return tx.Transaction(ctx, models.TxOptions{}, func(inner models.Store) error {
			return inner.CreateSeller(ctx, &models.Seller{ID: "s1", OrganizationId: "org-1", SellerClass: models.SellerClassGeneral})
		})
	})
	require.NoError(t, err)
	_, err = s.GetSeller(ctx, "s1")
	assert.NoError(t, err)
}

func TestFailOn(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("disk full")

	s.FailOn("CreateUser", boom)
	assert.ErrorIs(t, s.CreateUser(ctx, &models.User{ID: "u1"}), boom)

	s.FailOn("CreateUser", nil)
	assert.NoError(t, s.CreateUser(ctx, &models.User{ID: "u1"}))
	assert.ErrorIs(t, s.CreateUser(ctx, &models.User{ID: "u1"}), utils.ErrDuplicateRecord)
}

func TestTransactionHonorsCancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Transaction(ctx, models.TxOptions{}, func(tx models.Store) error {
		return tx.CreateOrganization(ctx, &models.Organization{ID: "org-1"})
	})
	assert.ErrorIs(t, err, utils.ErrTransactionTimeout)
}

func TestIncrementSellerStatsKeepsFirstReconciliationTime(t *testing.T) {
	ctx := context.Background()
	s := New()
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.IncrementSellerStats(ctx, models.StatsIncrement{
		SellerClass: models.SellerClassGeneral, SellerId: "s1", OrganizationId: "org-1",
		Amount: decimal.NewFromInt(10), Quantity: 1, At: first,
	}))
	require.NoError(t, s.IncrementSellerStats(ctx, models.StatsIncrement{
		SellerClass: models.SellerClassGeneral, SellerId: "s1", OrganizationId: "org-1",
		Amount: decimal.NewFromInt(5), Quantity: 2, At: first.Add(time.Hour),
	}))

	row, err := s.GetSellerStats(ctx, models.SellerClassGeneral, "s1")
	require.NoError(t, err)
	assert.True(t, row.TotalSales.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, 3, row.TotalQuantity)
	assert.Equal(t, first, row.LastReconciledAt)

	_, err = s.GetSellerStats(ctx, models.SellerClassPrivate, "s1")
	assert.ErrorIs(t, err, utils.ErrorRecordNotFound)
}

func TestListTodoListsFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	s := New()
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return clock })

	create := func(org string, event models.TodoListEvent) *models.TodoList {
		todo := &models.TodoList{OrganizationId: org, Event: event, Meta: []byte(`{}`)}
		require.NoError(t, s.CreateTodoList(ctx, todo))
		clock = clock.Add(time.Minute)
		return todo
	}
	a := create("org-1", models.TodoListEventOrderPickupInitiated)
	b := create("org-1", models.TodoListEventPurchaseInitiatedWithBankTransfer)
	create("org-2", models.TodoListEventOrderPickupInitiated)
	c := create("org-1", models.TodoListEventOrderPickupInitiated)
	require.NoError(t, s.MarkTodoListDone(ctx, "org-1", c.ID))

	all, err := s.ListTodoLists(ctx, "org-1", models.TodoListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int{c.ID, b.ID, a.ID}, []int{all[0].ID, all[1].ID, all[2].ID})

	open := models.TodoListStatusOpen
	pickups, err := s.ListTodoLists(ctx, "org-1", models.TodoListFilter{
		Status: &open,
		Events: []models.TodoListEvent{models.TodoListEventOrderPickupInitiated},
	})
	require.NoError(t, err)
	require.Len(t, pickups, 1)
	assert.Equal(t, a.ID, pickups[0].ID)

	limited, err := s.ListTodoLists(ctx, "org-1", models.TodoListFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, c.ID, limited[0].ID)

	assert.ErrorIs(t, s.MarkTodoListDone(ctx, "org-1", c.ID), utils.ErrTodoAlreadyDone)
	assert.ErrorIs(t, s.MarkTodoListDone(ctx, "org-2", a.ID), utils.ErrorRecordNotFound)
}
