package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mmdatafocus/marketplace_backend/models"
	"github.com/mmdatafocus/marketplace_backend/models/memstore"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	ctx     context.Context
	store   *memstore.Store
	logger  *logrus.Logger
	logs    *test.Hook
	org     *models.Organization
	user    *models.User
	general *models.Seller
	private *models.Seller
}

// newFixture seeds one organization with a cash holder and one seller per class.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	prev := timeNow
	timeNow = func() time.Time { return fixedNow }
	t.Cleanup(func() { timeNow = prev })

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	f := &fixture{
		ctx:     context.Background(),
		store:   memstore.New(),
		logger:  logger,
		logs:    hook,
		org:     &models.Organization{ID: "org-1", Name: "Market One", Wallet: decimal.NewFromInt(1000)},
		user:    &models.User{ID: "user-1", OrganizationId: "org-1", Name: "Cashier", Wallet: decimal.NewFromInt(80)},
		general: &models.Seller{ID: "seller-general", OrganizationId: "org-1", Name: "Shop", SellerClass: models.SellerClassGeneral},
		private: &models.Seller{ID: "seller-private", OrganizationId: "org-1", Name: "Neighbour", SellerClass: models.SellerClassPrivate},
	}
	f.store.SetClock(func() time.Time { return fixedNow })
	require.NoError(t, f.store.CreateOrganization(f.ctx, f.org))
	require.NoError(t, f.store.CreateUser(f.ctx, f.user))
	require.NoError(t, f.store.CreateSeller(f.ctx, f.general))
	require.NoError(t, f.store.CreateSeller(f.ctx, f.private))
	return f
}

func (f *fixture) setThresholds(t *testing.T, settings models.ThresholdSettings) {
	t.Helper()
	if settings.OrganizationId == "" {
		settings.OrganizationId = f.org.ID
	}
	require.NoError(t, f.store.UpsertThresholdSettings(f.ctx, &settings))
}

func (f *fixture) putStats(t *testing.T, seller *models.Seller, sales int64, quantity int, reconciledAt time.Time) *models.SellerPurchaseStats {
	t.Helper()
	row := &models.SellerPurchaseStats{
		SellerClass:      seller.SellerClass,
		SellerId:         seller.ID,
		OrganizationId:   seller.OrganizationId,
		TotalSales:       decimal.NewFromInt(sales),
		TotalQuantity:    quantity,
		LastReconciledAt: reconciledAt,
	}
	require.NoError(t, f.store.PutSellerStats(f.ctx, row))
	return row
}

func (f *fixture) stats(t *testing.T, seller *models.Seller) *models.SellerPurchaseStats {
	t.Helper()
	row, err := f.store.GetSellerStats(f.ctx, seller.SellerClass, seller.ID)
	require.NoError(t, err)
	return row
}

func amount(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func daysAgo(days int) time.Time {
	return fixedNow.Add(-time.Duration(days) * 24 * time.Hour)
}

func (f *fixture) logged(message string) bool {
	for _, entry := range f.logs.AllEntries() {
		if entry.Message == message {
			return true
		}
	}
	return false
}

type recordingNotifier struct {
	mu    sync.Mutex
	todos []*models.TodoList
	err   error
}

func (n *recordingNotifier) TodoCreated(_ context.Context, todo *models.TodoList) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.todos = append(n.todos, todo)
	return n.err
}

func (n *recordingNotifier) events() []models.TodoListEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.TodoListEvent, 0, len(n.todos))
	for _, todo := range n.todos {
		out = append(out, todo.Event)
	}
	return out
}
