package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TxOptions bounds a transaction. MaxWait covers acquiring the connection and
// row locks, Timeout the work done once they are held.
type TxOptions struct {
	MaxWait time.Duration
	Timeout time.Duration
}

// StatsIncrement is one qualifying sale to add to a seller's running totals.
type StatsIncrement struct {
	SellerClass    SellerClass
	SellerId       string
	OrganizationId string
	Amount         decimal.Decimal
	Quantity       int
	At             time.Time
}

// Store is the persistence boundary used by the workflows.
// Lookups of missing rows return utils.ErrorRecordNotFound.
type Store interface {
	// Transaction runs fn against a transactional Store. Nested calls reuse the outer transaction.
	Transaction(ctx context.Context, opts TxOptions, fn func(tx Store) error) error

	GetOrganization(ctx context.Context, id string) (*Organization, error)
	GetOrganizationsByIds(ctx context.Context, ids []string) ([]Organization, error)
	CreateOrganization(ctx context.Context, org *Organization) error
	UpdateOrganizationWallet(ctx context.Context, id string, wallet decimal.Decimal) error

	GetUser(ctx context.Context, id string) (*User, error)
	GetUsersByIds(ctx context.Context, ids []string) ([]User, error)
	CreateUser(ctx context.Context, user *User) error
	UpdateUserWallet(ctx context.Context, id string, wallet decimal.Decimal) error

	GetSeller(ctx context.Context, id string) (*Seller, error)
	GetSellersByIds(ctx context.Context, ids []string) ([]Seller, error)
	CreateSeller(ctx context.Context, seller *Seller) error

	GetPurchase(ctx context.Context, id string) (*Purchase, error)
	GetPurchasesByIds(ctx context.Context, ids []string) ([]Purchase, error)
	CreatePurchase(ctx context.Context, purchase *Purchase) error
	StampPurchaseTransactionDate(ctx context.Context, id string, at time.Time) error

	GetPickupDelivery(ctx context.Context, id string) (*PickupDelivery, error)
	GetPickupDeliveriesByIds(ctx context.Context, ids []string) ([]PickupDelivery, error)
	CreatePickupDelivery(ctx context.Context, pickup *PickupDelivery) error

	CreateCashReconciliation(ctx context.Context, rec *CashReconciliation) error

	GetThresholdSettings(ctx context.Context, organizationId string) (*ThresholdSettings, error)
	UpsertThresholdSettings(ctx context.Context, settings *ThresholdSettings) error
	// ListSettingsWithUpperThreshold returns the settings whose upper threshold for class is not NULL.
	ListSettingsWithUpperThreshold(ctx context.Context, class SellerClass) ([]ThresholdSettings, error)

	IncrementSellerStats(ctx context.Context, inc StatsIncrement) error
	GetSellerStats(ctx context.Context, class SellerClass, sellerId string) (*SellerPurchaseStats, error)
	// ListSellerStatsForScan returns every stats row of class in the given organizations,
	// notified or not. It locks the returned rows when called inside a transaction.
	ListSellerStatsForScan(ctx context.Context, class SellerClass, organizationIds []string) ([]SellerPurchaseStats, error)
	MarkSellerStatsNotified(ctx context.Context, id int) error
	ResetSellerStats(ctx context.Context, id int, at time.Time) error

	CreateTodoList(ctx context.Context, todo *TodoList) error
	GetTodoList(ctx context.Context, organizationId string, id int) (*TodoList, error)
	// MarkTodoListDone flips an OPEN row to DONE and fails with utils.ErrTodoAlreadyDone otherwise.
	MarkTodoListDone(ctx context.Context, organizationId string, id int) error
	ListTodoLists(ctx context.Context, organizationId string, filter TodoListFilter) ([]TodoList, error)
}
