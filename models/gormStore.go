package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/mmdatafocus/marketplace_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	mysqlErrDuplicateEntry    = 1062
	mysqlErrLockWaitTimeout   = 1205
	mysqlErrQueryInterrupted  = 1317
	mysqlErrMaxExecutionTimer = 3024
)

// GormStore implements Store on MySQL through gorm.
type GormStore struct {
	db   *gorm.DB
	inTx bool
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *GormStore) Transaction(ctx context.Context, opts TxOptions, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if budget := opts.MaxWait + opts.Timeout; budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, inTx: true})
	})
	if err != nil && ctx.Err() != nil && !errors.Is(err, utils.ErrTransactionTimeout) {
		return fmt.Errorf("%w: %v", utils.ErrTransactionTimeout, err)
	}
	return translateError(err)
}

// translateError maps driver errors onto the utils error kinds.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.ErrorRecordNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, utils.ErrTransactionTimeout) {
		return fmt.Errorf("%w: %v", utils.ErrTransactionTimeout, err)
	}
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlErrDuplicateEntry:
			return fmt.Errorf("%w: %v", utils.ErrDuplicateRecord, err)
		case mysqlErrLockWaitTimeout, mysqlErrQueryInterrupted, mysqlErrMaxExecutionTimer:
			return fmt.Errorf("%w: %v", utils.ErrTransactionTimeout, err)
		}
	}
	return err
}

// findByIds returns the rows whose id is in ids; missing ids are simply absent.
func findByIds[T any](q *gorm.DB, ids []string) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []T
	err := q.Where("id IN ?", ids).Find(&out).Error
	return out, translateError(err)
}

func first[T any](q *gorm.DB) (*T, error) {
	var out T
	if err := q.First(&out).Error; err != nil {
		return nil, translateError(err)
	}
	return &out, nil
}

func (s *GormStore) GetOrganization(ctx context.Context, id string) (*Organization, error) {
	return first[Organization](s.conn(ctx).Where("id = ?", id))
}

func (s *GormStore) CreateOrganization(ctx context.Context, org *Organization) error {
	return translateError(s.conn(ctx).Create(org).Error)
}

func (s *GormStore) UpdateOrganizationWallet(ctx context.Context, id string, wallet decimal.Decimal) error {
	return translateError(s.conn(ctx).Model(&Organization{}).Where("id = ?", id).Update("wallet", wallet).Error)
}

func (s *GormStore) GetUser(ctx context.Context, id string) (*User, error) {
	return first[User](s.conn(ctx).Where("id = ?", id))
}

func (s *GormStore) CreateUser(ctx context.Context, user *User) error {
	return translateError(s.conn(ctx).Create(user).Error)
}

func (s *GormStore) UpdateUserWallet(ctx context.Context, id string, wallet decimal.Decimal) error {
	return translateError(s.conn(ctx).Model(&User{}).Where("id = ?", id).Update("wallet", wallet).Error)
}

func (s *GormStore) GetSeller(ctx context.Context, id string) (*Seller, error) {
	return first[Seller](s.conn(ctx).Where("id = ?", id))
}

func (s *GormStore) CreateSeller(ctx context.Context, seller *Seller) error {
	return translateError(s.conn(ctx).Create(seller).Error)
}

func (s *GormStore) GetPurchase(ctx context.Context, id string) (*Purchase, error) {
	return first[Purchase](s.conn(ctx).Where("id = ?", id))
}

func (s *GormStore) CreatePurchase(ctx context.Context, purchase *Purchase) error {
	return translateError(s.conn(ctx).Create(purchase).Error)
}

func (s *GormStore) StampPurchaseTransactionDate(ctx context.Context, id string, at time.Time) error {
	return translateError(s.conn(ctx).Model(&Purchase{}).Where("id = ?", id).Update("transaction_date", at).Error)
}

func (s *GormStore) GetPickupDelivery(ctx context.Context, id string) (*PickupDelivery, error) {
	return first[PickupDelivery](s.conn(ctx).Where("id = ?", id))
}

func (s *GormStore) CreatePickupDelivery(ctx context.Context, pickup *PickupDelivery) error {
	return translateError(s.conn(ctx).Create(pickup).Error)
}

func (s *GormStore) CreateCashReconciliation(ctx context.Context, rec *CashReconciliation) error {
	return translateError(s.conn(ctx).Create(rec).Error)
}

func (s *GormStore) GetThresholdSettings(ctx context.Context, organizationId string) (*ThresholdSettings, error) {
	return first[ThresholdSettings](s.conn(ctx).Where("organization_id = ?", organizationId))
}

func (s *GormStore) UpsertThresholdSettings(ctx context.Context, settings *ThresholdSettings) error {
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "organization_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"company_cash_balance_lower_threshold",
			"individual_cash_balance_lower_threshold",
			"private_seller_sales_balance_upper_threshold",
			"seller_sales_balance_upper_threshold",
			"updated_at",
		}),
	}).Create(settings).Error
	return translateError(err)
}

func (s *GormStore) ListSettingsWithUpperThreshold(ctx context.Context, class SellerClass) ([]ThresholdSettings, error) {
	var settings []ThresholdSettings
	err := s.conn(ctx).
		Where(fmt.Sprintf("%s IS NOT NULL", UpperThresholdColumn(class))).
		Order("id ASC").
		Find(&settings).Error
	return settings, translateError(err)
}

// IncrementSellerStats inserts the row or adds to its totals in one statement
// (INSERT ... ON DUPLICATE KEY UPDATE on the (seller_class, seller_id) key).
func (s *GormStore) IncrementSellerStats(ctx context.Context, inc StatsIncrement) error {
	row := SellerPurchaseStats{
		SellerClass:      inc.SellerClass,
		SellerId:         inc.SellerId,
		OrganizationId:   inc.OrganizationId,
		TotalSales:       inc.Amount,
		TotalQuantity:    inc.Quantity,
		IsNotified:       false,
		LastReconciledAt: inc.At,
	}
	err := s.conn(ctx).Clauses(clause.OnConflict{
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_sales":    gorm.Expr("total_sales + ?", inc.Amount),
			"total_quantity": gorm.Expr("total_quantity + ?", inc.Quantity),
			"updated_at":     inc.At,
		}),
	}).Create(&row).Error
	return translateError(err)
}

func (s *GormStore) GetSellerStats(ctx context.Context, class SellerClass, sellerId string) (*SellerPurchaseStats, error) {
	return first[SellerPurchaseStats](s.conn(ctx).Where("seller_class = ? AND seller_id = ?", class, sellerId))
}

func (s *GormStore) ListSellerStatsForScan(ctx context.Context, class SellerClass, organizationIds []string) ([]SellerPurchaseStats, error) {
	if len(organizationIds) == 0 {
		return nil, nil
	}
	q := s.conn(ctx).
		Where("seller_class = ?", class).
		Where("organization_id IN ?", organizationIds).
		Order("id ASC")
	if s.inTx {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var stats []SellerPurchaseStats
	err := q.Find(&stats).Error
	return stats, translateError(err)
}

func (s *GormStore) MarkSellerStatsNotified(ctx context.Context, id int) error {
	return translateError(s.conn(ctx).Model(&SellerPurchaseStats{}).Where("id = ?", id).Update("is_notified", true).Error)
}

func (s *GormStore) ResetSellerStats(ctx context.Context, id int, at time.Time) error {
	err := s.conn(ctx).Model(&SellerPurchaseStats{}).Where("id = ?", id).Updates(map[string]interface{}{
		"total_sales":        decimal.Zero,
		"total_quantity":     0,
		"is_notified":        false,
		"last_reconciled_at": at,
	}).Error
	return translateError(err)
}

func (s *GormStore) CreateTodoList(ctx context.Context, todo *TodoList) error {
	if todo.Status == "" {
		todo.Status = TodoListStatusOpen
	}
	return translateError(s.conn(ctx).Create(todo).Error)
}

func (s *GormStore) GetTodoList(ctx context.Context, organizationId string, id int) (*TodoList, error) {
	return first[TodoList](s.conn(ctx).Where("id = ? AND organization_id = ?", id, organizationId))
}

func (s *GormStore) MarkTodoListDone(ctx context.Context, organizationId string, id int) error {
	res := s.conn(ctx).Model(&TodoList{}).
		Where("id = ? AND organization_id = ? AND status = ?", id, organizationId, TodoListStatusOpen).
		Update("status", TodoListStatusDone)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetTodoList(ctx, organizationId, id); err != nil {
			return err
		}
		return utils.ErrTodoAlreadyDone
	}
	return nil
}

func (s *GormStore) ListTodoLists(ctx context.Context, organizationId string, filter TodoListFilter) ([]TodoList, error) {
	q := s.conn(ctx).Where("organization_id = ?", organizationId)
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if len(filter.Events) > 0 {
		q = q.Where("event IN ?", filter.Events)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", *filter.To)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var todos []TodoList
	err := q.Order("created_at DESC").Order("id DESC").Find(&todos).Error
	return todos, translateError(err)
}

func (s *GormStore) GetOrganizationsByIds(ctx context.Context, ids []string) ([]Organization, error) {
	return findByIds[Organization](s.conn(ctx), ids)
}

func (s *GormStore) GetUsersByIds(ctx context.Context, ids []string) ([]User, error) {
	return findByIds[User](s.conn(ctx), ids)
}

func (s *GormStore) GetSellersByIds(ctx context.Context, ids []string) ([]Seller, error) {
	return findByIds[Seller](s.conn(ctx), ids)
}

func (s *GormStore) GetPurchasesByIds(ctx context.Context, ids []string) ([]Purchase, error) {
	return findByIds[Purchase](s.conn(ctx), ids)
}

func (s *GormStore) GetPickupDeliveriesByIds(ctx context.Context, ids []string) ([]PickupDelivery, error) {
	return findByIds[PickupDelivery](s.conn(ctx), ids)
}
