// Package memstore is an in-memory models.Store for tests and local runs.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mmdatafocus/marketplace_backend/models"
	"github.com/mmdatafocus/marketplace_backend/utils"
	"github.com/shopspring/decimal"
)

type state struct {
	organizations   map[string]models.Organization
	users           map[string]models.User
	sellers         map[string]models.Seller
	purchases       map[string]models.Purchase
	pickups         map[string]models.PickupDelivery
	reconciliations []models.CashReconciliation
	settings        map[string]models.ThresholdSettings
	stats           map[int]models.SellerPurchaseStats
	todos           map[int]models.TodoList

	nextSettingsId int
	nextStatsId    int
	nextTodoId     int
	nextReconId    int
}

func newState() *state {
	return &state{
		organizations: map[string]models.Organization{},
		users:         map[string]models.User{},
		sellers:       map[string]models.Seller{},
		purchases:     map[string]models.Purchase{},
		pickups:       map[string]models.PickupDelivery{},
		settings:      map[string]models.ThresholdSettings{},
		stats:         map[int]models.SellerPurchaseStats{},
		todos:         map[int]models.TodoList{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (st *state) clone() *state {
	c := *st
	c.organizations = cloneMap(st.organizations)
	c.users = cloneMap(st.users)
	c.sellers = cloneMap(st.sellers)
	c.purchases = cloneMap(st.purchases)
	c.pickups = cloneMap(st.pickups)
	c.reconciliations = append([]models.CashReconciliation(nil), st.reconciliations...)
	c.settings = cloneMap(st.settings)
	c.stats = cloneMap(st.stats)
	c.todos = cloneMap(st.todos)
	return &c
}

type root struct {
	mu     sync.Mutex
	state  *state
	faults map[string]error
	now    func() time.Time
}

// Store keeps all rows in maps guarded by one mutex. A transaction works on a
// copy of the data that replaces the committed copy only when fn succeeds.
type Store struct {
	root *root
	tx   *state
}

var _ models.Store = (*Store)(nil)

func New() *Store {
	return &Store{root: &root{
		state:  newState(),
		faults: map[string]error{},
		now:    func() time.Time { return time.Now().UTC() },
	}}
}

// SetClock overrides the time used for created_at/updated_at stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	s.root.now = now
}

// FailOn makes every later call of the named Store method return err. A nil err clears it.
func (s *Store) FailOn(method string, err error) {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	if err == nil {
		delete(s.root.faults, method)
		return
	}
	s.root.faults[method] = err
}

func (s *Store) with(ctx context.Context, method string, fn func(st *state, now time.Time) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", utils.ErrTransactionTimeout, err)
	}
	if s.tx != nil {
		if err := s.root.faults[method]; err != nil {
			return err
		}
		return fn(s.tx, s.root.now())
	}
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	if err := s.root.faults[method]; err != nil {
		return err
	}
	return fn(s.root.state, s.root.now())
}

func (s *Store) Transaction(ctx context.Context, opts models.TxOptions, fn func(tx models.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	if budget := opts.MaxWait + opts.Timeout; budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	if err := s.root.faults["Transaction"]; err != nil {
		return err
	}

	work := s.root.state.clone()
	if err := fn(&Store{root: s.root, tx: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", utils.ErrTransactionTimeout, err)
	}
	s.root.state = work
	return nil
}

func (s *Store) GetOrganization(ctx context.Context, id string) (*models.Organization, error) {
	var out models.Organization
	err := s.with(ctx, "GetOrganization", func(st *state, _ time.Time) error {
		org, ok := st.organizations[id]
		if !ok {
			return utils.ErrorRecordNotFound
		}
		out = org
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) CreateOrganization(ctx context.Context, org *models.Organization) error {
	return s.with(ctx, "CreateOrganization", func(st *state, now time.Time) error {
		if _, ok := st.organizations[org.ID]; ok {
			return utils.ErrDuplicateRecord
		}
		org.CreatedAt, org.UpdatedAt = now, now
		st.organizations[org.ID] = *org
		return nil
	})
}

func (s *Store) UpdateOrganizationWallet(ctx context.Context, id string, wallet decimal.Decimal) error {
	return s.with(ctx, "UpdateOrganizationWallet", func(st *state, now time.Time) error {
		org, ok := st.organizations[id]
		if !ok {
			return nil
		}
		org.Wallet, org.UpdatedAt = wallet, now
		st.organizations[id] = org
		return nil
	})
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var out models.User
	err := s.with(ctx, "GetUser", func(st *state, _ time.Time) error {
		user, ok := st.users[id]
		if !ok {
			return utils.ErrorRecordNotFound
		}
		out = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.with(ctx, "CreateUser", func(st *state, now time.Time) error {
		if _, ok := st.users[user.ID]; ok {
			return utils.ErrDuplicateRecord
		}
		user.CreatedAt, user.UpdatedAt = now, now
		st.users[user.ID] = *user
		return nil
	})
}

func (s *Store) UpdateUserWallet(ctx context.Context, id string, wallet decimal.Decimal) error {
	return s.with(ctx, "UpdateUserWallet", func(st *state, now time.Time) error {
		user, ok := st.users[id]
		if !ok {
			return nil
		}
		user.Wallet, user.UpdatedAt = wallet, now
		st.users[id] = user
		return nil
	})
}

func (s *Store) GetSeller(ctx context.Context, id string) (*models.Seller, error) {
	var out models.Seller
	err := s.with(ctx, "GetSeller", func(st *state, _ time.Time) error {
		seller, ok := st.sellers[id]
		if !ok {
			return utils.ErrorRecordNotFound
		}
		out = seller
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) CreateSeller(ctx context.Context, seller *models.Seller) error {
	return s.with(ctx, "CreateSeller", func(st *state, now time.Time) error {
		if _, ok := st.sellers[seller.ID]; ok {
			return utils.ErrDuplicateRecord
		}
		seller.CreatedAt, seller.UpdatedAt = now, now
		st.sellers[seller.ID] = *seller
		return nil
	})
}

func (s *Store) GetPurchase(ctx context.Context, id string) (*models.Purchase, error) {
	var out models.Purchase
	err := s.with(ctx, "GetPurchase", func(st *state, _ time.Time) error {
		purchase, ok := st.purchases[id]
		if !ok {
			return utils.ErrorRecordNotFound
		}
		out = purchase
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) CreatePurchase(ctx context.Context, purchase *models.Purchase) error {
	return s.with(ctx, "CreatePurchase", func(st *state, now time.Time) error {
		if _, ok := st.purchases[purchase.ID]; ok {
			return utils.ErrDuplicateRecord
		}
		purchase.CreatedAt, purchase.UpdatedAt = now, now
		st.purchases[purchase.ID] = *purchase
		return nil
	})
}

func (s *Store) StampPurchaseTransactionDate(ctx context.Context, id string, at time.Time) error {
	return s.with(ctx, "StampPurchaseTransactionDate", func(st *state, now time.Time) error {
		purchase, ok := st.purchases[id]
		if !ok {
			return nil
		}
		purchase.TransactionDate = &at
		purchase.UpdatedAt = now
		st.purchases[id] = purchase
		return nil
	})
}

func (s *Store) GetPickupDelivery(ctx context.Context, id string) (*models.PickupDelivery, error) {
	var out models.PickupDelivery
	err := s.with(ctx, "GetPickupDelivery", func(st *state, _ time.Time) error {
		pickup, ok := st.pickups[id]
		if !ok {
			return utils.ErrorRecordNotFound
		}
		out = pickup
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) CreatePickupDelivery(ctx context.Context, pickup *models.PickupDelivery) error {
	return s.with(ctx, "CreatePickupDelivery", func(st *state, now time.Time) error {
		if _, ok := st.pickups[pickup.ID]; ok {
			return utils.ErrDuplicateRecord
		}
		if pickup.Status == "" {
			pickup.Status = models.PickupStatusPending
		}
		pickup.CreatedAt, pickup.UpdatedAt = now, now
		st.pickups[pickup.ID] = *pickup
		return nil
	})
}

// DeletePickupDelivery removes a pickup row. The ledger keeps pointing at it.
func (s *Store) DeletePickupDelivery(ctx context.Context, id string) error {
	return s.with(ctx, "DeletePickupDelivery", func(st *state, _ time.Time) error {
		delete(st.pickups, id)
		return nil
	})
}

// DeletePurchase removes a purchase row. The ledger keeps pointing at it.
func (s *Store) DeletePurchase(ctx context.Context, id string) error {
	return s.with(ctx, "DeletePurchase", func(st *state, _ time.Time) error {
		delete(st.purchases, id)
		return nil
	})
}

func (s *Store) CreateCashReconciliation(ctx context.Context, rec *models.CashReconciliation) error {
	return s.with(ctx, "CreateCashReconciliation", func(st *state, now time.Time) error {
		st.nextReconId++
		rec.ID = st.nextReconId
		rec.CreatedAt = now
		st.reconciliations = append(st.reconciliations, *rec)
		return nil
	})
}

// CashReconciliations returns the recorded reconciliations in insertion order.
func (s *Store) CashReconciliations() []models.CashReconciliation {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	return append([]models.CashReconciliation(nil), s.root.state.reconciliations...)
}

func (s *Store) GetThresholdSettings(ctx context.Context, organizationId string) (*models.ThresholdSettings, error) {
	var out models.ThresholdSettings
	err := s.with(ctx, "GetThresholdSettings", func(st *state, _ time.Time) error {
		settings, ok := st.settings[organizationId]
		if !ok {
			return utils.ErrorRecordNotFound
		}
		out = settings
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) UpsertThresholdSettings(ctx context.Context, settings *models.ThresholdSettings) error {
	return s.with(ctx, "UpsertThresholdSettings", func(st *state, now time.Time) error {
		if existing, ok := st.settings[settings.OrganizationId]; ok {
			settings.ID = existing.ID
			settings.CreatedAt = existing.CreatedAt
		} else {
			st.nextSettingsId++
			settings.ID = st.nextSettingsId
			settings.CreatedAt = now
		}
		settings.UpdatedAt = now
		st.settings[settings.OrganizationId] = *settings
		return nil
	})
}

func (s *Store) ListSettingsWithUpperThreshold(ctx context.Context, class models.SellerClass) ([]models.ThresholdSettings, error) {
	var out []models.ThresholdSettings
	err := s.with(ctx, "ListSettingsWithUpperThreshold", func(st *state, _ time.Time) error {
		for _, settings := range st.settings {
			if settings.UpperThreshold(class).Valid {
				out = append(out, settings)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (s *Store) IncrementSellerStats(ctx context.Context, inc models.StatsIncrement) error {
	return s.with(ctx, "IncrementSellerStats", func(st *state, now time.Time) error {
		for id, row := range st.stats {
			if row.SellerClass == inc.SellerClass && row.SellerId == inc.SellerId {
				row.TotalSales = row.TotalSales.Add(inc.Amount)
				row.TotalQuantity += inc.Quantity
				row.UpdatedAt = inc.At
				st.stats[id] = row
				return nil
			}
		}
		st.nextStatsId++
		st.stats[st.nextStatsId] = models.SellerPurchaseStats{
			ID:               st.nextStatsId,
			SellerClass:      inc.SellerClass,
			SellerId:         inc.SellerId,
			OrganizationId:   inc.OrganizationId,
			TotalSales:       inc.Amount,
			TotalQuantity:    inc.Quantity,
			IsNotified:       false,
			LastReconciledAt: inc.At,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		return nil
	})
}

func (s *Store) GetSellerStats(ctx context.Context, class models.SellerClass, sellerId string) (*models.SellerPurchaseStats, error) {
	var out models.SellerPurchaseStats
	err := s.with(ctx, "GetSellerStats", func(st *state, _ time.Time) error {
		for _, row := range st.stats {
			if row.SellerClass == class && row.SellerId == sellerId {
				out = row
				return nil
			}
		}
		return utils.ErrorRecordNotFound
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// PutSellerStats stores row as is, assigning an id when it has none.
func (s *Store) PutSellerStats(ctx context.Context, row *models.SellerPurchaseStats) error {
	return s.with(ctx, "PutSellerStats", func(st *state, _ time.Time) error {
		if row.ID == 0 {
			st.nextStatsId++
			row.ID = st.nextStatsId
		} else if row.ID > st.nextStatsId {
			st.nextStatsId = row.ID
		}
		st.stats[row.ID] = *row
		return nil
	})
}

func (s *Store) ListSellerStatsForScan(ctx context.Context, class models.SellerClass, organizationIds []string) ([]models.SellerPurchaseStats, error) {
	if len(organizationIds) == 0 {
		return nil, nil
	}
	orgs := make(map[string]bool, len(organizationIds))
	for _, id := range organizationIds {
		orgs[id] = true
	}
	var out []models.SellerPurchaseStats
	err := s.with(ctx, "ListSellerStatsForScan", func(st *state, _ time.Time) error {
		for _, row := range st.stats {
			if row.SellerClass == class && orgs[row.OrganizationId] {
				out = append(out, row)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (s *Store) MarkSellerStatsNotified(ctx context.Context, id int) error {
	return s.with(ctx, "MarkSellerStatsNotified", func(st *state, now time.Time) error {
		row, ok := st.stats[id]
		if !ok {
			return utils.ErrorRecordNotFound
		}
		row.IsNotified = true
		row.UpdatedAt = now
		st.stats[id] = row
		return nil
	})
}

func (s *Store) ResetSellerStats(ctx context.Context, id int, at time.Time) error {
	return s.with(ctx, "ResetSellerStats", func(st *state, now time.Time) error {
		row, ok := st.stats[id]
		if !ok {
			return utils.ErrorRecordNotFound
		}
		row.TotalSales = decimal.Zero
		row.TotalQuantity = 0
		row.IsNotified = false
		row.LastReconciledAt = at
		row.UpdatedAt = now
		st.stats[id] = row
		return nil
	})
}

func (s *Store) CreateTodoList(ctx context.Context, todo *models.TodoList) error {
	return s.with(ctx, "CreateTodoList", func(st *state, now time.Time) error {
		st.nextTodoId++
		todo.ID = st.nextTodoId
		if todo.Status == "" {
			todo.Status = models.TodoListStatusOpen
		}
		todo.CreatedAt, todo.UpdatedAt = now, now
		st.todos[todo.ID] = *todo
		return nil
	})
}

func (s *Store) GetTodoList(ctx context.Context, organizationId string, id int) (*models.TodoList, error) {
	var out models.TodoList
	err := s.with(ctx, "GetTodoList", func(st *state, _ time.Time) error {
		todo, ok := st.todos[id]
		if !ok || todo.OrganizationId != organizationId {
			return utils.ErrorRecordNotFound
		}
		out = todo
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) MarkTodoListDone(ctx context.Context, organizationId string, id int) error {
	return s.with(ctx, "MarkTodoListDone", func(st *state, now time.Time) error {
		todo, ok := st.todos[id]
		if !ok || todo.OrganizationId != organizationId {
			return utils.ErrorRecordNotFound
		}
		if todo.Status != models.TodoListStatusOpen {
			return utils.ErrTodoAlreadyDone
		}
		todo.Status = models.TodoListStatusDone
		todo.UpdatedAt = now
		st.todos[id] = todo
		return nil
	})
}

func (s *Store) ListTodoLists(ctx context.Context, organizationId string, filter models.TodoListFilter) ([]models.TodoList, error) {
	events := make(map[models.TodoListEvent]bool, len(filter.Events))
	for _, e := range filter.Events {
		events[e] = true
	}
	var out []models.TodoList
	err := s.with(ctx, "ListTodoLists", func(st *state, _ time.Time) error {
		for _, todo := range st.todos {
			if todo.OrganizationId != organizationId {
				continue
			}
			if filter.Status != nil && todo.Status != *filter.Status {
				continue
			}
			if len(events) > 0 && !events[todo.Event] {
				continue
			}
			if filter.From != nil && todo.CreatedAt.Before(*filter.From) {
				continue
			}
			if filter.To != nil && todo.CreatedAt.After(*filter.To) {
				continue
			}
			out = append(out, todo)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// AllTodoLists returns every ledger row across organizations ordered by id.
func (s *Store) AllTodoLists() []models.TodoList {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	out := make([]models.TodoList, 0, len(s.root.state.todos))
	for _, todo := range s.root.state.todos {
		out = append(out, todo)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func pick[V any](src map[string]V, ids []string) []V {
	out := make([]V, 0, len(ids))
	for _, id := range ids {
		if v, ok := src[id]; ok {
			out = append(out, v)
		}
	}
	return out
}

func (s *Store) GetOrganizationsByIds(ctx context.Context, ids []string) ([]models.Organization, error) {
	var out []models.Organization
	err := s.with(ctx, "GetOrganizationsByIds", func(st *state, _ time.Time) error {
		out = pick(st.organizations, ids)
		return nil
	})
	return out, err
}

func (s *Store) GetUsersByIds(ctx context.Context, ids []string) ([]models.User, error) {
	var out []models.User
	err := s.with(ctx, "GetUsersByIds", func(st *state, _ time.Time) error {
		out = pick(st.users, ids)
		return nil
	})
	return out, err
}

func (s *Store) GetSellersByIds(ctx context.Context, ids []string) ([]models.Seller, error) {
	var out []models.Seller
	err := s.with(ctx, "GetSellersByIds", func(st *state, _ time.Time) error {
		out = pick(st.sellers, ids)
		return nil
	})
	return out, err
}

func (s *Store) GetPurchasesByIds(ctx context.Context, ids []string) ([]models.Purchase, error) {
	var out []models.Purchase
	err := s.with(ctx, "GetPurchasesByIds", func(st *state, _ time.Time) error {
		out = pick(st.purchases, ids)
		return nil
	})
	return out, err
}

func (s *Store) GetPickupDeliveriesByIds(ctx context.Context, ids []string) ([]models.PickupDelivery, error) {
	var out []models.PickupDelivery
	err := s.with(ctx, "GetPickupDeliveriesByIds", func(st *state, _ time.Time) error {
		out = pick(st.pickups, ids)
		return nil
	})
	return out, err
}
