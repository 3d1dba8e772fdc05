package workflow

import (
	"context"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/marketplace_backend/models"
	"github.com/mmdatafocus/marketplace_backend/utils"
)

// referenceLoaders batch the soft-reference lookups of one todo list read.
// They cache for their own lifetime, so build a fresh set per read.
type referenceLoaders struct {
	organizations *dataloader.Loader[string, *models.Organization]
	users         *dataloader.Loader[string, *models.User]
	sellers       *dataloader.Loader[string, *models.Seller]
	purchases     *dataloader.Loader[string, *models.Purchase]
	pickups       *dataloader.Loader[string, *models.PickupDelivery]
}

func newReferenceLoaders(store models.Store) *referenceLoaders {
	return &referenceLoaders{
		organizations: dataloader.NewBatchedLoader(
			batchByIds(store.GetOrganizationsByIds, func(o *models.Organization) string { return o.ID }),
			dataloader.WithWait[string, *models.Organization](time.Millisecond),
		),
		users: dataloader.NewBatchedLoader(
			batchByIds(store.GetUsersByIds, func(u *models.User) string { return u.ID }),
			dataloader.WithWait[string, *models.User](time.Millisecond),
		),
		sellers: dataloader.NewBatchedLoader(
			batchByIds(store.GetSellersByIds, func(s *models.Seller) string { return s.ID }),
			dataloader.WithWait[string, *models.Seller](time.Millisecond),
		),
		purchases: dataloader.NewBatchedLoader(
			batchByIds(store.GetPurchasesByIds, func(p *models.Purchase) string { return p.ID }),
			dataloader.WithWait[string, *models.Purchase](time.Millisecond),
		),
		pickups: dataloader.NewBatchedLoader(
			batchByIds(store.GetPickupDeliveriesByIds, func(p *models.PickupDelivery) string { return p.ID }),
			dataloader.WithWait[string, *models.PickupDelivery](time.Millisecond),
		),
	}
}

func handleError[V any](itemsLength int, err error) []*dataloader.Result[V] {
	result := make([]*dataloader.Result[V], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[V]{Error: err}
	}
	return result
}

// batchByIds turns a by-ids store lookup into a batch function. Ids the store
// did not return resolve to utils.ErrorRecordNotFound.
func batchByIds[T any](fetch func(context.Context, []string) ([]T, error), idOf func(*T) string) dataloader.BatchFunc[string, *T] {
	return func(ctx context.Context, ids []string) []*dataloader.Result[*T] {
		rows, err := fetch(ctx, ids)
		if err != nil {
			return handleError[*T](len(ids), err)
		}
		byId := make(map[string]*T, len(rows))
		for i := range rows {
			byId[idOf(&rows[i])] = &rows[i]
		}
		results := make([]*dataloader.Result[*T], 0, len(ids))
		for _, id := range ids {
			if row, ok := byId[id]; ok {
				results = append(results, &dataloader.Result[*T]{Data: row})
				continue
			}
			results = append(results, &dataloader.Result[*T]{Error: utils.ErrorRecordNotFound})
		}
		return results
	}
}

// await defers reading thunk until the batch has run.
func await[V any](thunk dataloader.Thunk[V], assign func(V)) func() error {
	return func() error {
		v, err := thunk()
		if err != nil {
			return err
		}
		assign(v)
		return nil
	}
}

func notFound() error { return utils.ErrorRecordNotFound }
