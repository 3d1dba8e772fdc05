package models

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/mmdatafocus/marketplace_backend/utils"
	"github.com/shopspring/decimal"
)

// TodoMeta is the event-specific payload of a todo list row.
// The concrete type is fixed by the row's event, see todoMetaTypes.
type TodoMeta interface {
	isTodoMeta()
}

type PickupOrderMeta struct {
	PickUpOrderId string `json:"pickUpOrderId"`
}

type PurchaseMeta struct {
	PurchaseId string `json:"purchaseId"`
}

type SellerSalesMeta struct {
	SellerId      string          `json:"sellerId"`
	TotalSales    decimal.Decimal `json:"totalSales"`
	TotalQuantity int             `json:"totalQuantity"`
}

// CashBalanceMeta snapshots a wallet at registration time. UserId is set for individual events.
type CashBalanceMeta struct {
	OrganizationId   string              `json:"organizationId,omitempty"`
	UserId           string              `json:"userId,omitempty"`
	CurrentBalance   decimal.Decimal     `json:"currentBalance"`
	ThresholdBalance decimal.NullDecimal `json:"thresholdBalance"`
}

func (*PickupOrderMeta) isTodoMeta() {}
func (*PurchaseMeta) isTodoMeta()    {}
func (*SellerSalesMeta) isTodoMeta() {}
func (*CashBalanceMeta) isTodoMeta() {}

var todoMetaTypes = map[TodoListEvent]func() TodoMeta{
	TodoListEventCompanyCashBalanceBelowThreshold:    func() TodoMeta { return &CashBalanceMeta{} },
	TodoListEventIndividualCashBalanceBelowThreshold: func() TodoMeta { return &CashBalanceMeta{} },
	TodoListEventIndividualCashBalanceAboveThreshold: func() TodoMeta { return &CashBalanceMeta{} },
	TodoListEventOrderPickupInitiated:                func() TodoMeta { return &PickupOrderMeta{} },
	TodoListEventPurchaseInitiatedWithBankTransfer:   func() TodoMeta { return &PurchaseMeta{} },
	TodoListEventPrivateSellerSalesAboveThreshold:    func() TodoMeta { return &SellerSalesMeta{} },
	TodoListEventSellerCashSalesAboveThreshold:       func() TodoMeta { return &SellerSalesMeta{} },
}

// NewTodoMeta returns an empty meta value of the type event carries.
func NewTodoMeta(event TodoListEvent) (TodoMeta, error) {
	factory, ok := todoMetaTypes[event]
	if !ok {
		return nil, fmt.Errorf("%w: %q", utils.ErrUnrecognizedEvent, event)
	}
	return factory(), nil
}

func EncodeTodoMeta(event TodoListEvent, meta TodoMeta) (json.RawMessage, error) {
	want, err := NewTodoMeta(event)
	if err != nil {
		return nil, err
	}
	if meta == nil || reflect.TypeOf(meta) != reflect.TypeOf(want) {
		return nil, fmt.Errorf("meta %T does not belong to event %s", meta, event)
	}
	return json.Marshal(meta)
}

func DecodeTodoMeta(event TodoListEvent, raw json.RawMessage) (TodoMeta, error) {
	meta, err := NewTodoMeta(event)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty meta for event %s", event)
	}
	if err := json.Unmarshal(raw, meta); err != nil {
		return nil, fmt.Errorf("decode %s meta: %w", event, err)
	}
	return meta, nil
}
