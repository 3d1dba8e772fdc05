package models

import (
	"fmt"

	"github.com/mmdatafocus/marketplace_backend/utils"
)

type TodoListEvent string

const (
	TodoListEventCompanyCashBalanceBelowThreshold    TodoListEvent = "COMPANY_CASH_BALANCE_BELOW_THRESHOLD"
	TodoListEventIndividualCashBalanceBelowThreshold TodoListEvent = "INDIVIDUAL_CASH_BALANCE_BELOW_THRESHOLD"
	TodoListEventIndividualCashBalanceAboveThreshold TodoListEvent = "INDIVIDUAL_CASH_BALANCE_ABOVE_THRESHOLD"
	TodoListEventOrderPickupInitiated                TodoListEvent = "ORDER_PICKUP_INITIATED"
	TodoListEventPurchaseInitiatedWithBankTransfer   TodoListEvent = "PURCHASE_INITIATED_WITH_BANK_TRANSFER"
	TodoListEventPrivateSellerSalesAboveThreshold    TodoListEvent = "PRIVATE_SELLER_SALES_ABOVE_THRESHOLD"
	TodoListEventSellerCashSalesAboveThreshold       TodoListEvent = "SELLER_CASH_SALES_ABOVE_THRESHOLD"
)

// AllTodoListEvents lists every event in declaration order.
var AllTodoListEvents = []TodoListEvent{
	TodoListEventCompanyCashBalanceBelowThreshold,
	TodoListEventIndividualCashBalanceBelowThreshold,
	TodoListEventIndividualCashBalanceAboveThreshold,
	TodoListEventOrderPickupInitiated,
	TodoListEventPurchaseInitiatedWithBankTransfer,
	TodoListEventPrivateSellerSalesAboveThreshold,
	TodoListEventSellerCashSalesAboveThreshold,
}

func (e TodoListEvent) IsValid() bool {
	for _, v := range AllTodoListEvents {
		if v == e {
			return true
		}
	}
	return false
}

func ParseTodoListEvent(s string) (TodoListEvent, error) {
	e := TodoListEvent(s)
	if !e.IsValid() {
		return "", fmt.Errorf("%w: %q", utils.ErrUnrecognizedEvent, s)
	}
	return e, nil
}

type TodoListStatus string

const (
	TodoListStatusOpen TodoListStatus = "OPEN"
	TodoListStatusDone TodoListStatus = "DONE"
)

func (s TodoListStatus) IsValid() bool {
	return s == TodoListStatusOpen || s == TodoListStatusDone
}

// SellerClass discriminates the two seller stats populations.
type SellerClass string

const (
	SellerClassPrivate SellerClass = "PRIVATE"
	SellerClassGeneral SellerClass = "GENERAL"
)

var AllSellerClasses = []SellerClass{SellerClassPrivate, SellerClassGeneral}

func (c SellerClass) IsValid() bool {
	return c == SellerClassPrivate || c == SellerClassGeneral
}

func ParseSellerClass(s string) (SellerClass, error) {
	c := SellerClass(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid seller class %q", s)
	}
	return c, nil
}

// AboveThresholdEvent is the todo event raised when a seller of this class crosses its upper threshold.
func (c SellerClass) AboveThresholdEvent() TodoListEvent {
	if c == SellerClassPrivate {
		return TodoListEventPrivateSellerSalesAboveThreshold
	}
	return TodoListEventSellerCashSalesAboveThreshold
}

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodCash || m == PaymentMethodBankTransfer
}

type PickupStatus string

const (
	PickupStatusPending  PickupStatus = "PENDING"
	PickupStatusPickedUp PickupStatus = "PICKED_UP"
)
