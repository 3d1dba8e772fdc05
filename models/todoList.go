package models

import (
	"encoding/json"
	"time"
)

// TodoList is one row of the event ledger. Rows are never deleted and move OPEN -> DONE once.
type TodoList struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OrganizationId string          `gorm:"size:36;not null;index:idx_todo_org_created,priority:1" json:"organization_id"`
	Event          TodoListEvent   `gorm:"type:enum('COMPANY_CASH_BALANCE_BELOW_THRESHOLD','INDIVIDUAL_CASH_BALANCE_BELOW_THRESHOLD','INDIVIDUAL_CASH_BALANCE_ABOVE_THRESHOLD','ORDER_PICKUP_INITIATED','PURCHASE_INITIATED_WITH_BANK_TRANSFER','PRIVATE_SELLER_SALES_ABOVE_THRESHOLD','SELLER_CASH_SALES_ABOVE_THRESHOLD');not null;index" json:"event"`
	Status         TodoListStatus  `gorm:"type:enum('OPEN','DONE');default:OPEN;not null;index" json:"status"`
	Meta           json.RawMessage `gorm:"type:json" json:"meta"`
	CreatedAt      time.Time       `gorm:"autoCreateTime;index:idx_todo_org_created,priority:2" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TodoList) TableName() string { return "todo_lists" }

func (t *TodoList) DecodeMeta() (TodoMeta, error) {
	return DecodeTodoMeta(t.Event, t.Meta)
}

type TodoListFilter struct {
	Status *TodoListStatus
	Events []TodoListEvent
	From   *time.Time
	To     *time.Time
	Limit  int
}
