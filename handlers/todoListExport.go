package handlers

import (
	"fmt"
	"time"

	"github.com/mmdatafocus/marketplace_backend/models"
	"github.com/mmdatafocus/marketplace_backend/workflow"
	"github.com/xuri/excelize/v2"
)

const todoListSheet = "TodoLists"

var todoListHeadings = []string{"ID", "Event", "Status", "Reference", "Amount", "Created At", "Updated At"}

func todoListWorkbook(items []workflow.ResolvedTodoList) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", todoListSheet); err != nil {
		f.Close()
		return nil, err
	}

	for i, h := range todoListHeadings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		f.SetCellValue(todoListSheet, cell, h)
	}

	for i, item := range items {
		row := i + 2
		reference, amount := todoReferenceAndAmount(item)
		values := []any{
			item.ID,
			string(item.Event),
			string(item.Status),
			reference,
			amount,
			item.CreatedAt.Format(time.RFC3339),
			item.UpdatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			f.SetCellValue(todoListSheet, fmt.Sprintf("%c%d", 'A'+col, row), v)
		}
	}
	return f, nil
}

// todoReferenceAndAmount summarizes the resolved reference of a row for the export.
func todoReferenceAndAmount(item workflow.ResolvedTodoList) (string, string) {
	switch {
	case item.Purchase != nil:
		return "purchase " + item.Purchase.ID, item.Purchase.Amount.StringFixed(2)
	case item.PickupDelivery != nil:
		return "pickup " + item.PickupDelivery.ID, ""
	case item.Seller != nil:
		if meta, ok := item.Meta.(*models.SellerSalesMeta); ok {
			return "seller " + item.Seller.Name, meta.TotalSales.StringFixed(2)
		}
		return "seller " + item.Seller.Name, ""
	case item.User != nil:
		if meta, ok := item.Meta.(*models.CashBalanceMeta); ok {
			return "user " + item.User.Name, meta.CurrentBalance.StringFixed(2)
		}
		return "user " + item.User.Name, ""
	case item.Organization != nil:
		if meta, ok := item.Meta.(*models.CashBalanceMeta); ok {
			return "organization " + item.Organization.Name, meta.CurrentBalance.StringFixed(2)
		}
		return "organization " + item.Organization.Name, ""
	}
	return "", ""
}
