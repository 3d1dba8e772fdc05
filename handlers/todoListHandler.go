package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/marketplace_backend/models"
	"github.com/mmdatafocus/marketplace_backend/utils"
	"github.com/mmdatafocus/marketplace_backend/workflow"
)

const maxTodoListLimit = 500

func parseTodoListFilter(c *gin.Context) (models.TodoListFilter, error) {
	var filter models.TodoListFilter
	if raw := c.Query("status"); raw != "" {
		status := models.TodoListStatus(raw)
		if !status.IsValid() {
			return filter, fmt.Errorf("invalid status %q", raw)
		}
		filter.Status = &status
	}
	for _, raw := range utils.SplitAndTrim(c.Query("event")) {
		event, err := models.ParseTodoListEvent(raw)
		if err != nil {
			return filter, err
		}
		filter.Events = append(filter.Events, event)
	}
	for key, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid %s: %w", key, err)
		}
		t = t.UTC()
		*dst = &t
	}
	filter.Limit = maxTodoListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return filter, fmt.Errorf("invalid limit %q", raw)
		}
		filter.Limit = min(n, maxTodoListLimit)
	}
	return filter, nil
}

func (h *Handler) listTodoLists(c *gin.Context) {
	filter, err := parseTodoListFilter(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	items, err := workflow.ListTodoLists(c.Request.Context(), h.Store, h.Logger, organizationId(c), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (h *Handler) exportTodoLists(c *gin.Context) {
	filter, err := parseTodoListFilter(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	items, err := workflow.ListTodoLists(c.Request.Context(), h.Store, h.Logger, organizationId(c), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	f, err := todoListWorkbook(items)
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=todo-lists.xlsx")
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}

type completeTodoListRequest struct {
	Event       string     `json:"event" validate:"required"`
	PurchaseId  *string    `json:"purchase_id"`
	PaymentDate *time.Time `json:"payment_date"`
}

func (h *Handler) completeTodoList(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid todo list id"})
		return
	}
	var req completeTodoListRequest
	if !bindJSON(c, &req) {
		return
	}
	event, err := models.ParseTodoListEvent(req.Event)
	if err != nil {
		h.respondError(c, err)
		return
	}

	todo, err := workflow.CompleteEvent(c.Request.Context(), h.Store, event, workflow.CompletionInput{
		OrganizationId: organizationId(c),
		TodoListId:     id,
		PurchaseId:     req.PurchaseId,
		PaymentDate:    req.PaymentDate,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": todo})
}
