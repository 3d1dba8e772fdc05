// Package handlers exposes the todo list engine over gin.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/marketplace_backend/middlewares"
	"github.com/mmdatafocus/marketplace_backend/models"
	"github.com/mmdatafocus/marketplace_backend/utils"
	"github.com/mmdatafocus/marketplace_backend/workflow"
	"github.com/sirupsen/logrus"
)

// ScanRunner triggers one threshold scan; *workflow.ThresholdScheduler implements it.
type ScanRunner interface {
	RunOnce(ctx context.Context, class models.SellerClass) (*workflow.ScanResult, error)
}

type Handler struct {
	Store    models.Store
	Logger   *logrus.Logger
	Notifier workflow.Notifier
	Scans    ScanRunner
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	api := r.Group("/api", middlewares.RequireSession())
	api.GET("/todo-lists", h.listTodoLists)
	api.GET("/todo-lists/export", h.exportTodoLists)
	api.POST("/todo-lists/:id/complete", h.completeTodoList)
	api.GET("/threshold-settings", h.getThresholdSettings)
	api.PUT("/threshold-settings", h.putThresholdSettings)
	api.POST("/purchases", h.createPurchase)
	api.POST("/cash-reconciliations", h.createCashReconciliation)
	api.POST("/seller-stats/increment", h.incrementSellerStats)

	ops := r.Group("/internal/ops", middlewares.RequireAdmin())
	ops.POST("/threshold-scan/:class", h.runThresholdScan)
}

func organizationId(c *gin.Context) string {
	id, _ := utils.GetOrganizationIdFromContext(c.Request.Context())
	return id
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, utils.ErrMissingParameter),
		errors.Is(err, utils.ErrUnrecognizedEvent),
		errors.Is(err, utils.ErrEventMismatch),
		errors.Is(err, workflow.ErrInvalidPurchase),
		errors.Is(err, workflow.ErrInvalidReconciliation),
		errors.Is(err, workflow.ErrInvalidIncrement):
		return http.StatusBadRequest
	case errors.Is(err, utils.ErrTodoAlreadyDone),
		errors.Is(err, utils.ErrDuplicateRecord),
		errors.Is(err, utils.ErrScanInProgress):
		return http.StatusConflict
	case errors.Is(err, utils.ErrTransactionTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// bindJSON decodes the body into req and runs its validate tags.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": utils.ProcessValidationErrors(err)})
		return false
	}
	if err := utils.ValidateStruct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": utils.ProcessValidationErrors(err)})
		return false
	}
	return true
}
