package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/marketplace_backend/models"
	"github.com/mmdatafocus/marketplace_backend/utils"
	"github.com/mmdatafocus/marketplace_backend/workflow"
	"github.com/shopspring/decimal"
)

type createPurchaseRequest struct {
	ID                string          `json:"id" validate:"omitempty,uuid"`
	SellerId          string          `json:"seller_id" validate:"required"`
	UserId            string          `json:"user_id"`
	Amount            decimal.Decimal `json:"amount"`
	Quantity          int             `json:"quantity" validate:"required,gt=0"`
	PaymentMethod     string          `json:"payment_method" validate:"required,oneof=CASH BANK_TRANSFER"`
	Pickup            bool            `json:"pickup"`
	PickupScheduledAt *time.Time      `json:"pickup_scheduled_at"`
}

func (h *Handler) createPurchase(c *gin.Context) {
	var req createPurchaseRequest
	if !bindJSON(c, &req) {
		return
	}
	userId := req.UserId
	if userId == "" {
		userId, _ = utils.GetUserIdFromContext(c.Request.Context())
	}

	result, err := workflow.CreatePurchase(c.Request.Context(), h.Store, h.Logger, h.Notifier, workflow.NewPurchase{
		ID:                req.ID,
		OrganizationId:    organizationId(c),
		SellerId:          req.SellerId,
		UserId:            userId,
		Amount:            req.Amount,
		Quantity:          req.Quantity,
		PaymentMethod:     models.PaymentMethod(req.PaymentMethod),
		Pickup:            req.Pickup,
		PickupScheduledAt: req.PickupScheduledAt,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": result})
}

type createCashReconciliationRequest struct {
	UserId        string          `json:"user_id"`
	CountedAmount decimal.Decimal `json:"counted_amount"`
	Note          string          `json:"note" validate:"max=1000"`
}

func (h *Handler) createCashReconciliation(c *gin.Context) {
	var req createCashReconciliationRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := workflow.CreateCashReconciliation(c.Request.Context(), h.Store, h.Logger, h.Notifier, workflow.NewCashReconciliation{
		OrganizationId: organizationId(c),
		UserId:         req.UserId,
		CountedAmount:  req.CountedAmount,
		Note:           req.Note,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": result})
}

type incrementSellerStatsRequest struct {
	SellerId string          `json:"seller_id" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
	Quantity int             `json:"quantity" validate:"gte=0"`
}

func (h *Handler) incrementSellerStats(c *gin.Context) {
	var req incrementSellerStatsRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	seller, err := h.Store.GetSeller(ctx, req.SellerId)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if seller.OrganizationId != organizationId(c) {
		h.respondError(c, utils.ErrorRecordNotFound)
		return
	}
	stats, err := workflow.IncrementSellerStats(ctx, h.Store, req.SellerId, req.Amount, req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}
