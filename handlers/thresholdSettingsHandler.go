package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/marketplace_backend/models"
	"github.com/mmdatafocus/marketplace_backend/utils"
	"github.com/shopspring/decimal"
)

// thresholdSettingsRequest replaces all four rules; an omitted or null amount disables its rule.
type thresholdSettingsRequest struct {
	CompanyCashBalanceLowerThreshold        decimal.NullDecimal `json:"company_cash_balance_lower_threshold"`
	IndividualCashBalanceLowerThreshold     decimal.NullDecimal `json:"individual_cash_balance_lower_threshold"`
	PrivateSellerSalesBalanceUpperThreshold decimal.NullDecimal `json:"private_seller_sales_balance_upper_threshold"`
	SellerSalesBalanceUpperThreshold        decimal.NullDecimal `json:"seller_sales_balance_upper_threshold"`
}

func (r thresholdSettingsRequest) validate() error {
	for _, v := range []decimal.NullDecimal{
		r.CompanyCashBalanceLowerThreshold,
		r.IndividualCashBalanceLowerThreshold,
		r.PrivateSellerSalesBalanceUpperThreshold,
		r.SellerSalesBalanceUpperThreshold,
	} {
		if v.Valid && v.Decimal.IsNegative() {
			return errors.New("thresholds must not be negative")
		}
	}
	return nil
}

func (h *Handler) getThresholdSettings(c *gin.Context) {
	orgId := organizationId(c)
	settings, err := h.Store.GetThresholdSettings(c.Request.Context(), orgId)
	if errors.Is(err, utils.ErrorRecordNotFound) {
		// Nothing configured yet: every rule is disabled.
		c.JSON(http.StatusOK, gin.H{"data": models.ThresholdSettings{OrganizationId: orgId}})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings})
}

func (h *Handler) putThresholdSettings(c *gin.Context) {
	var req thresholdSettingsRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := req.validate(); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings := &models.ThresholdSettings{
		OrganizationId:                          organizationId(c),
		CompanyCashBalanceLowerThreshold:        req.CompanyCashBalanceLowerThreshold,
		IndividualCashBalanceLowerThreshold:     req.IndividualCashBalanceLowerThreshold,
		PrivateSellerSalesBalanceUpperThreshold: req.PrivateSellerSalesBalanceUpperThreshold,
		SellerSalesBalanceUpperThreshold:        req.SellerSalesBalanceUpperThreshold,
	}
	if err := h.Store.UpsertThresholdSettings(c.Request.Context(), settings); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings})
}
