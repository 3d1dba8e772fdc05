package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/marketplace_backend/models"
)

func (h *Handler) runThresholdScan(c *gin.Context) {
	if h.Scans == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "threshold scan disabled"})
		return
	}
	class, err := models.ParseSellerClass(strings.ToUpper(c.Param("class")))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// A dropped client must not roll back a scan that is already running.
	result, err := h.Scans.RunOnce(context.WithoutCancel(c.Request.Context()), class)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}
