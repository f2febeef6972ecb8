package handlers

import (
	"net/http"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/service"
	"github.com/gin-gonic/gin"
)

type SupplierHandler struct {
	service *service.SupplierService
}

func NewSupplierHandler(service *service.SupplierService) *SupplierHandler {
	return &SupplierHandler{service: service}
}

// PredictRisk scores a supplier in the given order context. Omitted category,
// qty and price default to Electronics, 100 and 50.
func (h *SupplierHandler) PredictRisk(c *gin.Context) {
	var req domain.SupplierScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	profile, err := h.service.ScoreSupplier(req.Input())
	if err != nil {
		errorResponse(c, err, "failed to score supplier")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// RiskOverview scores every supplier with transaction history.
func (h *SupplierHandler) RiskOverview(c *gin.Context) {
	rows, err := h.service.RiskOverview(c.Request.Context())
	if err != nil {
		errorResponse(c, err, "failed to build supplier overview")
		return
	}
	c.JSON(http.StatusOK, rows)
}

// History returns a supplier's recent performance trend.
func (h *SupplierHandler) History(c *gin.Context) {
	points, err := h.service.History(c.Request.Context(), c.Param("supplier"))
	if err != nil {
		errorResponse(c, err, "failed to load supplier history")
		return
	}
	c.JSON(http.StatusOK, points)
}
