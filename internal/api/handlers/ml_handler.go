package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/report"
	"github.com/andresuchdata/stockrisk/internal/service"
	"github.com/gin-gonic/gin"
)

type MLHandler struct {
	service *service.ForecastService
}

func NewMLHandler(service *service.ForecastService) *MLHandler {
	return &MLHandler{service: service}
}

// ScenarioRequest is the stock snapshot plus the adjustments to apply to it.
type ScenarioRequest struct {
	domain.StockInput
	Adjustments map[string]float64 `json:"adjustments"`
}

// PredictCustom forecasts a caller-supplied product snapshot and stores it.
// An omitted forecast_days uses the configured default horizon (30 days).
func (h *MLHandler) PredictCustom(c *gin.Context) {
	var in domain.StockInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	out, err := h.service.PredictCustom(c.Request.Context(), h.service.WithDefaultHorizon(in))
	if err != nil {
		errorResponse(c, err, "failed to generate forecast")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      out.Message,
		"forecast":     out.Record,
		"verification": out.Verification,
	})
}

// Classify returns the stock status and priority for a snapshot.
func (h *MLHandler) Classify(c *gin.Context) {
	var in domain.StockInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.service.ClassifyStock(in))
}

// GetForecast returns the current forecast for a SKU.
func (h *MLHandler) GetForecast(c *gin.Context) {
	out, err := h.service.GetForecastBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		errorResponse(c, err, "failed to load forecast")
		return
	}
	c.JSON(http.StatusOK, out)
}

// ExportForecast streams the SKU's forecast as XLSX; ?upload=true also stores it.
func (h *MLHandler) ExportForecast(c *gin.Context) {
	sku := c.Param("sku")
	upload, _ := strconv.ParseBool(c.DefaultQuery("upload", "false"))

	data, key, err := h.service.ExportForecast(c.Request.Context(), sku, upload)
	if err != nil {
		errorResponse(c, err, "failed to export forecast")
		return
	}
	if key != "" {
		c.Header("X-Object-Key", key)
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="forecast_%s.xlsx"`, sku))
	c.Data(http.StatusOK, report.ContentType, data)
}

// PlanScenario compares a baseline with its adjusted scenario. An omitted
// forecast_days uses the configured default horizon (30 days).
func (h *MLHandler) PlanScenario(c *gin.Context) {
	var req ScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	cmp, err := h.service.PlanScenario(c.Request.Context(), h.service.WithDefaultHorizon(req.StockInput), req.Adjustments)
	if err != nil {
		errorResponse(c, err, "scenario planning failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sku": req.SKU, "comparison": cmp})
}

// ExportScenario renders a scenario comparison as XLSX. An omitted
// forecast_days uses the configured default horizon (30 days).
func (h *MLHandler) ExportScenario(c *gin.Context) {
	var req ScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	data, err := h.service.ExportScenario(c.Request.Context(), h.service.WithDefaultHorizon(req.StockInput), req.Adjustments)
	if err != nil {
		errorResponse(c, err, "failed to export scenario")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="scenario_%s.xlsx"`, req.SKU))
	c.Data(http.StatusOK, report.ContentType, data)
}
