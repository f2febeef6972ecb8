// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/stockrisk/internal/api/handlers"
	"github.com/andresuchdata/stockrisk/internal/api/middleware"
	"github.com/andresuchdata/stockrisk/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Forecast *service.ForecastService
	Supplier *service.SupplierService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.Forecast != nil {
			mlHandler := handlers.NewMLHandler(services.Forecast)
			mlGroup := apiGroup.Group("/ml")
			{
				mlGroup.POST("/predict/custom", mlHandler.PredictCustom)
				mlGroup.POST("/classify", mlHandler.Classify)
				mlGroup.GET("/forecast/:sku", mlHandler.GetForecast)
				mlGroup.GET("/forecast/:sku/export", mlHandler.ExportForecast)
				mlGroup.POST("/scenario-planning", mlHandler.PlanScenario)
				mlGroup.POST("/scenario-planning/export", mlHandler.ExportScenario)
			}
		}

		if services.Supplier != nil {
			supplierHandler := handlers.NewSupplierHandler(services.Supplier)
			supplierGroup := apiGroup.Group("/supplier")
			{
				supplierGroup.POST("/predict-risk", supplierHandler.PredictRisk)
				supplierGroup.GET("/risk-overview", supplierHandler.RiskOverview)
				supplierGroup.GET("/history/:supplier", supplierHandler.History)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
