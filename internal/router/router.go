package router

import (
	"github.com/gin-gonic/gin"

	"invosight/internal/handler"
	"invosight/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	ingestH *handler.IngestHandler,
	queryH *handler.QueryHandler,
	schemaH *handler.SchemaHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	invoices := v1.Group("/invoices")
	invoices.POST("", ingestH.Upload)
	invoices.GET("", ingestH.List)
	invoices.GET("/:id", ingestH.GetByID)
	invoices.GET("/:id/image", ingestH.GetImage)
	invoices.DELETE("/:id", ingestH.Delete)

	query := v1.Group("/query")
	query.POST("", queryH.Ask)
	query.POST("/export", queryH.Export)

	v1.GET("/schema", schemaH.Describe)

	return r
}
