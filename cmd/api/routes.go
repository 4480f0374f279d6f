package main

import (
	"net/http"

	"call-insights/internal/httpapi"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		// Queue doorway for the recording source's webhook relay.
		v1.POST("/jobs", h.EnqueueJob)

		calls := v1.Group("/calls")
		{
			calls.GET("", h.ListCalls)
			calls.GET("/:id", h.GetCall)
			calls.GET("/:id/log", h.GetCallLog)
			calls.GET("/:id/analysis", h.GetCallAnalysis)
			calls.POST("/:id/reprocess", h.ReprocessCall)
		}
	}
}
