package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// userIDKey is the gin context key the auth middleware sets.
const userIDKey = "userID"

const version = "1.0.0"

// NewRouter mounts all alert-service routes.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "alert-service",
			"version": version,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	alerts := r.Group("/alerts", requireUser)
	{
		alerts.POST("", h.createAlert)
		alerts.GET("", h.listAlerts)
		alerts.GET("/matching-jobs", h.matchingJobs)
		alerts.GET("/:id", h.getAlert)
		alerts.PUT("/:id", h.updateAlert)
		alerts.DELETE("/:id", h.deleteAlert)
		alerts.POST("/:id/test", h.testAlert)
	}

	return r
}

// requireUser extracts the x-user-id header forwarded by the gateway.
func requireUser(c *gin.Context) {
	uid := c.GetHeader("x-user-id")
	if uid == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing x-user-id header"})
		return
	}
	c.Set(userIDKey, uid)
	c.Next()
}
