package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version of the HTTP API
const Version = "1.0.0"

// RegisterRoutes mounts every endpoint on r
func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "CareMatch API",
			"version": Version,
		})
	})
	r.GET("/healthz", h.Health)

	r.POST("/admin/login", h.Login)

	// Admin Endpoints
	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)

		admin.POST("/clients", h.CreateClient)
		admin.PUT("/clients/:id/active", h.SetClientActive)
		admin.POST("/workers", h.SaveWorker)
		admin.POST("/workers/:id/token", h.IssueWorkerToken)
		admin.POST("/shifts", h.CreatePosting)
	}

	// Integration Endpoints
	integration := r.Group("/api")
	integration.Use(h.APIKeyMiddleware())
	{
		integration.POST("/match", h.MatchJSON)
		integration.POST("/validate", h.ValidateInput)
		integration.GET("/usage", h.GetMyUsage)
	}

	// Worker Endpoints
	worker := r.Group("/api")
	worker.Use(h.WorkerMiddleware())
	{
		worker.GET("/matches", h.WorkerMatches)
		worker.POST("/evv/clock-in", h.ClockIn)
		worker.POST("/evv/clock-out", h.ClockOut)
		worker.GET("/evv/active", h.ActiveShift)
		worker.GET("/evv/shifts/:id/logs", h.ShiftLogs)
		worker.GET("/notifications", h.ListNotifications)
	}
}

// Health reports whether the database is reachable
func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
