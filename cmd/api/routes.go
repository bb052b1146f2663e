package main

import (
	"database/sql"
	"strings"

	"callcenter-platform/internal/audit"
	"callcenter-platform/internal/config"
	"callcenter-platform/internal/httpapi"
	"callcenter-platform/internal/notify"
	"callcenter-platform/internal/reconcile"
	"callcenter-platform/internal/reporting"
	"callcenter-platform/internal/webhookapi"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, cfg config.Config, db *sql.DB, rdb *redis.Client) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	store := reconcile.NewPostgresStore(db)

	// Provider webhook (public; signature-validated when an auth token is
	// configured).
	{
		h := webhookapi.Handler{
			Engine:     reconcile.NewEngine(store),
			Dispatcher: notify.NewDispatcher(notify.NewRedisBroadcaster(rdb, cfg.Redis.Channel)),
			Audit:      audit.NewService(audit.NewPostgresRepo(db)),
			AuthToken:  cfg.Twilio.AuthToken,
			WebhookURL: webhookURL(cfg),
		}
		r.POST("/webhooks/taskrouter", h.HandleEvent)
	}

	// Dashboard read API. Auth for these endpoints lives at the edge proxy.
	v1 := r.Group("/v1")
	{
		h := httpapi.Handlers{
			Store:     store,
			Reporting: reporting.NewService(store),
		}

		v1.GET("/workers", h.ListWorkers)
		v1.GET("/tasks", h.ListTasks)
		v1.GET("/reporting/workforce", h.WorkforceSummary)
		v1.GET("/reporting/queues", h.QueueSummaries)
	}
}

func webhookURL(cfg config.Config) string {
	base := strings.TrimSuffix(cfg.Twilio.WebhookBaseURL, "/")
	if base == "" {
		return ""
	}
	return base + "/webhooks/taskrouter"
}
