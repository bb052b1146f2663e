package httpapi

import (
	"context"
	"net/http"

	"callcenter-platform/internal/reporting"
	"callcenter-platform/internal/taskrouter"
	"callcenter-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Store is the read surface the dashboard needs from the mirror.
type Store interface {
	ListWorkers(ctx context.Context) ([]taskrouter.Worker, error)
	ListTasks(ctx context.Context) ([]taskrouter.Task, error)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: call the mirror, translate, return JSON. The real-time
// channel carries deltas; these endpoints are what a browser refresh hits.

type Handlers struct {
	Store     Store
	Reporting *reporting.Service
}

func (h Handlers) ListWorkers(c *gin.Context) {
	if h.Store == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "store not configured"})
		return
	}
	workers, err := h.Store.ListWorkers(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("list workers failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	views := make([]taskrouter.WorkerView, 0, len(workers))
	for _, w := range workers {
		views = append(views, taskrouter.TranslateWorker(w))
	}
	c.JSON(http.StatusOK, gin.H{"workers": views})
}

func (h Handlers) ListTasks(c *gin.Context) {
	if h.Store == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "store not configured"})
		return
	}
	tasks, err := h.Store.ListTasks(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("list tasks failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	views := make([]taskrouter.TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, taskrouter.TranslateTask(t))
	}
	c.JSON(http.StatusOK, gin.H{"tasks": views})
}

func (h Handlers) WorkforceSummary(c *gin.Context) {
	if h.Reporting == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	sum, err := h.Reporting.WorkforceSummary(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("workforce summary failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h Handlers) QueueSummaries(c *gin.Context) {
	if h.Reporting == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	sums, err := h.Reporting.QueueSummaries(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("queue summaries failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"queues": sums})
}
