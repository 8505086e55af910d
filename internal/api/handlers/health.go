package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/amiyamandal-dev/topalbums/internal/repository"
	"github.com/amiyamandal-dev/topalbums/internal/search"
	"github.com/amiyamandal-dev/topalbums/internal/service"
	"github.com/amiyamandal-dev/topalbums/pkg/logger"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	store       repository.FeedStore
	searchIndex search.Index
	syncService *service.SyncService
	logger      *logger.Logger
}

// NewHealthHandler creates a new health handler. searchIndex may be nil.
func NewHealthHandler(store repository.FeedStore, searchIndex search.Index, syncService *service.SyncService, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{
		store:       store,
		searchIndex: searchIndex,
		syncService: syncService,
		logger:      logger.WithComponent("health-handler"),
	}
}

// Health returns basic health status
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Readiness checks if the service is ready to handle requests
func (h *HealthHandler) Readiness(c *gin.Context) {
	var (
		storeHealthy  bool
		searchHealthy bool
		searchCount   uint64
		wg            sync.WaitGroup
	)

	wg.Add(2)

	// Check store (required) - in parallel
	go func() {
		defer wg.Done()
		if err := h.store.HealthCheck(); err != nil {
			h.logger.Warn("Store health check failed", "error", err)
			return
		}
		storeHealthy = true
	}()

	// Check search index (optional) - in parallel
	go func() {
		defer wg.Done()
		if h.searchIndex == nil {
			return
		}
		var err error
		searchCount, err = h.searchIndex.Count()
		searchHealthy = err == nil
	}()

	wg.Wait()

	checks := map[string]interface{}{
		"store": map[string]interface{}{
			"healthy":  storeHealthy,
			"required": true,
		},
		"search": map[string]interface{}{
			"healthy":        searchHealthy,
			"required":       false,
			"document_count": searchCount,
		},
	}

	status := "ready"
	code := http.StatusOK
	if !storeHealthy {
		status = "not ready"
		code = http.StatusServiceUnavailable
	}

	resp := gin.H{
		"status": status,
		"checks": checks,
	}
	if h.syncService != nil {
		resp["sync"] = h.syncService.Status()
	}
	if !searchHealthy {
		resp["warnings"] = []string{"Search index not available - album search disabled"}
	}

	c.JSON(code, resp)
}

// Liveness checks if the service is alive
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
