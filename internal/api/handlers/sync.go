package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amiyamandal-dev/topalbums/internal/api/middleware"
	"github.com/amiyamandal-dev/topalbums/internal/domain"
	"github.com/amiyamandal-dev/topalbums/internal/service"
	"github.com/amiyamandal-dev/topalbums/pkg/logger"
	"github.com/amiyamandal-dev/topalbums/pkg/response"
)

// SyncHandler triggers and reports chart syncs
type SyncHandler struct {
	syncService *service.SyncService
	logger      *logger.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(syncService *service.SyncService, logger *logger.Logger) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
		logger:      logger.WithComponent("sync-handler"),
	}
}

// Trigger runs a sync and waits for its outcome
func (h *SyncHandler) Trigger(c *gin.Context) {
	h.logger.Info("Sync requested",
		"request_id", middleware.GetRequestID(c),
		"subject", middleware.GetSubject(c),
		"client_ip", c.ClientIP(),
	)

	outcome, err := h.syncService.SyncAlbums(c.Request.Context())
	if err != nil {
		fe := domain.AsFetchError(err)
		response.ErrorWithDetails(c, StatusForKind(fe.Kind), fe.Message, fe.Code, fe.View())
		return
	}

	response.SuccessWithMessage(c, outcome.Message(), outcome)
}

// Status returns the sync state
func (h *SyncHandler) Status(c *gin.Context) {
	response.Success(c, h.syncService.Status())
}

// StatusForKind maps a sync failure onto an HTTP status
func StatusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNoConnectivity:
		return http.StatusServiceUnavailable
	case domain.KindTimeout:
		return http.StatusGatewayTimeout
	case domain.KindStorageError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
