package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/nyaa-go/internal/app"
	"github.com/yourusername/nyaa-go/internal/domain"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// HealthHandler handles health check requests
type HealthHandler struct {
	search      *app.SearchManager
	downloadMgr *app.DownloadManager
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(search *app.SearchManager, downloadMgr *app.DownloadManager) *HealthHandler {
	return &HealthHandler{
		search:      search,
		downloadMgr: downloadMgr,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string              `json:"status"`
	Version string              `json:"version"`
	Sources []domain.SourceKind `json:"sources"`
	Clients []app.ClientInfo    `json:"clients"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
		Sources: h.search.Sources(),
		Clients: h.downloadMgr.Clients(),
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if len(h.search.Sources()) == 0 || len(h.downloadMgr.Clients()) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "no source or client configured",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
