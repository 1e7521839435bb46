package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yourusername/nyaa-go/internal/app"
	"github.com/yourusername/nyaa-go/internal/domain"
)

// DownloadHandler handles submission requests and history queries
type DownloadHandler struct {
	downloadMgr   *app.DownloadManager
	submitTimeout time.Duration
	logger        *zap.Logger
}

// NewDownloadHandler creates a new download handler. Each submission is
// bounded by submitTimeout; zero leaves only the request context.
func NewDownloadHandler(downloadMgr *app.DownloadManager, submitTimeout time.Duration, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{
		downloadMgr:   downloadMgr,
		submitTimeout: submitTimeout,
		logger:        logger,
	}
}

// AddDownloadRequest represents a request to hand a result to a client
type AddDownloadRequest struct {
	Item    domain.ResultItem    `json:"item"`
	Client  string               `json:"client,omitempty"`
	Options domain.SubmitOptions `json:"options,omitempty"`
}

// AddDownloadResponse is the body returned for a finished submission
type AddDownloadResponse struct {
	domain.DownloadOutcome
	Error string `json:"error,omitempty"`
}

// AddDownload handles POST /api/v1/downloads. The call blocks until the
// client accepted or rejected the torrent.
func (h *DownloadHandler) AddDownload(c *gin.Context) {
	var body AddDownloadRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !body.Item.HasReference() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item has neither magnet nor torrent_url"})
		return
	}

	req := domain.NewDownloadRequest(body.Item, body.Client, body.Options)
	ctx := c.Request.Context()
	if h.submitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.submitTimeout)
		defer cancel()
	}
	outcome := h.downloadMgr.Submit(ctx, req)

	resp := AddDownloadResponse{DownloadOutcome: outcome}
	if outcome.Succeeded {
		c.JSON(http.StatusCreated, resp)
		return
	}

	h.logger.Warn("Submission failed",
		zap.String("id", outcome.RequestID),
		zap.String("client", outcome.Client),
		zap.String("cause", string(outcome.Cause)),
		zap.Error(outcome.Err))
	if outcome.Err != nil {
		resp.Error = outcome.Err.Error()
		_ = c.Error(outcome.Err)
	}
	c.JSON(statusForCause(outcome.Cause), resp)
}

// GetDownload handles GET /api/v1/downloads/:id
func (h *DownloadHandler) GetDownload(c *gin.Context) {
	id := c.Param("id")

	record, err := h.downloadMgr.GetSubmission(id)
	switch {
	case errors.Is(err, app.ErrHistoryDisabled):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, gorm.ErrRecordNotFound), err == nil && record == nil:
		c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
		return
	case err != nil:
		h.logger.Error("Failed to get submission", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, record)
}

// ListDownloads handles GET /api/v1/downloads
func (h *DownloadHandler) ListDownloads(c *gin.Context) {
	filters := make(map[string]interface{})
	for _, key := range []string{"client", "status", "cause"} {
		if v := c.Query(key); v != "" {
			filters[key] = v
		}
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		limit = 50
	}

	records, err := h.downloadMgr.History(filters, limit)
	if err != nil {
		if errors.Is(err, app.ErrHistoryDisabled) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to list submissions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, records)
}

// GetStats handles GET /api/v1/downloads/stats
func (h *DownloadHandler) GetStats(c *gin.Context) {
	stats, err := h.downloadMgr.Stats()
	if err != nil {
		if errors.Is(err, app.ErrHistoryDisabled) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ListClients handles GET /api/v1/clients
func (h *DownloadHandler) ListClients(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"default": h.downloadMgr.DefaultClient(),
		"clients": h.downloadMgr.Clients(),
	})
}

// SetDefaultClient handles POST /api/v1/clients/:name/default
func (h *DownloadHandler) SetDefaultClient(c *gin.Context) {
	name := c.Param("name")
	if err := h.downloadMgr.SetDefaultClient(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"default": name})
}
