package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/nyaa-go/pkg/logger"
)

const (
	defaultLogLimit = 100
	maxLogLimit     = 1000
)

// LogHandler handles log-related requests
type LogHandler struct {
	logReader *logger.LogReader
}

// NewLogHandler creates a new log handler
func NewLogHandler(logsDir string) *LogHandler {
	return &LogHandler{
		logReader: logger.NewLogReader(logsDir),
	}
}

// parseCategory validates the :category path parameter
func parseCategory(c *gin.Context) (logger.LogCategory, bool) {
	cat := logger.LogCategory(c.Param("category"))
	if !logger.ValidCategory(cat) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
		return "", false
	}
	return cat, true
}

// parseDate parses the optional date query parameter, defaulting to today
func parseDate(c *gin.Context) (time.Time, bool) {
	dateStr := c.Query("date")
	if dateStr == "" {
		return time.Now(), true
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, use YYYY-MM-DD"})
		return time.Time{}, false
	}
	return date, true
}

func parseLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLogLimit)))
	if err != nil || limit < 0 {
		limit = defaultLogLimit
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}
	return limit
}

// GetLogs handles GET /api/v1/logs/:category
func (h *LogHandler) GetLogs(c *gin.Context) {
	category, ok := parseCategory(c)
	if !ok {
		return
	}
	date, ok := parseDate(c)
	if !ok {
		return
	}

	entries, err := h.logReader.ReadLogs(category, date, parseLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": category,
		"date":     date.Format("2006-01-02"),
		"count":    len(entries),
		"entries":  entries,
	})
}

// SearchLogs handles GET /api/v1/logs/:category/search
func (h *LogHandler) SearchLogs(c *gin.Context) {
	category, ok := parseCategory(c)
	if !ok {
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}

	date, ok := parseDate(c)
	if !ok {
		return
	}

	entries, err := h.logReader.SearchLogs(category, date, query, parseLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": category,
		"query":    query,
		"count":    len(entries),
		"entries":  entries,
	})
}

// GetCategories handles GET /api/v1/logs/categories
func (h *LogHandler) GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": logger.Categories,
	})
}

// ExportLogs handles GET /api/v1/logs/:category/export
func (h *LogHandler) ExportLogs(c *gin.Context) {
	category, ok := parseCategory(c)
	if !ok {
		return
	}
	date, ok := parseDate(c)
	if !ok {
		return
	}

	logPath := h.logReader.GetLogPath(category, date)

	filename := string(category) + "-" + date.Format("20060102") + ".log"
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Type", "application/octet-stream")

	c.File(logPath)
}
