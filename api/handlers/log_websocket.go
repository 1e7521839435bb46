package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/nyaa-go/pkg/logger"
)

const (
	backlogEntries = 50
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// LogWebSocketHandler streams category log entries over WebSocket
type LogWebSocketHandler struct {
	logReader *logger.LogReader
	logger    *zap.Logger
}

// NewLogWebSocketHandler creates a new WebSocket handler
func NewLogWebSocketHandler(logsDir string, log *zap.Logger) *LogWebSocketHandler {
	return &LogWebSocketHandler{
		logReader: logger.NewLogReader(logsDir),
		logger:    log,
	}
}

// Stream handles GET /api/v1/logs/:category/stream. The last entries of
// today's file are sent first, then every appended entry until the peer
// disconnects.
func (h *LogWebSocketHandler) Stream(c *gin.Context) {
	category, ok := parseCategory(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Info("WebSocket client connected",
		zap.String("category", string(category)),
		zap.String("remote_addr", c.Request.RemoteAddr))

	backlog, err := h.logReader.ReadLogs(category, time.Now(), backlogEntries)
	if err != nil {
		h.logger.Warn("Failed to read log backlog", zap.Error(err))
	}
	for _, entry := range backlog {
		if err := h.write(conn, entry); err != nil {
			return
		}
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// The read loop only notices the peer going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	entries := make(chan logger.LogEntry, 100)
	go func() {
		if err := h.logReader.TailLogs(ctx, category, entries); err != nil {
			h.logger.Error("Log tailing error", zap.Error(err))
			cancel()
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case entry := <-entries:
			if err := h.write(conn, entry); err != nil {
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(writeTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *LogWebSocketHandler) write(conn *websocket.Conn, entry logger.LogEntry) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	if err := conn.WriteJSON(entry); err != nil {
		h.logger.Debug("Failed to send log entry", zap.Error(err))
		return err
	}
	return nil
}
