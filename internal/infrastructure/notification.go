package infrastructure

import (
	"context"
	"fmt"
	"strings"

	"github.com/yourusername/nyaa-go/internal/domain"
	"go.uber.org/zap"
)

// NotificationService handles sending desktop notifications
type NotificationService struct {
	config *domain.NotificationConfig
	run    CommandRunner
	logger *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		config: config,
		run:    ExecRunner,
		logger: logger,
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	var (
		binary string
		args   []string
	)
	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`,
			appleScriptQuote(message), appleScriptQuote(title))
		binary, args = "osascript", []string{"-e", script}
	case "notify-send":
		binary, args = "notify-send", []string{title, message}
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if _, err := n.run(context.Background(), binary, args...); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))

	return nil
}

// NotifySubmitted sends notification when a client accepted a result
func (n *NotificationService) NotifySubmitted(title, client string) {
	n.Send("Download Submitted", fmt.Sprintf("%s → %s", truncateString(title, 40), client))
}

// NotifySubmissionFailed sends notification when a submission fails
func (n *NotificationService) NotifySubmissionFailed(title, client string, cause domain.Cause) {
	n.Send("Download Failed", fmt.Sprintf("%s → %s (%s)", truncateString(title, 40), client, cause))
}

func appleScriptQuote(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// truncateString truncates a string to the specified number of runes
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
