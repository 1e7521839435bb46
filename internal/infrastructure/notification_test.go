package infrastructure

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourusername/nyaa-go/internal/domain"
	"go.uber.org/zap"
)

func TestNotificationService_Disabled(t *testing.T) {
	runner := &recordingRunner{}
	svc := NewNotificationService(&domain.NotificationConfig{Enabled: false, Method: "notify-send"}, zap.NewNop())
	svc.run = runner.run

	assert.NoError(t, svc.Send("title", "message"))
	assert.Empty(t, runner.calls)
}

func TestNotificationService_Methods(t *testing.T) {
	runner := &recordingRunner{}
	svc := NewNotificationService(&domain.NotificationConfig{Enabled: true, Method: "notify-send"}, zap.NewNop())
	svc.run = runner.run

	svc.NotifySubmitted("Frieren 01", "seedbox")
	assert.Equal(t, []string{"notify-send", "Download Submitted", "Frieren 01 → seedbox"}, runner.calls[0])

	svc.config.Method = "osascript"
	svc.NotifySubmissionFailed(`Say "hi"`, "seedbox", domain.CauseAuth)
	assert.Equal(t, []string{"osascript", "-e",
		`display notification "Say \"hi\" → seedbox (auth)" with title "Download Failed"`}, runner.calls[1])

	svc.config.Method = "carrier-pigeon"
	assert.NoError(t, svc.Send("t", "m"))
	assert.Len(t, runner.calls, 2)
}

func TestNotificationService_RunnerError(t *testing.T) {
	runner := &recordingRunner{err: errors.New("notify-send: not found")}
	svc := NewNotificationService(&domain.NotificationConfig{Enabled: true, Method: "notify-send"}, zap.NewNop())
	svc.run = runner.run

	assert.Error(t, svc.Send("t", "m"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "葬送の...", truncateString("葬送のフリーレン", 3))
}
