package infrastructure

import (
	"context"
	"os/exec"
	"runtime"
	"strings"

	"github.com/yourusername/nyaa-go/internal/domain"
	"go.uber.org/zap"
)

// CommandRunner runs an external program and returns its combined output
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// DirectClient hands a reference to the OS handler or to a configured
// command template. Success means the handler started without error; there
// is no delivery confirmation.
type DirectClient struct {
	name    string
	command string
	goos    string
	run     CommandRunner
	logger  *zap.Logger
}

// NewDirectClient creates a direct handoff client
func NewDirectClient(cfg domain.ClientConfig, run CommandRunner, logger *zap.Logger) (*DirectClient, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, configError("direct client", "name", "must not be empty")
	}
	command := strings.TrimSpace(cfg.Command)
	if command != "" && !HasPlaceholder(command) {
		return nil, configError("direct client "+cfg.Name, "command",
			"must reference one of "+strings.Join(CommandPlaceholders, ", "))
	}
	if p, quoted := QuotedPlaceholder(command); quoted {
		return nil, configError("direct client "+cfg.Name, "command",
			p+" must not be quoted; values are quoted when expanded")
	}
	if run == nil {
		run = ExecRunner
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectClient{
		name:    cfg.Name,
		command: command,
		goos:    runtime.GOOS,
		run:     run,
		logger:  logger,
	}, nil
}

// Name returns the configured client name
func (c *DirectClient) Name() string {
	return c.name
}

// Kind returns ClientDirect
func (c *DirectClient) Kind() domain.ClientKind {
	return domain.ClientDirect
}

// Submit hands the request's reference to the handler
func (c *DirectClient) Submit(ctx context.Context, req *domain.DownloadRequest) error {
	ref := req.Item.Reference()
	if ref == "" {
		return &domain.SubmissionError{Client: c.name, Reason: "result has no magnet or torrent link"}
	}

	binary, args := c.commandFor(req.Item, ref)
	c.logger.Info("Handing off result",
		zap.String("client", c.name),
		zap.String("request_id", req.ID),
		zap.String("command", ShellEscapeCommand(binary, args...)))

	output, err := c.run(ctx, binary, args...)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		reason := strings.TrimSpace(string(output))
		if reason == "" {
			reason = "handler exited with error"
		}
		return &domain.SubmissionError{Client: c.name, Reason: reason, Err: err}
	}
	return nil
}

func (c *DirectClient) commandFor(item domain.ResultItem, ref string) (string, []string) {
	if c.command != "" {
		line := ExpandCommandTemplate(c.command, map[string]string{
			"{ref}":     ref,
			"{magnet}":  item.Magnet,
			"{torrent}": item.TorrentURL,
			"{title}":   item.Title,
		})
		return "sh", []string{"-c", line}
	}

	switch c.goos {
	case "darwin":
		return "open", []string{ref}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", ref}
	default:
		return "xdg-open", []string{ref}
	}
}
