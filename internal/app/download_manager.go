package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yourusername/nyaa-go/internal/domain"
	"github.com/yourusername/nyaa-go/pkg/logger"
	"go.uber.org/zap"
)

// Notifier receives submission outcomes for desktop notification
type Notifier interface {
	NotifySubmitted(title, client string)
	NotifySubmissionFailed(title, client string, cause domain.Cause)
}

// DownloadManager routes submissions to download clients and records them
type DownloadManager struct {
	repo          domain.SubmissionRepository
	clients       map[string]domain.DownloadClient
	defaultClient string
	notifier      Notifier
	multiLogger   *logger.MultiLogger
	logger        *zap.Logger
	mu            sync.RWMutex
}

// NewDownloadManager creates a new download manager. repo and notifier
// may be nil; defaultClient must name one of clients.
func NewDownloadManager(
	repo domain.SubmissionRepository,
	clients []domain.DownloadClient,
	defaultClient string,
	notifier Notifier,
	multiLogger *logger.MultiLogger,
	logger *zap.Logger,
) (*DownloadManager, error) {
	if len(clients) == 0 {
		return nil, &domain.ConfigError{Component: "downloads", Field: "clients", Reason: "no client configured"}
	}
	byName := make(map[string]domain.DownloadClient, len(clients))
	for _, c := range clients {
		if _, dup := byName[c.Name()]; dup {
			return nil, &domain.ConfigError{Component: "downloads", Field: "clients", Reason: fmt.Sprintf("duplicate client name %q", c.Name())}
		}
		byName[c.Name()] = c
	}
	if _, ok := byName[defaultClient]; !ok {
		return nil, &domain.ConfigError{Component: "downloads", Field: "default_client", Reason: fmt.Sprintf("%q is not a configured client", defaultClient)}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DownloadManager{
		repo:          repo,
		clients:       byName,
		defaultClient: defaultClient,
		notifier:      notifier,
		multiLogger:   multiLogger,
		logger:        logger,
	}, nil
}

// DefaultClient returns the name of the client used when a request names none
func (dm *DownloadManager) DefaultClient() string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.defaultClient
}

// SetDefaultClient changes the default client
func (dm *DownloadManager) SetDefaultClient(name string) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if _, ok := dm.clients[name]; !ok {
		return fmt.Errorf("unknown client: %s", name)
	}
	dm.defaultClient = name
	return nil
}

// ClientInfo describes a configured client
type ClientInfo struct {
	Name    string            `json:"name"`
	Kind    domain.ClientKind `json:"kind"`
	Default bool              `json:"default"`
}

// Clients lists the configured clients sorted by name
func (dm *DownloadManager) Clients() []ClientInfo {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	infos := make([]ClientInfo, 0, len(dm.clients))
	for name, c := range dm.clients {
		infos = append(infos, ClientInfo{Name: name, Kind: c.Kind(), Default: name == dm.defaultClient})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Submit hands req to its client and returns the terminal outcome. Errors
// never escape as panics or returns; they are carried in the outcome.
func (dm *DownloadManager) Submit(ctx context.Context, req *domain.DownloadRequest) domain.DownloadOutcome {
	if req.Client == "" {
		resolved := *req
		resolved.Client = dm.DefaultClient()
		req = &resolved
	}

	dm.mu.RLock()
	client, ok := dm.clients[req.Client]
	dm.mu.RUnlock()
	if !ok {
		err := &domain.ConfigError{Component: "downloads", Field: "client", Reason: fmt.Sprintf("%q is not a configured client", req.Client)}
		return dm.finish(req, nil, err)
	}

	dm.logger.Info("Submitting result",
		zap.String("id", req.ID),
		zap.String("client", req.Client),
		zap.String("title", req.Item.Title))
	dm.multiLogger.LogDownloadEvent("submission_started",
		zap.String("id", req.ID),
		zap.String("client", req.Client),
		zap.String("title", req.Item.Title))

	record := dm.createRecord(req, client.Kind())

	start := time.Now()
	err := client.Submit(ctx, req)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = &domain.TimeoutError{Op: "submit to " + req.Client, After: time.Since(start).Round(time.Millisecond)}
	}
	return dm.finish(req, record, err)
}

// createRecord stores a pending history entry, warning about duplicates
func (dm *DownloadManager) createRecord(req *domain.DownloadRequest, kind domain.ClientKind) *domain.SubmissionRecord {
	if dm.repo == nil {
		return nil
	}

	if prev, err := dm.repo.FindByInfoHash(req.Item.InfoHash, []domain.SubmissionStatus{domain.SubmissionSucceeded}); err == nil && prev != nil {
		dm.logger.Info("Result was submitted before",
			zap.String("id", req.ID),
			zap.String("previous_id", prev.ID),
			zap.String("previous_client", prev.Client))
	}

	record := domain.NewSubmissionRecord(req, kind)
	if err := dm.repo.Create(record); err != nil {
		dm.logger.Error("Failed to record submission", zap.String("id", req.ID), zap.Error(err))
		dm.multiLogger.LogAppError("Failed to record submission", zap.String("id", req.ID), zap.Error(err))
		return nil
	}
	return record
}

func (dm *DownloadManager) finish(req *domain.DownloadRequest, record *domain.SubmissionRecord, err error) domain.DownloadOutcome {
	outcome := domain.NewOutcome(req, err)

	if record != nil {
		if err != nil {
			record.MarkFailed(err)
		} else {
			record.MarkSucceeded()
		}
		if uerr := dm.repo.Update(record); uerr != nil {
			dm.logger.Error("Failed to update submission record", zap.String("id", req.ID), zap.Error(uerr))
		}
	}

	if err != nil {
		dm.logger.Warn("Submission failed",
			zap.String("id", req.ID),
			zap.String("client", req.Client),
			zap.String("cause", string(outcome.Cause)),
			zap.Error(err))
		dm.multiLogger.LogDownloadEvent("submission_failed",
			zap.String("id", req.ID),
			zap.String("client", req.Client),
			zap.String("cause", string(outcome.Cause)),
			zap.Error(err))
		if dm.notifier != nil {
			dm.notifier.NotifySubmissionFailed(req.Item.Title, req.Client, outcome.Cause)
		}
		return outcome
	}

	dm.logger.Info("Submission succeeded",
		zap.String("id", req.ID),
		zap.String("client", req.Client))
	dm.multiLogger.LogDownloadEvent("submission_succeeded",
		zap.String("id", req.ID),
		zap.String("client", req.Client),
		zap.String("title", req.Item.Title))
	if dm.notifier != nil {
		dm.notifier.NotifySubmitted(req.Item.Title, req.Client)
	}
	return outcome
}

// History returns recorded submissions, newest first
func (dm *DownloadManager) History(filters map[string]interface{}, limit int) ([]*domain.SubmissionRecord, error) {
	if dm.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return dm.repo.FindAll(filters, limit)
}

// GetSubmission returns one recorded submission
func (dm *DownloadManager) GetSubmission(id string) (*domain.SubmissionRecord, error) {
	if dm.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return dm.repo.FindByID(id)
}

// Stats returns submission statistics
func (dm *DownloadManager) Stats() (*domain.SubmissionStats, error) {
	if dm.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return dm.repo.GetStats()
}

// ErrHistoryDisabled is returned by history queries when no repository is configured
var ErrHistoryDisabled = errors.New("submission history is disabled")
