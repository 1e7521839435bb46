package app

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/yourusername/nyaa-go/internal/domain"
	"github.com/yourusername/nyaa-go/internal/infrastructure"
	"github.com/yourusername/nyaa-go/pkg/logger"
)

// Services bundles the long-lived components built from a configuration
type Services struct {
	Config      *domain.Config
	Logger      *zap.Logger
	MultiLogger *logger.MultiLogger
	Search      *SearchManager
	Downloads   *DownloadManager

	repo *infrastructure.SQLiteSubmissionRepository
}

// BuildSources creates one provider per configured search backend
func BuildSources(cfg domain.SourcesConfig, client *http.Client) ([]domain.SourceProvider, error) {
	html, err := infrastructure.NewHTMLSource(cfg, client)
	if err != nil {
		return nil, err
	}
	rss, err := infrastructure.NewRSSSource(cfg, client)
	if err != nil {
		return nil, err
	}
	return []domain.SourceProvider{html, rss}, nil
}

// BuildClients creates the configured download clients
func BuildClients(cfgs []domain.ClientConfig, client *http.Client, log *zap.Logger) ([]domain.DownloadClient, error) {
	clients := make([]domain.DownloadClient, 0, len(cfgs))
	for _, cc := range cfgs {
		switch cc.Kind {
		case domain.ClientDirect:
			c, err := infrastructure.NewDirectClient(cc, infrastructure.ExecRunner, log)
			if err != nil {
				return nil, err
			}
			clients = append(clients, c)
		case domain.ClientQBittorrent:
			c, err := infrastructure.NewQBittorrentClient(cc, client, log)
			if err != nil {
				return nil, err
			}
			clients = append(clients, c)
		default:
			return nil, &domain.ConfigError{Component: "downloads", Field: "kind", Reason: fmt.Sprintf("client %s: unsupported kind %q", cc.Name, cc.Kind)}
		}
	}
	return clients, nil
}

// NewServices wires sources, clients, history and logging from config
func NewServices(config *domain.Config, log *zap.Logger) (*Services, error) {
	if log == nil {
		log = zap.NewNop()
	}

	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Logging.LogsDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	s := &Services{Config: config, Logger: log, MultiLogger: multiLog}

	sources, err := BuildSources(config.Sources, infrastructure.NewHTTPClient(config.Requests.FetchTimeout))
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Search, err = NewSearchManager(sources, PolicyFromConfig(config.Requests), multiLog, log)
	if err != nil {
		s.Close()
		return nil, err
	}

	clients, err := BuildClients(config.Clients, infrastructure.NewHTTPClient(config.Requests.SubmitTimeout), log)
	if err != nil {
		s.Close()
		return nil, err
	}

	var repo domain.SubmissionRepository
	if config.History.Enabled {
		s.repo, err = infrastructure.NewSQLiteSubmissionRepository(config.History.DatabasePath)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to initialize history: %w", err)
		}
		repo = s.repo
	}

	var notifier Notifier
	if config.Notification.Enabled {
		notifier = infrastructure.NewNotificationService(&config.Notification, log)
	}

	s.Downloads, err = NewDownloadManager(repo, clients, config.DefaultClient, notifier, multiLog, log)
	if err != nil {
		s.Close()
		return nil, err
	}

	log.Info("Services initialized",
		zap.Int("clients", len(clients)),
		zap.String("default_client", config.DefaultClient),
		zap.Bool("history", config.History.Enabled))
	return s, nil
}

// NewCoordinator creates a coordinator over the search and download managers
func (s *Services) NewCoordinator() *Coordinator {
	return NewCoordinator(
		s.Search,
		s.Downloads,
		PolicyFromConfig(s.Config.Requests),
		s.Config.Requests.SubmitTimeout,
		s.MultiLogger,
		s.Logger,
	)
}

// Close releases the history database and log files
func (s *Services) Close() error {
	var firstErr error
	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			firstErr = err
		}
	}
	if s.MultiLogger != nil {
		if err := s.MultiLogger.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
