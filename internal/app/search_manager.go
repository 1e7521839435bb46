package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/nyaa-go/internal/domain"
	"github.com/yourusername/nyaa-go/internal/normalize"
	"github.com/yourusername/nyaa-go/pkg/logger"
)

// maxConcurrentPages bounds SearchPages fan-out
const maxConcurrentPages = 3

// SearchManager fetches and normalizes result pages
type SearchManager struct {
	sources     map[domain.SourceKind]domain.SourceProvider
	policy      RetryPolicy
	multiLogger *logger.MultiLogger
	logger      *zap.Logger
}

// NewSearchManager creates a new search manager
func NewSearchManager(
	sources []domain.SourceProvider,
	policy RetryPolicy,
	multiLogger *logger.MultiLogger,
	logger *zap.Logger,
) (*SearchManager, error) {
	if len(sources) == 0 {
		return nil, &domain.ConfigError{Component: "search", Field: "sources", Reason: "no source configured"}
	}
	byKind := make(map[domain.SourceKind]domain.SourceProvider, len(sources))
	for _, src := range sources {
		byKind[src.Kind()] = src
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchManager{
		sources:     byKind,
		policy:      policy,
		multiLogger: multiLogger,
		logger:      logger,
	}, nil
}

// Sources returns the configured source kinds in display order
func (m *SearchManager) Sources() []domain.SourceKind {
	var kinds []domain.SourceKind
	for _, kind := range domain.SourceKinds {
		if _, ok := m.sources[kind]; ok {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// Load performs a single fetch and normalization of q. Feed results are
// sorted client-side since the feed ignores sort parameters.
func (m *SearchManager) Load(ctx context.Context, q domain.QuerySpec) (*domain.Page, error) {
	q = q.Normalized()
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	src, ok := m.sources[q.Source]
	if !ok {
		return nil, &domain.ConfigError{Component: "search", Field: "source", Reason: fmt.Sprintf("%s is not configured", q.Source)}
	}

	raw, err := src.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	page, err := normalize.Parse(raw)
	if err != nil {
		m.multiLogger.LogAppError("Failed to parse results",
			zap.String("source", string(q.Source)),
			zap.String("url", raw.URL),
			zap.Int("bytes", len(raw.Body)),
			zap.Error(err))
		return nil, err
	}

	for _, d := range page.Dropped {
		m.logger.Warn("Dropped result",
			zap.String("source", string(q.Source)),
			zap.Int("index", d.Index),
			zap.String("title", d.Title),
			zap.String("reason", d.Reason))
		m.multiLogger.LogSearchEvent("result_dropped",
			zap.String("source", string(q.Source)),
			zap.Int("index", d.Index),
			zap.String("title", d.Title),
			zap.String("reason", d.Reason))
	}

	if page.Source == domain.SourceRSS {
		page = page.Sorted(q.Sort, q.Direction)
	}
	return page, nil
}

// Search loads q under the retry policy. It returns the page and the
// number of attempts made.
func (m *SearchManager) Search(ctx context.Context, q domain.QuerySpec) (*domain.Page, int, error) {
	hooks := RetryHooks{
		OnRetry: func(failed int, delay time.Duration, err error) {
			m.logger.Warn("Fetch attempt failed, retrying",
				zap.String("term", q.Term),
				zap.Int("attempt", failed),
				zap.Duration("delay", delay),
				zap.Error(err))
		},
	}
	return retry(ctx, m.policy, "fetch "+string(q.Normalized().Source), hooks, func(ctx context.Context) (*domain.Page, error) {
		return m.Load(ctx, q)
	})
}

// SearchPages loads up to n pages of q and returns them in page order.
// The count is capped by the first page's pagination; pages after the
// first are fetched concurrently and the first failure aborts the rest.
func (m *SearchManager) SearchPages(ctx context.Context, q domain.QuerySpec, n int) ([]*domain.Page, error) {
	if n < 1 {
		n = 1
	}
	if q.Normalized().Source == domain.SourceRSS {
		n = 1
	}

	first, _, err := m.Search(ctx, q.WithPage(1))
	if err != nil {
		return nil, err
	}
	last := n
	if first.LastPage > 0 && first.LastPage < last {
		last = first.LastPage
	}
	if !first.HasNext {
		last = 1
	}

	pages := make([]*domain.Page, last)
	pages[0] = first

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPages)
	for i := 2; i <= last; i++ {
		number := i
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			page, _, err := m.Search(gctx, q.WithPage(number))
			if err != nil {
				return fmt.Errorf("page %d: %w", number, err)
			}
			pages[number-1] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}
