package infrastructure

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/yourusername/nyaa-go/internal/domain"
)

// RSSSource fetches the RSS feed variant of a search. The feed is not
// paginated and ignores sorting, which callers apply client-side.
type RSSSource struct {
	baseURL *url.URL
	fetcher *httpFetcher
	now     func() time.Time
}

// NewRSSSource creates a feed source for the configured endpoint
func NewRSSSource(cfg domain.SourcesConfig, client *http.Client) (*RSSSource, error) {
	base, err := parseBaseURL("rss source", cfg.RSS.BaseURL)
	if err != nil {
		return nil, err
	}
	return &RSSSource{
		baseURL: base,
		fetcher: newHTTPFetcher(client, cfg.UserAgent),
		now:     time.Now,
	}, nil
}

// Kind returns SourceRSS
func (s *RSSSource) Kind() domain.SourceKind {
	return domain.SourceRSS
}

// BuildURL returns the feed URL for q. The trailing m flag asks for
// magnet links instead of torrent file links.
func (s *RSSSource) BuildURL(q domain.QuerySpec) string {
	q = q.Normalized()
	params := url.Values{}
	params.Set("page", "rss")
	params.Set("f", q.Filter.Code())
	params.Set("c", string(q.Category))
	params.Set("q", q.Term)

	u := *s.baseURL
	u.RawQuery = params.Encode() + "&m"
	return u.String()
}

// Fetch downloads the feed for q
func (s *RSSSource) Fetch(ctx context.Context, q domain.QuerySpec) (*domain.RawPayload, error) {
	target := s.BuildURL(q)
	body, err := s.fetcher.get(ctx, target)
	if err != nil {
		return nil, err
	}
	return &domain.RawPayload{
		Source:    domain.SourceRSS,
		URL:       target,
		Body:      body,
		FetchedAt: s.now(),
		Query:     q,
	}, nil
}
