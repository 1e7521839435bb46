package infrastructure

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/nyaa-go/internal/domain"
)

// HTMLSource fetches search listing pages
type HTMLSource struct {
	baseURL *url.URL
	fetcher *httpFetcher
	now     func() time.Time
}

// NewHTMLSource creates a listing page source for the configured endpoint
func NewHTMLSource(cfg domain.SourcesConfig, client *http.Client) (*HTMLSource, error) {
	base, err := parseBaseURL("html source", cfg.HTML.BaseURL)
	if err != nil {
		return nil, err
	}
	return &HTMLSource{
		baseURL: base,
		fetcher: newHTTPFetcher(client, cfg.UserAgent),
		now:     time.Now,
	}, nil
}

// Kind returns SourceHTML
func (s *HTMLSource) Kind() domain.SourceKind {
	return domain.SourceHTML
}

// BuildURL returns the listing URL for q
func (s *HTMLSource) BuildURL(q domain.QuerySpec) string {
	q = q.Normalized()
	params := url.Values{}
	params.Set("f", q.Filter.Code())
	params.Set("c", string(q.Category))
	params.Set("q", q.Term)
	params.Set("s", q.Sort.Param())
	params.Set("o", string(q.Direction))
	params.Set("p", strconv.Itoa(q.Page))

	u := *s.baseURL
	u.RawQuery = params.Encode()
	return u.String()
}

// Fetch downloads the listing page for q
func (s *HTMLSource) Fetch(ctx context.Context, q domain.QuerySpec) (*domain.RawPayload, error) {
	target := s.BuildURL(q)
	body, err := s.fetcher.get(ctx, target)
	if err != nil {
		return nil, err
	}
	return &domain.RawPayload{
		Source:    domain.SourceHTML,
		URL:       target,
		Body:      body,
		FetchedAt: s.now(),
		Query:     q,
	}, nil
}

func parseBaseURL(component, raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, configError(component, "base_url", "must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, configError(component, "base_url", "must be an absolute http(s) URL")
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u, nil
}
