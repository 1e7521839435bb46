package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/nyaa-go/internal/domain"
)

func sourcesConfig(base string) domain.SourcesConfig {
	return domain.SourcesConfig{
		HTML:      domain.SourceEndpoint{BaseURL: base},
		RSS:       domain.SourceEndpoint{BaseURL: base},
		UserAgent: "nyaa-go/test",
	}
}

func testQuery() domain.QuerySpec {
	return domain.QuerySpec{
		Term:      "frieren 1080p",
		Category:  domain.CategoryAnimeEnglish,
		Filter:    domain.FilterTrustedOnly,
		Sort:      domain.SortSeeders,
		Direction: domain.SortAsc,
		Page:      3,
	}
}

func TestHTMLSource_Fetch(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	src, err := NewHTMLSource(sourcesConfig(srv.URL), srv.Client())
	require.NoError(t, err)
	assert.Equal(t, domain.SourceHTML, src.Kind())

	raw, err := src.Fetch(context.Background(), testQuery())
	require.NoError(t, err)

	require.NotNil(t, got)
	params := got.URL.Query()
	assert.Equal(t, "2", params.Get("f"))
	assert.Equal(t, "1_2", params.Get("c"))
	assert.Equal(t, "frieren 1080p", params.Get("q"))
	assert.Equal(t, "seeders", params.Get("s"))
	assert.Equal(t, "asc", params.Get("o"))
	assert.Equal(t, "3", params.Get("p"))
	assert.Equal(t, "nyaa-go/test", got.Header.Get("User-Agent"))

	assert.Equal(t, domain.SourceHTML, raw.Source)
	assert.Equal(t, []byte("<html></html>"), raw.Body)
	assert.False(t, raw.FetchedAt.IsZero())
	assert.Equal(t, 3, raw.Query.Page)
}

func TestHTMLSource_DateSortMapsToID(t *testing.T) {
	src, err := NewHTMLSource(sourcesConfig("https://nyaa.si"), nil)
	require.NoError(t, err)

	u, err := url.Parse(src.BuildURL(domain.QuerySpec{Term: "x", Sort: domain.SortDate}))
	require.NoError(t, err)
	assert.Equal(t, "id", u.Query().Get("s"))
	assert.Equal(t, "desc", u.Query().Get("o"))
	assert.Equal(t, "1", u.Query().Get("p"))
	assert.Equal(t, "0_0", u.Query().Get("c"))
}

func TestRSSSource_Fetch(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Write([]byte("<rss></rss>"))
	}))
	defer srv.Close()

	src, err := NewRSSSource(sourcesConfig(srv.URL), srv.Client())
	require.NoError(t, err)

	raw, err := src.Fetch(context.Background(), testQuery())
	require.NoError(t, err)

	params := got.URL.Query()
	assert.Equal(t, "rss", params.Get("page"))
	assert.Equal(t, "2", params.Get("f"))
	assert.Equal(t, "1_2", params.Get("c"))
	assert.Equal(t, "frieren 1080p", params.Get("q"))
	_, magnets := params["m"]
	assert.True(t, magnets)
	assert.Empty(t, params.Get("p"), "feed is not paginated")
	assert.Equal(t, domain.SourceRSS, raw.Source)
}

func TestSources_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	html, err := NewHTMLSource(sourcesConfig(srv.URL), srv.Client())
	require.NoError(t, err)
	rss, err := NewRSSSource(sourcesConfig(srv.URL), srv.Client())
	require.NoError(t, err)

	for _, src := range []domain.SourceProvider{html, rss} {
		_, err := src.Fetch(context.Background(), testQuery())
		require.Error(t, err)
		assert.Equal(t, domain.CauseHTTPStatus, domain.CauseOf(err))
		assert.False(t, domain.IsRetryable(err))

		var statusErr *domain.HTTPStatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	}
}

func TestSources_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	src, err := NewHTMLSource(sourcesConfig(base), nil)
	require.NoError(t, err)

	_, err = src.Fetch(context.Background(), testQuery())
	require.Error(t, err)
	assert.Equal(t, domain.CauseNetwork, domain.CauseOf(err))
	assert.True(t, domain.IsRetryable(err))
}

func TestSources_InvalidBaseURL(t *testing.T) {
	for _, base := range []string{"", "nyaa.si", "ftp://nyaa.si", "https://"} {
		_, err := NewHTMLSource(sourcesConfig(base), nil)
		require.Error(t, err, "base %q", base)
		assert.Equal(t, domain.CauseConfig, domain.CauseOf(err))

		_, err = NewRSSSource(sourcesConfig(base), nil)
		assert.Equal(t, domain.CauseConfig, domain.CauseOf(err))
	}
}
