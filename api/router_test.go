package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/nyaa-go/internal/app"
	"github.com/yourusername/nyaa-go/internal/domain"
	"github.com/yourusername/nyaa-go/internal/infrastructure"
	"github.com/yourusername/nyaa-go/pkg/logger"
)

type stubSource struct {
	body []byte
	err  error
}

func (s *stubSource) Kind() domain.SourceKind { return domain.SourceHTML }

func (s *stubSource) Fetch(ctx context.Context, q domain.QuerySpec) (*domain.RawPayload, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.RawPayload{
		Source:    domain.SourceHTML,
		URL:       "https://nyaa.si/?q=" + q.Term,
		Body:      s.body,
		FetchedAt: time.Now(),
		Query:     q,
	}, nil
}

type stubClient struct {
	name  string
	err   error
	block bool

	mu   sync.Mutex
	reqs []*domain.DownloadRequest
}

func (c *stubClient) Name() string { return c.name }

func (c *stubClient) Kind() domain.ClientKind { return domain.ClientQBittorrent }

func (c *stubClient) Submit(ctx context.Context, req *domain.DownloadRequest) error {
	c.mu.Lock()
	c.reqs = append(c.reqs, req)
	c.mu.Unlock()
	if c.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return c.err
}

type testEnv struct {
	router  *gin.Engine
	source  *stubSource
	client  *stubClient
	logsDir string
}

func newTestEnv(t *testing.T, opts ...func(*domain.Config)) *testEnv {
	t.Helper()

	body, err := os.ReadFile(filepath.Join("..", "internal", "normalize", "testdata", "search.html"))
	require.NoError(t, err)

	config := domain.DefaultConfig()
	config.Logging.LogsDir = t.TempDir()
	config.DefaultClient = "qbit"
	for _, opt := range opts {
		opt(config)
	}

	source := &stubSource{body: body}
	search, err := app.NewSearchManager([]domain.SourceProvider{source}, app.RetryPolicy{MaxAttempts: 1}, nil, nil)
	require.NoError(t, err)

	repo, err := infrastructure.NewSQLiteSubmissionRepository(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	client := &stubClient{name: "qbit"}
	other := &stubClient{name: "open"}
	downloads, err := app.NewDownloadManager(repo, []domain.DownloadClient{client, other}, "qbit", nil, nil, nil)
	require.NoError(t, err)

	services := &app.Services{
		Config:    config,
		Search:    search,
		Downloads: downloads,
	}
	return &testEnv{
		router:  SetupRouter(services),
		source:  source,
		client:  client,
		logsDir: config.Logging.LogsDir,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status  string              `json:"status"`
		Sources []domain.SourceKind `json:"sources"`
		Clients []app.ClientInfo    `json:"clients"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []domain.SourceKind{domain.SourceHTML}, resp.Sources)
	require.Len(t, resp.Clients, 2)
	assert.Equal(t, "open", resp.Clients[0].Name)

	w = env.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/search?q=frieren&category=1_2&sort=seeders&direction=asc", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Query    domain.QuerySpec `json:"query"`
		Attempts int              `json:"attempts"`
		Pages    []*domain.Page   `json:"pages"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "frieren", resp.Query.Term)
	assert.Equal(t, domain.CategoryAnimeEnglish, resp.Query.Category)
	assert.Equal(t, domain.SortSeeders, resp.Query.Sort)
	assert.Equal(t, domain.SortAsc, resp.Query.Direction)
	assert.Equal(t, 1, resp.Attempts)
	require.Len(t, resp.Pages, 1)
	assert.Len(t, resp.Pages[0].Items, 3)
}

func TestSearch_MultiplePages(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/search?q=frieren&pages=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Pages []*domain.Page `json:"pages"`
	}
	decode(t, w, &resp)
	require.Len(t, resp.Pages, 2)
	assert.Equal(t, 2, resp.Pages[1].Number)

	w = env.do(t, http.MethodGet, "/api/v1/search?q=frieren&pages=50", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearch_BadParameters(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		query string
	}{
		{"unknown filter", "filter=everything"},
		{"unknown source", "source=torznab"},
		{"unknown category", "category=9_9"},
		{"page not a number", "page=two"},
		{"bad direction", "direction=up"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/v1/search?q=x&"+tt.query, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestSearch_UpstreamFailureMapsCause(t *testing.T) {
	env := newTestEnv(t)

	env.source.err = &domain.NetworkError{Op: "GET", URL: "https://nyaa.si", Err: assert.AnError}
	w := env.do(t, http.MethodGet, "/api/v1/search?q=frieren", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp map[string]interface{}
	decode(t, w, &resp)
	assert.Equal(t, "network", resp["cause"])

	env.source.err = &domain.TimeoutError{Op: "fetch html", After: time.Second}
	w = env.do(t, http.MethodGet, "/api/v1/search?q=frieren", nil)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestSearchOptions(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/search/options", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"trusted_only"`)
	assert.Contains(t, w.Body.String(), `"Anime - Raw"`)
}

func TestDownloads_SubmitAndHistory(t *testing.T) {
	env := newTestEnv(t)

	item := domain.ResultItem{
		Title:    "[SubsPlease] Frieren - 01",
		Magnet:   "magnet:?xt=urn:btih:0123456789abcdef0123456789abcdef01234567",
		InfoHash: "0123456789abcdef0123456789abcdef01234567",
	}
	w := env.do(t, http.MethodPost, "/api/v1/downloads", map[string]interface{}{"item": item})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var outcome domain.DownloadOutcome
	decode(t, w, &outcome)
	assert.True(t, outcome.Succeeded)
	assert.Equal(t, "qbit", outcome.Client)
	require.Len(t, env.client.reqs, 1)
	assert.Equal(t, item.Title, env.client.reqs[0].Item.Title)

	w = env.do(t, http.MethodGet, "/api/v1/downloads/"+outcome.RequestID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var record domain.SubmissionRecord
	decode(t, w, &record)
	assert.Equal(t, domain.SubmissionSucceeded, record.Status)

	w = env.do(t, http.MethodGet, "/api/v1/downloads?client=qbit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var records []domain.SubmissionRecord
	decode(t, w, &records)
	assert.Len(t, records, 1)

	w = env.do(t, http.MethodGet, "/api/v1/downloads/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats domain.SubmissionStats
	decode(t, w, &stats)
	assert.Equal(t, int64(1), stats.Total)
	assert.Equal(t, int64(1), stats.Succeeded)

	w = env.do(t, http.MethodGet, "/api/v1/downloads/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloads_SubmitFailures(t *testing.T) {
	env := newTestEnv(t)
	item := domain.ResultItem{Title: "Frieren 01", TorrentURL: "https://nyaa.si/download/1.torrent"}

	w := env.do(t, http.MethodPost, "/api/v1/downloads", map[string]interface{}{"item": domain.ResultItem{Title: "no link"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/downloads", map[string]interface{}{"item": item, "client": "deluge"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.client.err = &domain.AuthError{Client: "qbit", Reason: "bad credentials"}
	w = env.do(t, http.MethodPost, "/api/v1/downloads", map[string]interface{}{"item": item})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp failureBody
	decode(t, w, &resp)
	assert.False(t, resp.Succeeded)
	assert.Equal(t, domain.CauseAuth, resp.Cause)
	assert.Contains(t, resp.Error, "bad credentials")
}

func TestDownloads_SubmitTimeout(t *testing.T) {
	env := newTestEnv(t, func(c *domain.Config) {
		c.Requests.SubmitTimeout = 50 * time.Millisecond
	})
	env.client.block = true
	item := domain.ResultItem{Title: "Frieren 01", TorrentURL: "https://nyaa.si/download/1.torrent"}

	start := time.Now()
	w := env.do(t, http.MethodPost, "/api/v1/downloads", map[string]interface{}{"item": item})
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)

	var resp failureBody
	decode(t, w, &resp)
	assert.False(t, resp.Succeeded)
	assert.Equal(t, domain.CauseTimeout, resp.Cause)
}

type failureBody struct {
	Succeeded bool         `json:"succeeded"`
	Cause     domain.Cause `json:"cause"`
	Error     string       `json:"error"`
}

func TestClients(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/clients", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"default":"qbit"`)

	w = env.do(t, http.MethodPost, "/api/v1/clients/open/default", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/clients", nil)
	assert.Contains(t, w.Body.String(), `"default":"open"`)

	w = env.do(t, http.MethodPost, "/api/v1/clients/deluge/default", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func writeLog(t *testing.T, dir string, category logger.LogCategory, lines ...string) {
	t.Helper()
	path := logger.NewLogReader(dir).GetLogPath(category, time.Now())
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
}

func TestLogs(t *testing.T) {
	env := newTestEnv(t)
	writeLog(t, env.logsDir, logger.CategorySearch,
		`{"level":"info","timestamp":"2024-01-01T00:00:00Z","message":"query_loaded","term":"frieren"}`,
		`{"level":"warn","timestamp":"2024-01-01T00:00:01Z","message":"query_failed","term":"one piece"}`,
	)

	w := env.do(t, http.MethodGet, "/api/v1/logs/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"download"`)

	w = env.do(t, http.MethodGet, "/api/v1/logs/search", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Count   int               `json:"count"`
		Entries []logger.LogEntry `json:"entries"`
	}
	decode(t, w, &resp)
	assert.Equal(t, 2, resp.Count)

	w = env.do(t, http.MethodGet, "/api/v1/logs/search/search?q=piece", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "query_failed", resp.Entries[0].Message)

	w = env.do(t, http.MethodGet, "/api/v1/logs/search/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/logs/queue", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/logs/search?date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/logs/search/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "search-")
	assert.Contains(t, w.Body.String(), "query_loaded")
}

func TestLogStream_SendsBacklog(t *testing.T) {
	env := newTestEnv(t)
	writeLog(t, env.logsDir, logger.CategoryDownload,
		`{"level":"info","timestamp":"2024-01-01T00:00:00Z","message":"submission_succeeded","client":"qbit"}`,
	)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/logs/download/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var entry logger.LogEntry
	require.NoError(t, conn.ReadJSON(&entry))
	assert.Equal(t, "submission_succeeded", entry.Message)
	assert.Equal(t, "qbit", entry.Fields["client"])
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodOptions, "/api/v1/search", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = env.do(t, http.MethodGet, "/api/v1/nothing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
