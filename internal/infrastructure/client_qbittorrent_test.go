package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/nyaa-go/internal/domain"
)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func int64Ptr(n int64) *int64 { return &n }

func floatPtr(f float64) *float64 { return &f }

// fakeQBittorrent emulates the WebUI endpoints used by the client
type fakeQBittorrent struct {
	mu sync.Mutex

	logins int
	adds   int
	forms  []map[string][]string

	loginResponse string
	loginStatus   int
	// addStatuses is consumed one entry per add call; the last entry repeats
	addStatuses []int
	addBody     string
	validSID    string
}

func newFakeQBittorrent() *fakeQBittorrent {
	return &fakeQBittorrent{
		loginResponse: "Ok.",
		loginStatus:   http.StatusOK,
		addStatuses:   []int{http.StatusOK},
		addBody:       "Ok.",
	}
}

// counts returns the number of login and add calls seen so far
func (f *fakeQBittorrent) counts() (logins, adds int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins, f.adds
}

func (f *fakeQBittorrent) form(i int) map[string][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forms[i]
}

func (f *fakeQBittorrent) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.logins++

		assert.Equal(t, http.MethodPost, r.Method)
		assert.NotEmpty(t, r.Header.Get("Referer"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "admin", r.PostForm.Get("username"))
		assert.Equal(t, "adminadmin", r.PostForm.Get("password"))

		if f.loginStatus != http.StatusOK {
			w.WriteHeader(f.loginStatus)
			return
		}
		if f.loginResponse == "Ok." {
			f.validSID = fmt.Sprintf("sid-%d", f.logins)
			http.SetCookie(w, &http.Cookie{Name: "SID", Value: f.validSID, Path: "/"})
		}
		w.Write([]byte(f.loginResponse))
	})
	mux.HandleFunc("/api/v2/torrents/add", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.adds++

		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.forms = append(f.forms, r.MultipartForm.Value)

		status := f.addStatuses[0]
		if len(f.addStatuses) > 1 {
			f.addStatuses = f.addStatuses[1:]
		}
		if cookie, err := r.Cookie("SID"); err != nil || cookie.Value != f.validSID {
			status = http.StatusForbidden
		}
		w.WriteHeader(status)
		if status == http.StatusOK {
			w.Write([]byte(f.addBody))
		}
	})
	return mux
}

func qbitConfig(endpoint string) domain.ClientConfig {
	return domain.ClientConfig{
		Name:     "seedbox",
		Kind:     domain.ClientQBittorrent,
		Endpoint: endpoint,
		Username: "admin",
		Password: "adminadmin",
	}
}

func magnetRequest() *domain.DownloadRequest {
	item := domain.ResultItem{
		Title:  "[SubsPlease] Frieren - 01 (1080p)",
		Magnet: "magnet:?xt=urn:btih:0123456789abcdef0123456789abcdef01234567",
	}
	return domain.NewDownloadRequest(item, "seedbox", domain.SubmitOptions{})
}

func startFake(t *testing.T, fake *fakeQBittorrent) (*QBittorrentClient, func()) {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	client, err := NewQBittorrentClient(qbitConfig(srv.URL), srv.Client(), nil)
	require.NoError(t, err)
	return client, srv.Close
}

func TestQBittorrent_SubmitLogsInOnce(t *testing.T) {
	fake := newFakeQBittorrent()
	client, stop := startFake(t, fake)
	defer stop()

	require.NoError(t, client.Submit(context.Background(), magnetRequest()))
	require.NoError(t, client.Submit(context.Background(), magnetRequest()))

	logins, adds := fake.counts()
	assert.Equal(t, 1, logins, "session is reused")
	assert.Equal(t, 2, adds)
	assert.Equal(t, []string{magnetRequest().Item.Magnet}, fake.form(0)["urls"])
}

func TestQBittorrent_ReloginOnceOnForbidden(t *testing.T) {
	fake := newFakeQBittorrent()
	client, stop := startFake(t, fake)
	defer stop()

	require.NoError(t, client.Submit(context.Background(), magnetRequest()))

	// Server restarts and forgets the session
	fake.mu.Lock()
	fake.validSID = "rotated"
	fake.mu.Unlock()

	require.NoError(t, client.Submit(context.Background(), magnetRequest()))
	logins, adds := fake.counts()
	assert.Equal(t, 2, logins)
	assert.Equal(t, 3, adds)
}

func TestQBittorrent_SecondForbiddenIsSurfaced(t *testing.T) {
	fake := newFakeQBittorrent()
	fake.addStatuses = []int{http.StatusForbidden}
	client, stop := startFake(t, fake)
	defer stop()

	err := client.Submit(context.Background(), magnetRequest())
	require.Error(t, err)
	assert.Equal(t, domain.CauseAuth, domain.CauseOf(err))
	logins, adds := fake.counts()
	assert.Equal(t, 2, logins, "exactly one re-login")
	assert.Equal(t, 2, adds, "exactly one retried add")
}

func TestQBittorrent_BadCredentials(t *testing.T) {
	fake := newFakeQBittorrent()
	fake.loginResponse = "Fails."
	client, stop := startFake(t, fake)
	defer stop()

	err := client.Submit(context.Background(), magnetRequest())
	require.Error(t, err)
	assert.Equal(t, domain.CauseAuth, domain.CauseOf(err))
	_, adds := fake.counts()
	assert.Equal(t, 0, adds)
}

func TestQBittorrent_LoginBanned(t *testing.T) {
	fake := newFakeQBittorrent()
	fake.loginStatus = http.StatusForbidden
	client, stop := startFake(t, fake)
	defer stop()

	err := client.Submit(context.Background(), magnetRequest())
	assert.Equal(t, domain.CauseAuth, domain.CauseOf(err))
}

func TestQBittorrent_TorrentRejected(t *testing.T) {
	for _, tc := range []struct {
		name   string
		status int
		body   string
	}{
		{"fails body", http.StatusOK, "Fails."},
		{"unsupported media", http.StatusUnsupportedMediaType, ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fake := newFakeQBittorrent()
			fake.addStatuses = []int{tc.status}
			fake.addBody = tc.body
			client, stop := startFake(t, fake)
			defer stop()

			err := client.Submit(context.Background(), magnetRequest())
			require.Error(t, err)
			assert.Equal(t, domain.CauseSubmission, domain.CauseOf(err))
			_, adds := fake.counts()
			assert.Equal(t, 1, adds, "rejections are not retried")
		})
	}
}

func TestQBittorrent_ServerError(t *testing.T) {
	fake := newFakeQBittorrent()
	fake.addStatuses = []int{http.StatusInternalServerError}
	client, stop := startFake(t, fake)
	defer stop()

	err := client.Submit(context.Background(), magnetRequest())
	assert.Equal(t, domain.CauseHTTPStatus, domain.CauseOf(err))
}

func TestQBittorrent_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	client, err := NewQBittorrentClient(qbitConfig(endpoint), nil, nil)
	require.NoError(t, err)

	err = client.Submit(context.Background(), magnetRequest())
	assert.Equal(t, domain.CauseNetwork, domain.CauseOf(err))
}

func TestQBittorrent_OmitsUnsetOptions(t *testing.T) {
	fake := newFakeQBittorrent()
	client, stop := startFake(t, fake)
	defer stop()

	require.NoError(t, client.Submit(context.Background(), magnetRequest()))
	_, adds := fake.counts()
	require.Equal(t, 1, adds)
	assert.Equal(t, []string{"urls"}, keys(fake.form(0)))
}

func TestQBittorrent_MergesDefaultsAndOverrides(t *testing.T) {
	fake := newFakeQBittorrent()
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	cfg := qbitConfig(srv.URL)
	cfg.Options = domain.SubmitOptions{
		SavePath: strPtr("/data/anime"),
		Category: strPtr("anime"),
		Paused:   boolPtr(true),
	}
	client, err := NewQBittorrentClient(cfg, srv.Client(), nil)
	require.NoError(t, err)

	req := magnetRequest()
	req.Options = domain.SubmitOptions{
		Category:         strPtr("seasonal"),
		Tags:             []string{"frieren", "1080p"},
		Paused:           boolPtr(false),
		UploadLimit:      int64Ptr(1048576),
		RatioLimit:       floatPtr(1.5),
		SeedingTimeLimit: int64Ptr(1440),
	}
	require.NoError(t, client.Submit(context.Background(), req))

	form := fake.form(0)
	assert.Equal(t, []string{"/data/anime"}, form["savepath"])
	assert.Equal(t, []string{"seasonal"}, form["category"])
	assert.Equal(t, []string{"frieren,1080p"}, form["tags"])
	assert.Equal(t, []string{"false"}, form["paused"])
	assert.Equal(t, []string{"false"}, form["stopped"])
	assert.Equal(t, []string{"1048576"}, form["upLimit"])
	assert.Equal(t, []string{"1.5"}, form["ratioLimit"])
	assert.Equal(t, []string{"1440"}, form["seedingTimeLimit"])
	assert.NotContains(t, form, "dlLimit")
	assert.NotContains(t, form, "rename")
	assert.NotContains(t, form, "skip_checking")
}

func TestNewQBittorrentClient_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.ClientConfig)
		field  string
	}{
		{"missing endpoint", func(c *domain.ClientConfig) { c.Endpoint = "" }, "endpoint"},
		{"relative endpoint", func(c *domain.ClientConfig) { c.Endpoint = "localhost:8080" }, "endpoint"},
		{"missing username", func(c *domain.ClientConfig) { c.Username = "" }, "username"},
		{"missing password", func(c *domain.ClientConfig) { c.Password = "" }, "password"},
		{"missing name", func(c *domain.ClientConfig) { c.Name = " " }, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := qbitConfig("http://localhost:8080")
			tt.mutate(&cfg)

			client, err := NewQBittorrentClient(cfg, nil, nil)
			require.Error(t, err)
			assert.Nil(t, client)

			var cfgErr *domain.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestQBittorrent_NoReference(t *testing.T) {
	client, err := NewQBittorrentClient(qbitConfig("http://localhost:8080"), nil, nil)
	require.NoError(t, err)

	req := domain.NewDownloadRequest(domain.ResultItem{Title: "nothing"}, "seedbox", domain.SubmitOptions{})
	err = client.Submit(context.Background(), req)
	assert.Equal(t, domain.CauseSubmission, domain.CauseOf(err))
}

func keys(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
