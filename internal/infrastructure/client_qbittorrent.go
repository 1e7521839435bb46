package infrastructure

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/yourusername/nyaa-go/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

const (
	qbitLoginPath = "api/v2/auth/login"
	qbitAddPath   = "api/v2/torrents/add"

	qbitOK    = "Ok."
	qbitFails = "Fails."
)

// QBittorrentClient submits results through the qBittorrent WebUI API.
// A session is established on first use and reused until the server
// rejects it.
type QBittorrentClient struct {
	name     string
	endpoint *url.URL
	username string
	password string
	defaults domain.SubmitOptions
	http     *http.Client
	logger   *zap.Logger

	mu      sync.Mutex
	session uint64 // zero until the first successful login
}

// NewQBittorrentClient validates cfg and creates a client. The http client
// is copied so the session cookie jar is private to this instance.
func NewQBittorrentClient(cfg domain.ClientConfig, httpClient *http.Client, logger *zap.Logger) (*QBittorrentClient, error) {
	component := "qbittorrent client " + cfg.Name
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, configError("qbittorrent client", "name", "must not be empty")
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, configError(component, "endpoint", "must not be empty")
	}
	endpoint, err := url.Parse(strings.TrimSpace(cfg.Endpoint))
	if err != nil || (endpoint.Scheme != "http" && endpoint.Scheme != "https") || endpoint.Host == "" {
		return nil, configError(component, "endpoint", "must be an absolute http(s) URL")
	}
	if cfg.Username == "" {
		return nil, configError(component, "username", "must not be empty")
	}
	if cfg.Password == "" {
		return nil, configError(component, "password", "must not be empty")
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	hc := &http.Client{}
	if httpClient != nil {
		copied := *httpClient
		hc = &copied
	}
	hc.Jar = jar

	if logger == nil {
		logger = zap.NewNop()
	}

	return &QBittorrentClient{
		name:     cfg.Name,
		endpoint: endpoint,
		username: cfg.Username,
		password: cfg.Password,
		defaults: cfg.Options,
		http:     hc,
		logger:   logger,
	}, nil
}

// Name returns the configured client name
func (c *QBittorrentClient) Name() string {
	return c.name
}

// Kind returns ClientQBittorrent
func (c *QBittorrentClient) Kind() domain.ClientKind {
	return domain.ClientQBittorrent
}

// Submit adds the request's reference to qBittorrent. A 403 from the add
// call triggers exactly one re-login followed by one more add.
func (c *QBittorrentClient) Submit(ctx context.Context, req *domain.DownloadRequest) error {
	ref := req.Item.Reference()
	if ref == "" {
		return &domain.SubmissionError{Client: c.name, Reason: "result has no magnet or torrent link"}
	}
	opts := c.defaults.Merge(req.Options)

	session, err := c.ensureSession(ctx, 0)
	if err != nil {
		return err
	}

	status, err := c.add(ctx, ref, opts)
	if err != nil {
		return err
	}
	if status != http.StatusForbidden {
		return nil
	}

	c.logger.Info("qBittorrent session rejected, logging in again",
		zap.String("client", c.name),
		zap.String("request_id", req.ID))

	if _, err := c.ensureSession(ctx, session); err != nil {
		return err
	}
	status, err = c.add(ctx, ref, opts)
	if err != nil {
		return err
	}
	if status == http.StatusForbidden {
		return &domain.AuthError{Client: c.name, Reason: "session rejected after re-login"}
	}
	return nil
}

// ensureSession logs in unless a session newer than stale already exists
func (c *QBittorrentClient) ensureSession(ctx context.Context, stale uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != 0 && c.session != stale {
		return c.session, nil
	}
	if err := c.login(ctx); err != nil {
		return 0, err
	}
	c.session++
	return c.session, nil
}

func (c *QBittorrentClient) login(ctx context.Context) error {
	target := c.endpoint.JoinPath(qbitLoginPath).String()
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", c.origin())

	status, body, err := c.do(req)
	if err != nil {
		return err
	}
	switch {
	case status == http.StatusForbidden:
		return &domain.AuthError{Client: c.name, Reason: "login forbidden, too many failed attempts"}
	case status < 200 || status > 299:
		return statusError(http.MethodPost, target, status)
	case body == qbitFails:
		return &domain.AuthError{Client: c.name, Reason: "invalid username or password"}
	}

	c.logger.Debug("qBittorrent login succeeded", zap.String("client", c.name))
	return nil
}

// add posts the torrent and returns the status code. 403 is returned
// without error so the caller can decide whether to re-login.
func (c *QBittorrentClient) add(ctx context.Context, ref string, opts domain.SubmitOptions) (int, error) {
	target := c.endpoint.JoinPath(qbitAddPath).String()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, field := range addTorrentFields(ref, opts) {
		if err := mw.WriteField(field[0], field[1]); err != nil {
			return 0, fmt.Errorf("failed to encode field %s: %w", field[0], err)
		}
	}
	if err := mw.Close(); err != nil {
		return 0, fmt.Errorf("failed to encode add request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &buf)
	if err != nil {
		return 0, fmt.Errorf("failed to build add request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Referer", c.origin())

	status, body, err := c.do(req)
	if err != nil {
		return 0, err
	}
	switch {
	case status == http.StatusForbidden:
		return status, nil
	case status == http.StatusUnsupportedMediaType || status == http.StatusConflict:
		return status, &domain.SubmissionError{Client: c.name, StatusCode: status, Reason: "torrent rejected"}
	case status < 200 || status > 299:
		return status, statusError(http.MethodPost, target, status)
	case body == qbitFails:
		return status, &domain.SubmissionError{Client: c.name, StatusCode: status, Reason: "torrent rejected"}
	}
	return status, nil
}

func (c *QBittorrentClient) do(req *http.Request) (int, string, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return 0, "", req.Context().Err()
		}
		return 0, "", networkError(req.Method, req.URL.String(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return 0, "", networkError(req.Method, req.URL.String(), err)
	}
	return resp.StatusCode, strings.TrimSpace(string(body)), nil
}

func (c *QBittorrentClient) origin() string {
	return c.endpoint.Scheme + "://" + c.endpoint.Host
}

// addTorrentFields maps options to form fields, leaving unset ones out
func addTorrentFields(ref string, o domain.SubmitOptions) [][2]string {
	fields := [][2]string{{"urls", ref}}
	str := func(name string, v *string) {
		if v != nil {
			fields = append(fields, [2]string{name, *v})
		}
	}
	flag := func(name string, v *bool) {
		if v != nil {
			fields = append(fields, [2]string{name, strconv.FormatBool(*v)})
		}
	}
	num := func(name string, v *int64) {
		if v != nil {
			fields = append(fields, [2]string{name, strconv.FormatInt(*v, 10)})
		}
	}

	str("savepath", o.SavePath)
	str("category", o.Category)
	if len(o.Tags) > 0 {
		fields = append(fields, [2]string{"tags", strings.Join(o.Tags, ",")})
	}
	str("rename", o.Rename)
	flag("paused", o.Paused)
	// qBittorrent 5 renamed paused to stopped
	flag("stopped", o.Paused)
	flag("skip_checking", o.SkipChecking)
	flag("sequentialDownload", o.SequentialDownload)
	flag("firstLastPiecePrio", o.FirstLastPiecePrio)
	flag("autoTMM", o.AutoTMM)
	str("contentLayout", o.ContentLayout)
	num("upLimit", o.UploadLimit)
	num("dlLimit", o.DownloadLimit)
	if o.RatioLimit != nil {
		fields = append(fields, [2]string{"ratioLimit", strconv.FormatFloat(*o.RatioLimit, 'f', -1, 64)})
	}
	num("seedingTimeLimit", o.SeedingTimeLimit)
	return fields
}
