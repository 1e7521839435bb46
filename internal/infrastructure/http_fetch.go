package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodySize caps how much of a response body is read into memory
const maxBodySize = 8 << 20

// NewHTTPClient returns the client shared by the search backends
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// httpFetcher performs plain GET requests and classifies failures
type httpFetcher struct {
	client    *http.Client
	userAgent string
}

func newHTTPFetcher(client *http.Client, userAgent string) *httpFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpFetcher{client: client, userAgent: userAgent}
}

// get fetches target and returns the body of a 2xx response. Transport
// failures become NetworkError and other statuses HTTPStatusError; a
// cancelled ctx is returned as is.
func (f *httpFetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, networkError(http.MethodGet, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, statusError(http.MethodGet, target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, networkError(http.MethodGet, target, err)
	}
	return body, nil
}
