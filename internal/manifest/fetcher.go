package manifest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetcher retrieves the raw manifest document.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

/**
 *	Manifest fetcher over HTTP GET
 */
type HTTPFetcher struct {
	url       string
	userAgent string
	client    *http.Client
}

// NewHTTPFetcher creates a fetcher whose every request is bounded by timeout.
func NewHTTPFetcher(url, userAgent string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		url:       url,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	rsp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch manifest('%s') code: %d", f.url, rsp.StatusCode)
	}
	data, err := io.ReadAll(rsp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: read body: %w", err)
	}
	return data, nil
}
