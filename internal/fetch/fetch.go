package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	UserAgent      = "parl-committees/1.0 (github.com/pfrederiksen/parl-committees)"
	DefaultTimeout = 30 * time.Second
)

// Fetcher returns a queryable document tree for a URL. The importer depends
// on this interface so tests can feed fixture HTML instead of the live site.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// Client fetches pages over plain HTTP GET. No retries and no rate limiting:
// a network failure propagates and aborts the current committee's import.
type Client struct {
	client *http.Client
}

// New creates a Client with the given request timeout. A zero timeout uses
// DefaultTimeout.
func New(timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		client: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status code %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}
	return doc, nil
}
