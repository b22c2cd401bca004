package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ocean_tracker/internal/report"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"
)

// HTTPScraper downloads exports directly by POSTing the miner address to a
// per-dataset URL. "{address}" in a URL template is replaced with the address.
type HTTPScraper struct {
	client  *retryablehttp.Client
	address string
	urls    map[Dataset]string
}

func NewHTTPScraper(address string, urls map[Dataset]string) *HTTPScraper {
	return &HTTPScraper{
		client:  newRetryClient(),
		address: address,
		urls:    urls,
	}
}

// newRetryClient creates an HTTP client with retry logic.
func newRetryClient() *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 3 * time.Second
	c.HTTPClient.Timeout = 30 * time.Second
	c.Logger = nil
	return c
}

func (s *HTTPScraper) Fetch(ctx context.Context, ds Dataset) (report.RawTable, error) {
	tmpl, ok := s.urls[ds]
	if !ok || tmpl == "" {
		return report.RawTable{}, fmt.Errorf("no export URL configured for %s", ds)
	}
	target := strings.ReplaceAll(tmpl, "{address}", url.PathEscape(s.address))

	form := url.Values{}
	form.Set("user", s.address)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return report.RawTable{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/csv")

	log.Debug().Str("dataset", string(ds)).Str("url", target).Msg("Downloading export")

	resp, err := s.client.Do(req)
	if err != nil {
		return report.RawTable{}, fmt.Errorf("failed to download %s export: %w", ds, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return report.RawTable{}, fmt.Errorf("%s export failed with status %d: %s", ds, resp.StatusCode, string(body))
	}

	table, err := ParseCSV(resp.Body)
	if err != nil {
		return report.RawTable{}, fmt.Errorf("%s export: %w", ds, err)
	}

	log.Debug().
		Str("dataset", string(ds)).
		Int("rows", len(table.Rows)).
		Strs("columns", table.Columns).
		Msg("Downloaded export")
	return table, nil
}
