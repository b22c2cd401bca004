// Package notifications posts tracker run summaries to an ntfy topic.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"ocean_tracker/internal/report"
	"ocean_tracker/internal/retry"
	"ocean_tracker/internal/tracker"

	"github.com/rs/zerolog/log"
)

// Client sends ntfy messages. It is safe for concurrent use.
type Client struct {
	httpClient   *http.Client
	topicURL     string
	enabled      bool
	failuresOnly bool
	priority     string
	policy       retry.Config

	mu      sync.Mutex
	sent    int64
	failed  int64
	retries int64
}

// Options configures a Client. Zero delays fall back to a 1s base delay
// capped at 10s.
type Options struct {
	BaseURL      string
	Topic        string
	Enabled      bool
	FailuresOnly bool
	Priority     string
	MaxRetries   int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
}

// SendError describes a rejected or undeliverable message.
type SendError struct {
	Kind       string // network, auth, rate_limit, client or server
	StatusCode int
	Err        error
}

func (e *SendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ntfy %s error (HTTP %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("ntfy %s error: %v", e.Kind, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Temporary reports whether sending again may succeed.
func (e *SendError) Temporary() bool {
	switch e.Kind {
	case "network", "rate_limit", "server":
		return true
	}
	return false
}

func NewClient(opts Options) *Client {
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 10 * time.Second
	}
	return &Client{
		httpClient:   &http.Client{},
		topicURL:     strings.TrimSuffix(opts.BaseURL, "/") + "/" + opts.Topic,
		enabled:      opts.Enabled,
		failuresOnly: opts.FailuresOnly,
		priority:     opts.Priority,
		policy: retry.Config{
			MaxRetries: max(opts.MaxRetries, 0),
			BaseDelay:  opts.BaseDelay,
			MaxDelay:   opts.MaxDelay,
			Timeout:    10 * time.Second,
		},
	}
}

// SendNotification posts message to the topic. Network, rate limit and
// server errors are retried; anything else fails at once.
func (c *Client) SendNotification(ctx context.Context, title, tags, message string) error {
	if !c.enabled {
		log.Debug().Msg("Notifications disabled, skipping")
		return nil
	}

	attempts := 0
	_, err := retry.WithRetry(ctx, c.policy, func(ctx context.Context) (struct{}, error) {
		attempts++
		err := c.post(ctx, title, tags, message)
		var sendErr *SendError
		if err != nil && !(errors.As(err, &sendErr) && sendErr.Temporary()) {
			return struct{}{}, retry.Permanent(err)
		}
		return struct{}{}, err
	})

	c.mu.Lock()
	c.retries += int64(attempts - 1)
	if err != nil {
		c.failed++
	} else {
		c.sent++
	}
	c.mu.Unlock()
	return err
}

func (c *Client) post(ctx context.Context, title, tags, message string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.topicURL, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	for header, value := range map[string]string{"Title": title, "Tags": tags, "Priority": c.priority} {
		if value != "" {
			req.Header.Set(header, value)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &SendError{Kind: "network", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &SendError{Kind: kindOf(resp.StatusCode), StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", resp.Status)}
	}
	log.Debug().Str("url", c.topicURL).Int("status_code", resp.StatusCode).Msg("Notification sent")
	return nil
}

func kindOf(status int) string {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "auth"
	case status == http.StatusTooManyRequests:
		return "rate_limit"
	case status >= 500:
		return "server"
	default:
		return "client"
	}
}

// Stats returns how many messages were delivered, how many were given up on
// and how many retries were spent, since the client was created.
func (c *Client) Stats() (sent, failed, retries int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent, c.failed, c.retries
}

// NotifyRun sends the outcome of one tracker run. With failuresOnly set, clean
// runs are not announced.
func (c *Client) NotifyRun(ctx context.Context, summary tracker.Summary) {
	if !c.enabled {
		return
	}

	failed := summary.Failed()
	if failed == 0 && c.failuresOnly {
		log.Debug().Str("run_id", summary.RunID).Msg("Run succeeded, notification suppressed")
		return
	}

	title := "Ocean tracker: sheets updated"
	tags := "white_check_mark"
	if failed > 0 {
		title = fmt.Sprintf("Ocean tracker: %d of %d datasets failed", failed, len(summary.Results))
		tags = "warning"
	}

	err := c.SendNotification(ctx, title, tags, FormatSummary(summary))
	sentTotal, failedTotal, retriesTotal := c.Stats()
	event := log.Debug()
	if err != nil {
		event = log.Warn().Err(err)
	}
	event.
		Str("run_id", summary.RunID).
		Int64("sent_total", sentTotal).
		Int64("failed_total", failedTotal).
		Int64("retries_total", retriesTotal).
		Msg("Run notification finished")
}

// FormatSummary renders a run summary as the notification body.
func FormatSummary(summary tracker.Summary) string {
	var sb strings.Builder

	if summary.HasCurrentPrice {
		sb.WriteString(fmt.Sprintf("BTC: %s\n", report.FormatUSD(summary.CurrentPrice)))
	} else {
		sb.WriteString("BTC: price unavailable\n")
	}

	for _, r := range summary.Results {
		if r.Err != nil {
			sb.WriteString(fmt.Sprintf("- %s: failed (%s): %v\n", r.Sheet, r.Status, r.Err))
			continue
		}
		sb.WriteString(fmt.Sprintf("- %s: %d rows\n", r.Sheet, r.Rows))
	}

	sb.WriteString(fmt.Sprintf("Price API calls: %d\n", summary.PriceAPICalls))
	sb.WriteString(fmt.Sprintf("Run %s took %s", summary.RunID, summary.Duration.Round(time.Millisecond)))
	return sb.String()
}
