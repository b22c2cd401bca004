package notifications

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ocean_tracker/internal/tracker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(url string, failuresOnly bool) *Client {
	return NewClient(Options{
		BaseURL:      url,
		Topic:        "ocean",
		Enabled:      true,
		FailuresOnly: failuresOnly,
		Priority:     "default",
		MaxRetries:   2,
		BaseDelay:    time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	})
}

func summary(err error) tracker.Summary {
	s := tracker.Summary{
		RunID:           "run-1",
		Duration:        1500 * time.Millisecond,
		CurrentPrice:    65000,
		HasCurrentPrice: true,
		PriceAPICalls:   4,
		Results: []tracker.DatasetResult{
			{Dataset: "earnings", Sheet: "Earnings", Status: tracker.StatusOK, Rows: 12},
			{Dataset: "payouts", Sheet: "Payouts", Status: tracker.StatusOK, Rows: 3},
		},
	}
	if err != nil {
		s.Results[1].Status = tracker.StatusPublishFailed
		s.Results[1].Rows = 0
		s.Results[1].Err = err
	}
	return s
}

func TestSendNotificationRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "/ocean", r.URL.Path)
		assert.Equal(t, "default", r.Header.Get("Priority"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL, false)
	require.NoError(t, c.SendNotification(context.Background(), "t", "", "hello"))

	sent, failed, retries := c.Stats()
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, int64(1), sent)
	assert.Zero(t, failed)
	assert.Equal(t, int64(2), retries)
}

func TestSendNotificationAuthErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := testClient(srv.URL, false)
	err := c.SendNotification(context.Background(), "t", "", "hello")

	var sendErr *SendError
	require.True(t, errors.As(err, &sendErr))
	assert.Equal(t, "auth", sendErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, sendErr.StatusCode)
	assert.False(t, sendErr.Temporary())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	sent, failed, retries := c.Stats()
	assert.Zero(t, sent)
	assert.Equal(t, int64(1), failed)
	assert.Zero(t, retries)
}

func TestSendNotificationGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(srv.URL, false)
	err := c.SendNotification(context.Background(), "t", "", "hello")

	var sendErr *SendError
	require.True(t, errors.As(err, &sendErr))
	assert.Equal(t, "rate_limit", sendErr.Kind)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	_, failed, retries := c.Stats()
	assert.Equal(t, int64(1), failed)
	assert.Equal(t, int64(2), retries)
}

func TestSendNotificationDisabled(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1", Topic: "ocean"})
	assert.NoError(t, c.SendNotification(context.Background(), "t", "", "hello"))

	sent, failed, _ := c.Stats()
	assert.Zero(t, sent)
	assert.Zero(t, failed)
}

func TestNotifyRunSendsSummary(t *testing.T) {
	var title, tags, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		title = r.Header.Get("Title")
		tags = r.Header.Get("Tags")
		b, _ := io.ReadAll(r.Body)
		body = string(b)
	}))
	defer srv.Close()

	c := testClient(srv.URL, false)
	c.NotifyRun(context.Background(), summary(errors.New("quota exceeded")))

	assert.Equal(t, "Ocean tracker: 1 of 2 datasets failed", title)
	assert.Equal(t, "warning", tags)
	assert.Contains(t, body, "BTC: $65,000.00")
	assert.Contains(t, body, "- Earnings: 12 rows")
	assert.Contains(t, body, "- Payouts: failed (publish_failed): quota exceeded")
	assert.Contains(t, body, "Price API calls: 4")

	sent, failed, _ := c.Stats()
	assert.Equal(t, int64(1), sent)
	assert.Zero(t, failed)
}

func TestNotifyRunFailuresOnly(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c := testClient(srv.URL, true)
	c.NotifyRun(context.Background(), summary(nil))
	assert.Zero(t, atomic.LoadInt32(&calls))

	c.NotifyRun(context.Background(), summary(errors.New("boom")))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFormatSummaryWithoutPrice(t *testing.T) {
	s := summary(nil)
	s.HasCurrentPrice = false

	msg := FormatSummary(s)
	assert.Contains(t, msg, "BTC: price unavailable")
	assert.Contains(t, msg, "Run run-1 took 1.5s")
}
