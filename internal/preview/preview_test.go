package preview

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"ocean_tracker/internal/pricecache"
	"ocean_tracker/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPrices struct{}

func (fixedPrices) Historical(ctx context.Context, ts time.Time) (float64, bool) {
	return 60000, true
}

func TestPublishRendersUpdate(t *testing.T) {
	update, err := report.BuildPayouts(context.Background(), report.RawTable{
		Columns: []string{"Time", "Amount (BTC)"},
		Rows:    [][]string{{"2024-05-03 08:00:00", "0.5"}},
	}, fixedPrices{}, report.Options{
		SheetName:       "Payouts",
		Now:             time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC),
		CurrentPrice:    65000,
		HasCurrentPrice: true,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf).Publish(context.Background(), update))

	out := buf.String()
	assert.Contains(t, out, "PAYOUTS")
	assert.Contains(t, out, "Report as of: June 01, 2024 09:30 AM")
	assert.Contains(t, out, "BTC Price: $65,000.00")
	assert.Contains(t, out, "30000")
	assert.Contains(t, strings.ToUpper(out), "TOTAL")
}

func TestPublishHeaderOnly(t *testing.T) {
	update, err := report.BuildEarnings(context.Background(), report.RawTable{
		Columns: []string{"Time", "Block", "Share Log %", "Share Count", "Earnings (BTC)", "Pool Fees (BTC)"},
	}, fixedPrices{}, report.Options{SheetName: "Earnings", Now: time.Now()})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf).Publish(context.Background(), update))
	assert.Contains(t, buf.String(), "EARNINGS")
}

func TestPublishCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := NewPrinter(&buf).Publish(ctx, report.SheetUpdate{SheetName: "Earnings"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf.String())
}

func TestRenderCache(t *testing.T) {
	var buf bytes.Buffer
	RenderCache(&buf, []pricecache.Entry{
		{Key: "2024-01-01 00:00:00", Price: 42000.5},
		{Key: "2024-01-02 00:00:00", Price: 43000},
	})

	out := buf.String()
	assert.Contains(t, out, "2024-01-01 00:00:00")
	assert.Contains(t, out, "$42,000.50")
	assert.Contains(t, out, "$43,000.00")
	assert.Contains(t, strings.ToUpper(out), "2 ENTRIES")
}
