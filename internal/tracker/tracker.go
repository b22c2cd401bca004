// Package tracker runs scrape cycles: fetch each dataset, build its sheet
// update and publish it, keeping datasets independent of each other.
package tracker

import (
	"context"
	"errors"
	"time"

	"ocean_tracker/internal/metrics"
	"ocean_tracker/internal/report"
	"ocean_tracker/internal/scraper"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Dataset outcomes, also used as metric labels.
const (
	StatusOK             = "ok"
	StatusFetchFailed    = "fetch_failed"
	StatusSchemaMismatch = "schema_mismatch"
	StatusBuildFailed    = "build_failed"
	StatusPublishFailed  = "publish_failed"
	StatusCancelled      = "cancelled"
)

// Publisher replaces a sheet tab with an update. *sheets.Writer and the
// dry-run preview both implement it.
type Publisher interface {
	Publish(ctx context.Context, update report.SheetUpdate) error
}

// PriceResolver supplies historical prices to the builders and the current
// price once per run. StartRun is called before any lookup of a run and
// APICalls reports the remote calls made since.
type PriceResolver interface {
	report.PriceSource
	Current(ctx context.Context) (float64, bool)
	StartRun()
	APICalls() int64
}

type Notifier interface {
	NotifyRun(ctx context.Context, summary Summary)
}

// BuildFunc turns a scraped table into a sheet update.
type BuildFunc func(ctx context.Context, table report.RawTable, prices report.PriceSource, opts report.Options) (report.SheetUpdate, error)

// Builders maps each dataset to its row builder.
var Builders = map[scraper.Dataset]BuildFunc{
	scraper.Earnings: report.BuildEarnings,
	scraper.Payouts:  report.BuildPayouts,
}

type DatasetResult struct {
	Dataset scraper.Dataset
	Sheet   string
	Status  string
	Rows    int
	Err     error
}

type Summary struct {
	RunID           string
	Started         time.Time
	Duration        time.Duration
	CurrentPrice    float64
	HasCurrentPrice bool
	PriceAPICalls   int64
	Results         []DatasetResult
}

// Failed counts datasets that did not reach their sheet.
func (s Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Status != StatusOK {
			n++
		}
	}
	return n
}

type Runner struct {
	Scraper   scraper.Scraper
	Prices    PriceResolver
	Publisher Publisher
	// Notifier and Metrics are optional.
	Notifier Notifier
	Metrics  *metrics.Metrics
	// Sheets names the destination tab of each dataset; datasets without a
	// name use the dataset name.
	Sheets   map[scraper.Dataset]string
	Datasets []scraper.Dataset
	Now      func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) datasets() []scraper.Dataset {
	if len(r.Datasets) > 0 {
		return r.Datasets
	}
	return scraper.Datasets
}

func (r *Runner) sheetName(ds scraper.Dataset) string {
	if name := r.Sheets[ds]; name != "" {
		return name
	}
	return string(ds)
}

// RunOnce performs one full cycle. A failing dataset is recorded in the
// summary and does not stop the others.
func (r *Runner) RunOnce(ctx context.Context) Summary {
	summary := Summary{
		RunID:   uuid.NewString(),
		Started: r.now(),
	}
	logger := log.With().Str("run_id", summary.RunID).Logger()
	logger.Info().Msg("Starting tracker run")

	r.Prices.StartRun()
	summary.CurrentPrice, summary.HasCurrentPrice = r.Prices.Current(ctx)
	if !summary.HasCurrentPrice {
		logger.Warn().Msg("Current price unavailable, totals will show no price")
	}

	for _, ds := range r.datasets() {
		result := r.runDataset(ctx, ds, summary)
		r.Metrics.DatasetResult(string(ds), result.Status, result.Rows)
		summary.Results = append(summary.Results, result)

		if result.Err != nil {
			logger.Error().
				Err(result.Err).
				Str("dataset", string(ds)).
				Str("status", result.Status).
				Msg("Dataset update failed")
			continue
		}
		logger.Info().
			Str("dataset", string(ds)).
			Str("sheet", result.Sheet).
			Int("rows", result.Rows).
			Msg("Dataset updated")
	}

	summary.Duration = r.now().Sub(summary.Started)
	summary.PriceAPICalls = r.Prices.APICalls()
	r.Metrics.RunFinished(summary.Duration)

	logger.Info().
		Int("datasets", len(summary.Results)).
		Int("failed", summary.Failed()).
		Int64("price_api_calls", summary.PriceAPICalls).
		Dur("duration", summary.Duration).
		Msg("Tracker run finished")

	if r.Notifier != nil {
		r.Notifier.NotifyRun(ctx, summary)
	}
	return summary
}

func (r *Runner) runDataset(ctx context.Context, ds scraper.Dataset, summary Summary) DatasetResult {
	result := DatasetResult{Dataset: ds, Sheet: r.sheetName(ds)}

	if err := ctx.Err(); err != nil {
		result.Status, result.Err = StatusCancelled, err
		return result
	}

	build, ok := Builders[ds]
	if !ok {
		result.Status, result.Err = StatusBuildFailed, errors.New("no builder for dataset")
		return result
	}

	table, err := r.Scraper.Fetch(ctx, ds)
	if err != nil {
		result.Status, result.Err = StatusFetchFailed, err
		return result
	}
	log.Debug().
		Str("dataset", string(ds)).
		Int("rows", len(table.Rows)).
		Strs("columns", table.Columns).
		Msg("Fetched dataset")

	update, err := build(ctx, table, r.Prices, report.Options{
		SheetName:       result.Sheet,
		Now:             summary.Started,
		CurrentPrice:    summary.CurrentPrice,
		HasCurrentPrice: summary.HasCurrentPrice,
	})
	if err != nil {
		result.Status = StatusBuildFailed
		if errors.Is(err, report.ErrSchemaMismatch) {
			result.Status = StatusSchemaMismatch
		}
		result.Err = err
		return result
	}

	if err := r.Publisher.Publish(ctx, update); err != nil {
		result.Status, result.Err = StatusPublishFailed, err
		return result
	}

	result.Status = StatusOK
	result.Rows = update.DataRows
	return result
}

// Loop runs immediately and then every interval until ctx is cancelled.
func (r *Runner) Loop(ctx context.Context, interval time.Duration) {
	log.Info().Dur("interval", interval).Msg("Starting tracker. Running immediately and then on every interval...")

	r.RunOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Tracker stopped")
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}
