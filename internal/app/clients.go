package app

import (
	"context"
	"fmt"
	"io"

	"ocean_tracker/internal/config"
	"ocean_tracker/internal/metrics"
	"ocean_tracker/internal/notifications"
	"ocean_tracker/internal/preview"
	"ocean_tracker/internal/pricecache"
	"ocean_tracker/internal/prices"
	"ocean_tracker/internal/scraper"
	"ocean_tracker/internal/sheets"
	"ocean_tracker/internal/tracker"

	"github.com/rs/zerolog/log"
)

// RunOptions are per-invocation switches from the command line.
type RunOptions struct {
	// DryRun prints sheet updates to Out instead of writing the spreadsheet.
	DryRun bool
	Out    io.Writer
}

// NewRunner wires the scraper, price resolver, publisher and notifier from cfg.
func NewRunner(ctx context.Context, cfg Config, m *metrics.Metrics, opts RunOptions) (*tracker.Runner, error) {
	log.Debug().Msg("Initializing clients")

	cache := pricecache.Open(cfg.PriceCacheFile)
	priceClient := prices.NewCryptoCompareClient(cfg.PriceAPIURL, cfg.PriceAPIKey, cfg.PriceSymbol, cfg.PriceCurrency)
	resolver := prices.NewResolver(cache, priceClient, cfg.PricePace, m)

	publisher, err := newPublisher(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}

	runner := &tracker.Runner{
		Scraper:   NewScraper(cfg),
		Prices:    resolver,
		Publisher: publisher,
		Metrics:   m,
		Sheets: map[scraper.Dataset]string{
			scraper.Earnings: cfg.EarningsSheet,
			scraper.Payouts:  cfg.PayoutsSheet,
		},
	}
	if !opts.DryRun {
		runner.Notifier = NewNotificationClient(cfg.Notifications)
	}

	log.Debug().
		Str("scrape_mode", cfg.ScrapeMode).
		Int("cached_prices", cache.Len()).
		Bool("dry_run", opts.DryRun).
		Msg("Clients initialized successfully")
	return runner, nil
}

func newPublisher(ctx context.Context, cfg Config, opts RunOptions) (tracker.Publisher, error) {
	if opts.DryRun {
		return preview.NewPrinter(opts.Out), nil
	}
	client, err := sheets.NewClient(ctx, cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return sheets.NewWriter(client, cfg.SpreadsheetID), nil
}

// NewScraper returns the export source selected by cfg.ScrapeMode.
func NewScraper(cfg Config) scraper.Scraper {
	if cfg.ScrapeMode == ScrapeModeHTTP {
		return scraper.NewHTTPScraper(cfg.MinerAddress, map[scraper.Dataset]string{
			scraper.Earnings: cfg.EarningsCSVURL,
			scraper.Payouts:  cfg.PayoutsCSVURL,
		})
	}
	return scraper.NewDirScraper(cfg.DownloadsPath, map[scraper.Dataset]string{
		scraper.Earnings: cfg.EarningsGlob,
		scraper.Payouts:  cfg.PayoutsGlob,
	}, config.DownloadWaitFor(cfg.MaxDownloadWait))
}

// NewNotificationClient creates the run-summary notifier.
func NewNotificationClient(opts notifications.Options) *notifications.Client {
	log.Debug().
		Bool("enabled", opts.Enabled).
		Str("base_url", opts.BaseURL).
		Str("topic", opts.Topic).
		Msg("Initializing notification client")

	if opts.Enabled {
		log.Info().Str("topic", opts.Topic).Msg("Notifications enabled")
	}
	return notifications.NewClient(opts)
}
