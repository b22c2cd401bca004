package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ocean_tracker/internal/notifications"

	"github.com/spf13/viper"
)

// ErrMissingSetting is returned when a required setting is empty.
var ErrMissingSetting = errors.New("required setting is missing")

const (
	ScrapeModeHTTP = "http"
	ScrapeModeDir  = "dir"
)

type Config struct {
	SpreadsheetID   string
	MinerAddress    string
	CredentialsFile string
	EarningsSheet   string
	PayoutsSheet    string
	CheckInterval   time.Duration

	PriceCacheFile string
	PriceAPIURL    string
	PriceAPIKey    string
	PricePace      time.Duration
	PriceSymbol    string
	PriceCurrency  string

	ScrapeMode      string
	EarningsCSVURL  string
	PayoutsCSVURL   string
	DownloadsPath   string
	EarningsGlob    string
	PayoutsGlob     string
	MaxDownloadWait time.Duration

	Notifications notifications.Options
	MetricsAddr   string
}

// SetDefaults registers default values and binds settings to the environment.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("GOOGLE_CREDENTIALS_FILE", "credentials.json")
	v.SetDefault("EARNINGS_SHEET", "Earnings")
	v.SetDefault("PAYOUTS_SHEET", "Payouts")
	v.SetDefault("CHECK_INTERVAL", "3600")
	v.SetDefault("PRICE_CACHE_FILE", "btc_price_cache.json")
	v.SetDefault("PRICE_API_URL", "https://min-api.cryptocompare.com/data/pricehistorical")
	v.SetDefault("PRICE_PACE", "1s")
	v.SetDefault("PRICE_SYMBOL", "BTC")
	v.SetDefault("PRICE_CURRENCY", "USD")
	v.SetDefault("SCRAPE_MODE", ScrapeModeDir)
	v.SetDefault("DOWNLOADS_PATH", "~/Downloads")
	v.SetDefault("EARNINGS_FILE_GLOB", "*earnings*.csv")
	v.SetDefault("PAYOUTS_FILE_GLOB", "*payouts*.csv")
	v.SetDefault("MAX_DOWNLOAD_WAIT", "30")
	v.SetDefault("NTFY_ENABLED", false)
	v.SetDefault("NTFY_URL", "https://ntfy.sh")
	v.SetDefault("NTFY_TOPIC", "ocean-tracker")
	v.SetDefault("NTFY_FAILURES_ONLY", false)
	v.SetDefault("NTFY_PRIORITY", "")
	v.SetDefault("NTFY_MAX_RETRIES", 3)
	v.AutomaticEnv()
}

// LoadConfig reads and validates settings from v.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		SpreadsheetID:   strings.TrimSpace(v.GetString("SPREADSHEET_ID")),
		MinerAddress:    strings.TrimSpace(v.GetString("MINER_ADDRESS")),
		CredentialsFile: expandHome(v.GetString("GOOGLE_CREDENTIALS_FILE")),
		EarningsSheet:   v.GetString("EARNINGS_SHEET"),
		PayoutsSheet:    v.GetString("PAYOUTS_SHEET"),
		PriceCacheFile:  expandHome(v.GetString("PRICE_CACHE_FILE")),
		PriceAPIURL:     v.GetString("PRICE_API_URL"),
		PriceAPIKey:     v.GetString("PRICE_API_KEY"),
		PriceSymbol:     strings.ToUpper(v.GetString("PRICE_SYMBOL")),
		PriceCurrency:   strings.ToUpper(v.GetString("PRICE_CURRENCY")),
		ScrapeMode:      strings.ToLower(v.GetString("SCRAPE_MODE")),
		EarningsCSVURL:  v.GetString("EARNINGS_CSV_URL"),
		PayoutsCSVURL:   v.GetString("PAYOUTS_CSV_URL"),
		DownloadsPath:   expandHome(v.GetString("DOWNLOADS_PATH")),
		EarningsGlob:    strings.TrimSpace(v.GetString("EARNINGS_FILE_GLOB")),
		PayoutsGlob:     strings.TrimSpace(v.GetString("PAYOUTS_FILE_GLOB")),
		MetricsAddr:     v.GetString("METRICS_ADDR"),
		Notifications: notifications.Options{
			BaseURL:      v.GetString("NTFY_URL"),
			Topic:        v.GetString("NTFY_TOPIC"),
			Enabled:      v.GetBool("NTFY_ENABLED"),
			FailuresOnly: v.GetBool("NTFY_FAILURES_ONLY"),
			Priority:     v.GetString("NTFY_PRIORITY"),
			MaxRetries:   v.GetInt("NTFY_MAX_RETRIES"),
		},
	}

	if cfg.SpreadsheetID == "" {
		return Config{}, fmt.Errorf("SPREADSHEET_ID: %w", ErrMissingSetting)
	}
	if cfg.MinerAddress == "" {
		return Config{}, fmt.Errorf("MINER_ADDRESS: %w", ErrMissingSetting)
	}

	var err error
	if cfg.CheckInterval, err = ParseInterval(v.GetString("CHECK_INTERVAL")); err != nil {
		return Config{}, fmt.Errorf("CHECK_INTERVAL: %w", err)
	}
	if cfg.MaxDownloadWait, err = ParseInterval(v.GetString("MAX_DOWNLOAD_WAIT")); err != nil {
		return Config{}, fmt.Errorf("MAX_DOWNLOAD_WAIT: %w", err)
	}
	if cfg.PricePace, err = parsePace(v.GetString("PRICE_PACE")); err != nil {
		return Config{}, fmt.Errorf("PRICE_PACE: %w", err)
	}

	switch cfg.ScrapeMode {
	case ScrapeModeDir:
		for key, glob := range map[string]string{"EARNINGS_FILE_GLOB": cfg.EarningsGlob, "PAYOUTS_FILE_GLOB": cfg.PayoutsGlob} {
			if _, err := filepath.Match(glob, ""); err != nil {
				return Config{}, fmt.Errorf("%s: invalid pattern %q: %w", key, glob, err)
			}
		}
	case ScrapeModeHTTP:
		if cfg.EarningsCSVURL == "" {
			return Config{}, fmt.Errorf("EARNINGS_CSV_URL (SCRAPE_MODE=http): %w", ErrMissingSetting)
		}
		if cfg.PayoutsCSVURL == "" {
			return Config{}, fmt.Errorf("PAYOUTS_CSV_URL (SCRAPE_MODE=http): %w", ErrMissingSetting)
		}
	default:
		return Config{}, fmt.Errorf("SCRAPE_MODE: unknown mode %q", cfg.ScrapeMode)
	}

	return cfg, nil
}

// ParseInterval accepts whole seconds ("3600") or a Go duration ("1h").
// The result must be positive.
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	var d time.Duration
	if n, err := strconv.Atoi(s); err == nil {
		d = time.Duration(n) * time.Second
	} else {
		d, err = time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid interval %q", s)
		}
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval %q must be positive", s)
	}
	return d, nil
}

// parsePace is like ParseInterval but allows zero, which disables pacing.
func parsePace(s string) (time.Duration, error) {
	if s = strings.TrimSpace(s); s == "0" || s == "" {
		return 0, nil
	}
	return ParseInterval(s)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// CacheFile returns the price cache path without validating the rest of the
// configuration.
func CacheFile(v *viper.Viper) string {
	return expandHome(v.GetString("PRICE_CACHE_FILE"))
}
