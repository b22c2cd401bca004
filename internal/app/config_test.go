package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ocean_tracker/internal/scraper"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(settings map[string]string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	for k, val := range settings {
		v.Set(k, val)
	}
	return v
}

func required() map[string]string {
	return map[string]string{
		"SPREADSHEET_ID": "sheet-123",
		"MINER_ADDRESS":  "bc1qexample",
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(newViper(required()))
	require.NoError(t, err)

	assert.Equal(t, "sheet-123", cfg.SpreadsheetID)
	assert.Equal(t, "credentials.json", cfg.CredentialsFile)
	assert.Equal(t, "Earnings", cfg.EarningsSheet)
	assert.Equal(t, "Payouts", cfg.PayoutsSheet)
	assert.Equal(t, time.Hour, cfg.CheckInterval)
	assert.Equal(t, time.Second, cfg.PricePace)
	assert.Equal(t, 30*time.Second, cfg.MaxDownloadWait)
	assert.Equal(t, "btc_price_cache.json", cfg.PriceCacheFile)
	assert.Equal(t, "BTC", cfg.PriceSymbol)
	assert.Equal(t, "USD", cfg.PriceCurrency)
	assert.Equal(t, ScrapeModeDir, cfg.ScrapeMode)
	assert.False(t, cfg.Notifications.Enabled)
	assert.Equal(t, "https://ntfy.sh", cfg.Notifications.BaseURL)
	assert.Equal(t, 3, cfg.Notifications.MaxRetries)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Downloads"), cfg.DownloadsPath)
}

func TestLoadConfigRequiresSettings(t *testing.T) {
	for _, key := range []string{"SPREADSHEET_ID", "MINER_ADDRESS"} {
		t.Run(key, func(t *testing.T) {
			settings := required()
			settings[key] = " "

			_, err := LoadConfig(newViper(settings))
			assert.ErrorIs(t, err, ErrMissingSetting)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoadConfigHTTPModeNeedsURLs(t *testing.T) {
	settings := required()
	settings["SCRAPE_MODE"] = "HTTP"
	settings["EARNINGS_CSV_URL"] = "https://pool.example/{address}/earnings.csv"

	_, err := LoadConfig(newViper(settings))
	assert.ErrorIs(t, err, ErrMissingSetting)
	assert.Contains(t, err.Error(), "PAYOUTS_CSV_URL")

	settings["PAYOUTS_CSV_URL"] = "https://pool.example/{address}/payouts.csv"
	cfg, err := LoadConfig(newViper(settings))
	require.NoError(t, err)
	assert.Equal(t, ScrapeModeHTTP, cfg.ScrapeMode)

	_, isHTTP := NewScraper(cfg).(*scraper.HTTPScraper)
	assert.True(t, isHTTP)
}

func TestLoadConfigRejectsUnknownMode(t *testing.T) {
	settings := required()
	settings["SCRAPE_MODE"] = "selenium"

	_, err := LoadConfig(newViper(settings))
	assert.ErrorContains(t, err, "unknown mode")
}

func TestLoadConfigBadInterval(t *testing.T) {
	settings := required()
	settings["CHECK_INTERVAL"] = "hourly"

	_, err := LoadConfig(newViper(settings))
	assert.ErrorContains(t, err, "CHECK_INTERVAL")
}

func TestLoadConfigZeroPace(t *testing.T) {
	settings := required()
	settings["PRICE_PACE"] = "0"

	cfg, err := LoadConfig(newViper(settings))
	require.NoError(t, err)
	assert.Zero(t, cfg.PricePace)
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"3600", time.Hour, false},
		{" 90 ", 90 * time.Second, false},
		{"15m", 15 * time.Minute, false},
		{"1h30m", 90 * time.Minute, false},
		{"0", 0, true},
		{"-5", 0, true},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseInterval(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewScraperDefaultsToDir(t *testing.T) {
	cfg, err := LoadConfig(newViper(required()))
	require.NoError(t, err)

	s, ok := NewScraper(cfg).(*scraper.DirScraper)
	require.True(t, ok)
	assert.Equal(t, cfg.DownloadsPath, s.Dir)
	assert.Greater(t, s.Wait.MaxRetries, 1)
	assert.Equal(t, "*earnings*.csv", s.Patterns[scraper.Earnings])
	assert.Equal(t, "*payouts*.csv", s.Patterns[scraper.Payouts])
}

func TestNewScraperUsesFileGlobs(t *testing.T) {
	settings := required()
	settings["EARNINGS_FILE_GLOB"] = " *.csv "
	settings["PAYOUTS_FILE_GLOB"] = "ocean-payouts-*.csv"

	cfg, err := LoadConfig(newViper(settings))
	require.NoError(t, err)
	assert.Equal(t, "*.csv", cfg.EarningsGlob)

	s, ok := NewScraper(cfg).(*scraper.DirScraper)
	require.True(t, ok)
	assert.Equal(t, "*.csv", s.Patterns[scraper.Earnings])
	assert.Equal(t, "ocean-payouts-*.csv", s.Patterns[scraper.Payouts])
}

func TestLoadConfigRejectsBadFileGlob(t *testing.T) {
	settings := required()
	settings["PAYOUTS_FILE_GLOB"] = "[payouts"

	_, err := LoadConfig(newViper(settings))
	assert.ErrorContains(t, err, "PAYOUTS_FILE_GLOB")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG", false))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warning", false))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("", false))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("", true))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("verbose", true))
}
