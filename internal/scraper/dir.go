package scraper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ocean_tracker/internal/report"
	"ocean_tracker/internal/retry"

	"github.com/rs/zerolog/log"
)

var errNoExport = errors.New("no export file yet")

// DirScraper picks up exports that a browser session downloads into a
// directory. It waits for a matching file, parses the newest one and deletes it.
type DirScraper struct {
	Dir      string
	Patterns map[Dataset]string
	Wait     retry.Config
}

// DefaultPatterns are used for datasets without a configured glob.
var DefaultPatterns = map[Dataset]string{
	Earnings: "*earnings*.csv",
	Payouts:  "*payouts*.csv",
}

// NewDirScraper matches exports with patterns, falling back to
// DefaultPatterns for datasets that have no non-empty glob.
func NewDirScraper(dir string, patterns map[Dataset]string, wait retry.Config) *DirScraper {
	merged := make(map[Dataset]string, len(DefaultPatterns))
	for ds, glob := range DefaultPatterns {
		merged[ds] = glob
	}
	for ds, glob := range patterns {
		if glob != "" {
			merged[ds] = glob
		}
	}
	return &DirScraper{Dir: dir, Patterns: merged, Wait: wait}
}

func (s *DirScraper) Fetch(ctx context.Context, ds Dataset) (report.RawTable, error) {
	pattern, ok := s.Patterns[ds]
	if !ok {
		return report.RawTable{}, fmt.Errorf("no file pattern configured for %s", ds)
	}

	path, err := retry.WithRetry(ctx, s.Wait, func(ctx context.Context) (string, error) {
		return newestMatch(s.Dir, pattern)
	})
	if err != nil {
		return report.RawTable{}, fmt.Errorf("waiting for %s export in %s: %w", ds, s.Dir, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return report.RawTable{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	table, err := ParseCSV(f)
	f.Close()
	if err != nil {
		return report.RawTable{}, fmt.Errorf("%s: %w", path, err)
	}

	if err := os.Remove(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to remove processed export")
	}

	log.Debug().
		Str("dataset", string(ds)).
		Str("path", path).
		Int("rows", len(table.Rows)).
		Msg("Loaded export from downloads")
	return table, nil
}

// newestMatch returns the most recently modified file in dir matching pattern.
func newestMatch(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("bad pattern %q: %w", pattern, err))
	}

	var newest string
	var newestInfo os.FileInfo
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		if newestInfo == nil || info.ModTime().After(newestInfo.ModTime()) {
			newest, newestInfo = m, info
		}
	}
	if newest == "" {
		return "", errNoExport
	}
	return newest, nil
}
