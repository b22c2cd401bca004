package pricecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// KeyLayout is the canonical timestamp form used for cache keys.
const KeyLayout = "2006-01-02 15:04:05"

// Key returns the cache key for a timestamp. All lookups and inserts must go through it,
// otherwise equal instants can produce different keys and silently miss.
func Key(t time.Time) string {
	return t.UTC().Format(KeyLayout)
}

// Store reads and writes the flat JSON price file.
type Store struct {
	Path string
}

// Load reads the price file. A missing or malformed file yields an empty mapping.
func (s Store) Load() map[string]float64 {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", s.Path).Msg("Failed to read price cache, starting empty")
		}
		return map[string]float64{}
	}

	entries := map[string]float64{}
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Warn().
			Err(err).
			Str("path", s.Path).
			Msg("Invalid JSON in price cache, a new file will be written on next save")
		return map[string]float64{}
	}
	if entries == nil {
		entries = map[string]float64{}
	}
	return entries
}

// Save replaces the price file with entries. The document is written to a temp file
// in the same directory and renamed over the target.
func (s Store) Save(entries map[string]float64) error {
	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode price cache: %w", err)
	}

	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write price cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close price cache: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace price cache: %w", err)
	}
	return nil
}

// Entry is one cached price.
type Entry struct {
	Key   string
	Price float64
}

// Cache holds the price file in memory for the lifetime of the process and flushes
// it to disk on every insert. It is not safe for concurrent use across processes.
type Cache struct {
	store   Store
	entries map[string]float64
}

// Open loads the cache file at path once.
func Open(path string) *Cache {
	store := Store{Path: path}
	entries := store.Load()
	log.Debug().Str("path", path).Int("entries", len(entries)).Msg("Loaded price cache")
	return &Cache{store: store, entries: entries}
}

func (c *Cache) Get(key string) (float64, bool) {
	price, ok := c.entries[key]
	return price, ok
}

// Put records price under key if the key is new and persists the whole mapping.
// Existing keys are never overwritten.
func (c *Cache) Put(key string, price float64) error {
	if _, ok := c.entries[key]; ok {
		return nil
	}
	c.entries[key] = price
	if err := c.store.Save(c.entries); err != nil {
		return fmt.Errorf("failed to persist price for %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Len() int {
	return len(c.entries)
}

func (c *Cache) Path() string {
	return c.store.Path
}

// Entries returns all cached prices ordered by key.
func (c *Cache) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for k, v := range c.entries {
		out = append(out, Entry{Key: k, Price: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
