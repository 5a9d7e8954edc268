package geo

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"p2000-receiver/internal/models"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// CacheFile is the default cache file name inside the data directory.
const CacheFile = "location_gps_database.csv"

var cacheHeader = []string{"address", "latitude", "longitude", "url"}

// FileCache is the append-only address cache. It is read fully at start
// and appended to under an exclusive file lock.
type FileCache struct {
	path    string
	lock    *flock.Flock
	mu      sync.RWMutex
	entries map[string]models.GeoCacheEntry
	logger  *zap.Logger
}

// OpenFileCache loads path, creating it with a header when it does not exist.
func OpenFileCache(path string, logger *zap.Logger) (*FileCache, error) {
	c := &FileCache{
		path:    path,
		lock:    flock.New(path + ".lock"),
		entries: make(map[string]models.GeoCacheEntry),
		logger:  logger,
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := c.writeHeader(); err != nil {
			return nil, err
		}
		logger.Info("Created geo cache", zap.String("path", path))
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open geo cache: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	for line := 1; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse geo cache %s: %w", path, err)
		}
		if line == 1 && len(record) > 0 && record[0] == cacheHeader[0] {
			continue
		}
		entry, ok := parseEntry(record)
		if !ok {
			logger.Warn("Skipping malformed geo cache row", zap.Int("line", line), zap.Strings("record", record))
			continue
		}
		c.entries[entry.Address] = entry
	}

	logger.Info("Loaded geo cache", zap.String("path", path), zap.Int("records", len(c.entries)))
	return c, nil
}

// Lookup returns the cached entry for an exact address.
func (c *FileCache) Lookup(address string) (models.GeoCacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[address]
	return e, ok
}

// Len returns the number of cached addresses.
func (c *FileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Append stores a new entry in memory and on disk.
func (c *FileCache) Append(entry models.GeoCacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock geo cache: %w", err)
	}
	defer func() {
		if err := c.lock.Unlock(); err != nil {
			c.logger.Warn("Failed to unlock geo cache", zap.Error(err))
		}
	}()

	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open geo cache for append: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		entry.Address,
		strconv.FormatFloat(entry.Latitude, 'f', -1, 64),
		strconv.FormatFloat(entry.Longitude, 'f', -1, 64),
		entry.MapURL,
	}); err != nil {
		return fmt.Errorf("failed to write geo cache entry: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush geo cache: %w", err)
	}

	c.entries[entry.Address] = entry
	return nil
}

func (c *FileCache) writeHeader() error {
	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create geo cache: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(cacheHeader); err != nil {
		return fmt.Errorf("failed to write geo cache header: %w", err)
	}
	w.Flush()
	return w.Error()
}

func parseEntry(record []string) (models.GeoCacheEntry, bool) {
	if len(record) < 3 || record[0] == "" {
		return models.GeoCacheEntry{}, false
	}
	lat, err := strconv.ParseFloat(record[1], 64)
	if err != nil {
		return models.GeoCacheEntry{}, false
	}
	lng, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return models.GeoCacheEntry{}, false
	}
	entry := models.GeoCacheEntry{Address: record[0], Latitude: lat, Longitude: lng}
	if len(record) > 3 {
		entry.MapURL = record[3]
	}
	return entry, true
}
