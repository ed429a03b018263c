package geo

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"LinkTelemetry-Dashboard/internal/domain"
)

// ErrDatasetUnavailable is returned when the reference dataset could not be
// fetched. Consumers degrade to coordinate-less rendering, never fail the
// whole view over it.
var ErrDatasetUnavailable = errors.New("city reference dataset unavailable")

type cityKey struct {
	country string
	city    string
}

// ReferenceCache loads and memoizes the external city coordinate dataset.
// The fetch+parse runs at most once per process: concurrent callers of
// Load await the same in-flight fetch, later callers get the cached result
// synchronously. A failed fetch is not memoized, so a later Load may retry.
// After a successful load the dataset is read-only and safe for concurrent
// readers.
type ReferenceCache struct {
	url    string
	client *http.Client
	log    *zap.Logger

	group   singleflight.Group
	mu      sync.RWMutex
	records []domain.CityRecord
	index   map[cityKey]domain.Coordinate
	loaded  bool
}

// NewReferenceCache creates a cache for the dataset at the given URL.
func NewReferenceCache(url string, timeout time.Duration, log *zap.Logger) *ReferenceCache {
	return &ReferenceCache{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// Load returns the full dataset, fetching and parsing it on first use.
func (c *ReferenceCache) Load(ctx context.Context) ([]domain.CityRecord, error) {
	c.mu.RLock()
	if c.loaded {
		records := c.records
		c.mu.RUnlock()
		return records, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do("load", func() (interface{}, error) {
		records, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.records = records
		c.index = buildIndex(records)
		c.loaded = true
		c.mu.Unlock()

		return records, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatasetUnavailable, err)
	}

	return v.([]domain.CityRecord), nil
}

// Lookup resolves a (country, city) pair against the loaded dataset. Always
// a miss before the first successful Load.
func (c *ReferenceCache) Lookup(country, city string) (domain.Coordinate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	coord, ok := c.index[cityKey{country: country, city: city}]
	return coord, ok
}

// Loaded reports whether the dataset has been fetched successfully.
func (c *ReferenceCache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *ReferenceCache) fetch(ctx context.Context) ([]domain.CityRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build dataset request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dataset fetch returned status %d", resp.StatusCode)
	}

	records, skipped, err := parseDataset(resp.Body)
	if err != nil {
		return nil, err
	}

	c.log.Info("city reference dataset loaded",
		zap.Int("records", len(records)),
		zap.Int("skipped_rows", skipped),
	)

	return records, nil
}

// parseDataset reads the delimited dataset. The header row names at least
// the city, lat, lng and country columns; rows with missing columns or
// non-numeric coordinates are skipped rather than failing the whole load.
func parseDataset(r io.Reader) ([]domain.CityRecord, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read dataset header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"city", "lat", "lng", "country"} {
		if _, ok := columns[required]; !ok {
			return nil, 0, fmt.Errorf("dataset header is missing column %q", required)
		}
	}

	var records []domain.CityRecord
	skipped := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed row (bad quoting etc.), skip it.
			skipped++
			continue
		}

		rec, ok := parseRow(row, columns)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	return records, skipped, nil
}

func parseRow(row []string, columns map[string]int) (domain.CityRecord, bool) {
	field := func(name string) (string, bool) {
		i := columns[name]
		if i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	city, ok := field("city")
	if !ok || city == "" {
		return domain.CityRecord{}, false
	}
	country, ok := field("country")
	if !ok || country == "" {
		return domain.CityRecord{}, false
	}
	latRaw, ok := field("lat")
	if !ok {
		return domain.CityRecord{}, false
	}
	lngRaw, ok := field("lng")
	if !ok {
		return domain.CityRecord{}, false
	}

	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return domain.CityRecord{}, false
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil {
		return domain.CityRecord{}, false
	}

	return domain.CityRecord{Name: city, Country: country, Lat: lat, Lng: lng}, true
}

// buildIndex keeps the first record for each (country, city) pair so that
// duplicate rows resolve the same way as a linear first-match scan.
func buildIndex(records []domain.CityRecord) map[cityKey]domain.Coordinate {
	index := make(map[cityKey]domain.Coordinate, len(records))
	for _, rec := range records {
		key := cityKey{country: rec.Country, city: rec.Name}
		if _, exists := index[key]; exists {
			continue
		}
		index[key] = domain.Coordinate{Lat: rec.Lat, Lng: rec.Lng}
	}
	return index
}
