package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/emso-eric/geo2coverage/internal/observability"
)

// DefaultRefreshInterval matches the upstream listing's update cadence.
const DefaultRefreshInterval = time.Hour

// datasetIDColumn names the identifier column of the search listing.
const datasetIDColumn = "Dataset ID"

// FetchFunc retrieves the upstream "all datasets" listing as CSV records,
// header row first.
type FetchFunc func(ctx context.Context) ([][]string, error)

// Catalog maps dataset identifiers to their public access URLs. The
// mapping is rebuilt wholesale once it is older than the refresh interval
// and served as-is in between; staleness up to the interval is accepted.
// This is a cache, not a live view of the upstream listing.
type Catalog struct {
	baseURL  string
	fetch    FetchFunc
	interval time.Duration
	clock    clockwork.Clock

	mu          sync.RWMutex
	datasets    map[string]string
	lastRefresh time.Time // zero until the first successful refresh
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithRefreshInterval overrides DefaultRefreshInterval.
func WithRefreshInterval(d time.Duration) Option {
	return func(c *Catalog) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithClock injects a time source. Tests freeze time with a fake clock to
// exercise the expiry boundary deterministically.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Catalog) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// New creates a Catalog. baseURL is the public URL each dataset ID is
// appended to; fetch retrieves the upstream listing.
func New(baseURL string, fetch FetchFunc, opts ...Option) *Catalog {
	c := &Catalog{
		baseURL:  baseURL,
		fetch:    fetch,
		interval: DefaultRefreshInterval,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Datasets returns the identifier → access URL mapping, refreshing it
// first when stale. Mapping and refresh timestamp swap together under the
// write lock, so readers never observe a partial rebuild, and at most one
// refresh runs at a time. A failed refresh keeps serving the previous
// mapping (the timestamp stays untouched, so the next access retries);
// only a failed first refresh surfaces the error.
func (c *Catalog) Datasets(ctx context.Context) (map[string]string, error) {
	c.mu.RLock()
	if !c.stale() {
		m := c.datasets
		c.mu.RUnlock()
		return m, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.stale() {
		// Another caller refreshed while we waited for the lock.
		return c.datasets, nil
	}

	records, err := c.fetch(ctx)
	if err != nil {
		observability.CatalogRefreshesTotal.WithLabelValues("error").Inc()
		if c.datasets != nil {
			return c.datasets, nil
		}
		return nil, fmt.Errorf("catalog: refresh: %w", err)
	}

	m, err := buildMapping(records, c.baseURL)
	if err != nil {
		observability.CatalogRefreshesTotal.WithLabelValues("error").Inc()
		if c.datasets != nil {
			return c.datasets, nil
		}
		return nil, err
	}

	c.datasets = m
	c.lastRefresh = c.clock.Now()
	observability.CatalogRefreshesTotal.WithLabelValues("success").Inc()
	observability.CatalogDatasets.Set(float64(len(m)))
	return m, nil
}

// stale reports whether more than the refresh interval has elapsed since
// the last successful refresh. Callers hold at least the read lock.
func (c *Catalog) stale() bool {
	return c.lastRefresh.IsZero() || c.clock.Since(c.lastRefresh) > c.interval
}

// buildMapping turns the CSV listing into id → {baseURL}/{id}. The header
// row names the columns; the first data row is the units row conventionally
// present in ERDDAP tabular output and is discarded.
func buildMapping(records [][]string, baseURL string) (map[string]string, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("catalog: empty dataset listing")
	}
	idCol := -1
	for i, name := range records[0] {
		if name == datasetIDColumn {
			idCol = i
			break
		}
	}
	if idCol < 0 {
		return nil, fmt.Errorf("catalog: listing has no %q column", datasetIDColumn)
	}

	rows := records[1:]
	if len(rows) > 0 {
		rows = rows[1:]
	}

	m := make(map[string]string, len(rows))
	for _, row := range rows {
		if idCol >= len(row) || row[idCol] == "" {
			continue
		}
		id := row[idCol]
		m[id] = baseURL + "/" + id
	}
	return m, nil
}
