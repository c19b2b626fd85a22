package offline

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lixenwraith/critter/asset"
	"github.com/lixenwraith/critter/constant"
	"github.com/lixenwraith/critter/status"
	"github.com/lixenwraith/critter/timing"
)

// ErrNotCached means the network failed and no cached copy exists
var ErrNotCached = errors.New("asset not cached")

// ErrStatus is returned for non-2xx responses
var ErrStatus = errors.New("unexpected http status")

const entriesSchema = `CREATE TABLE IF NOT EXISTS entries (
	version      TEXT    NOT NULL,
	path         TEXT    NOT NULL,
	content_type TEXT    NOT NULL DEFAULT '',
	body         BLOB    NOT NULL,
	stored_at    INTEGER NOT NULL,
	PRIMARY KEY (version, path)
)`

// Entry is one cached response
type Entry struct {
	Version     string
	Path        string
	ContentType string
	Body        []byte
	StoredAt    time.Time
}

// Cache serves assets from an http base URL through a sqlite-backed
// versioned store. It implements asset.Source
type Cache struct {
	db      *sql.DB
	base    *url.URL
	version string
	client  *http.Client
	timeout time.Duration
	clock   timing.Clock
	logger  *slog.Logger
	closed  atomic.Bool

	hits      *atomic.Int64
	misses    *atomic.Int64
	fallbacks *atomic.Int64
	netErrors *atomic.Int64
	stores    *atomic.Int64
}

// Option configures a Cache
type Option func(*Cache)

func WithHTTPClient(c *http.Client) Option { return func(x *Cache) { x.client = c } }
func WithTimeout(d time.Duration) Option   { return func(x *Cache) { x.timeout = d } }
func WithClock(c timing.Clock) Option      { return func(x *Cache) { x.clock = c } }
func WithLogger(l *slog.Logger) Option     { return func(x *Cache) { x.logger = l } }

// WithStatus publishes hit/miss counters to reg
func WithStatus(reg *status.Registry) Option {
	return func(x *Cache) { x.bindStatus(reg) }
}

// Open creates the cache over dbPath for assets below baseURL
// ":memory:" keeps the store in process
func Open(ctx context.Context, dbPath, baseURL, version string, opts ...Option) (*Cache, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") {
		return nil, fmt.Errorf("invalid asset base url %q", baseURL)
	}
	if version == "" {
		version = constant.DefaultCacheVersion
	}

	c := &Cache{
		base:    base,
		version: version,
		client:  http.DefaultClient,
		timeout: constant.NetworkFirstTimeout,
		clock:   timing.NewRealClock(),
		logger:  slog.New(slog.DiscardHandler),
	}
	c.bindStatus(status.NewRegistry())
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "offline", "version", version)

	dsn := dbPath
	if dbPath != ":memory:" {
		clean := filepath.Clean(dbPath)
		if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
		dsn = clean + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, entriesSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create entries table: %w", err)
	}
	c.db = db
	return c, nil
}

func (c *Cache) bindStatus(reg *status.Registry) {
	c.hits = reg.Ints.Get("offline.hits")
	c.misses = reg.Ints.Get("offline.misses")
	c.fallbacks = reg.Ints.Get("offline.fallbacks")
	c.netErrors = reg.Ints.Get("offline.network_errors")
	c.stores = reg.Ints.Get("offline.stores")
}

// Version returns the active cache generation
func (c *Cache) Version() string { return c.version }

// Open implements asset.Source
func (c *Cache) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	e, err := c.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(e.Body)), nil
}

// Fetch resolves name according to its policy
func (c *Cache) Fetch(ctx context.Context, name string) (*Entry, error) {
	clean := asset.CleanPath(name)
	switch PolicyFor(clean) {
	case PolicyCacheFirst:
		return c.cacheFirst(ctx, clean)
	case PolicyNetworkFirst:
		return c.networkFirst(ctx, clean)
	default:
		return c.download(ctx, clean)
	}
}

func (c *Cache) cacheFirst(ctx context.Context, name string) (*Entry, error) {
	if e, err := c.Lookup(ctx, name); err == nil {
		c.hits.Add(1)
		return e, nil
	} else if !errors.Is(err, ErrNotCached) {
		c.logger.Debug("cache lookup failed", "path", name, "error", err)
	}
	c.misses.Add(1)

	e, err := c.download(ctx, name)
	if err != nil {
		return nil, err
	}
	c.store(ctx, e)
	return e, nil
}

func (c *Cache) networkFirst(ctx context.Context, name string) (*Entry, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	e, netErr := c.download(fetchCtx, name)
	cancel()
	if netErr == nil {
		c.store(ctx, e)
		return e, nil
	}

	cached, err := c.Lookup(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w (network: %v)", name, err, netErr)
	}
	c.fallbacks.Add(1)
	c.logger.Debug("served stale copy", "path", name, "error", netErr)
	return cached, nil
}

func (c *Cache) download(ctx context.Context, name string) (*Entry, error) {
	rel := name
	if rel == "." {
		rel = ""
	}
	target := c.base.ResolveReference(&url.URL{Path: rel})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.netErrors.Add(1)
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.netErrors.Add(1)
		return nil, fmt.Errorf("fetch %s: %w %d", name, ErrStatus, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.netErrors.Add(1)
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return &Entry{
		Version:     c.version,
		Path:        name,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		StoredAt:    c.clock.Now(),
	}, nil
}

// store writes e unless the cache was closed while the fetch was in flight
func (c *Cache) store(ctx context.Context, e *Entry) {
	if c.closed.Load() {
		return
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO entries (version, path, content_type, body, stored_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(version, path) DO UPDATE SET
		   content_type = excluded.content_type,
		   body = excluded.body,
		   stored_at = excluded.stored_at`,
		e.Version, e.Path, e.ContentType, e.Body, e.StoredAt.UnixMilli())
	if err != nil {
		c.logger.Debug("cache store failed", "path", e.Path, "error", err)
		return
	}
	c.stores.Add(1)
}

// Lookup returns the cached entry for name in the active version
func (c *Cache) Lookup(ctx context.Context, name string) (*Entry, error) {
	clean := asset.CleanPath(name)
	var (
		e      = Entry{Version: c.version, Path: clean}
		stored int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT content_type, body, stored_at FROM entries WHERE version = ? AND path = ?`,
		c.version, clean).Scan(&e.ContentType, &e.Body, &stored)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", clean, ErrNotCached)
	}
	if err != nil {
		return nil, fmt.Errorf("query cache: %w", err)
	}
	e.StoredAt = time.UnixMilli(stored)
	return &e, nil
}

// Precache fetches every path into the cache regardless of policy
// Returns the number stored and the joined failures
func (c *Cache) Precache(ctx context.Context, paths []string) (int, error) {
	var (
		n    int
		errs []error
	)
	for _, p := range paths {
		e, err := c.download(ctx, asset.CleanPath(p))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		c.store(ctx, e)
		n++
	}
	return n, errors.Join(errs...)
}

// Activate drops entries of every other version
func (c *Cache) Activate(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM entries WHERE version <> ?`, c.version)
	if err != nil {
		return 0, fmt.Errorf("purge old versions: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		c.logger.Info("purged stale cache entries", "count", n)
	}
	return n, nil
}

// Versions lists the generations present in the store
func (c *Cache) Versions(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT DISTINCT version FROM entries ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Close releases the store
// Fetches still in flight complete but their results are not stored
func (c *Cache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.db.Close()
}
