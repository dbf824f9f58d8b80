package routing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/ukydev/geo-payloads/internal/models"
)

// SQLiteCache persists routes keyed by start, end and profile. Cache
// failures are logged and never fail a route request.
type SQLiteCache struct {
	DB   *sql.DB
	Next Router
}

// OpenSQLiteCache opens (or creates) the route cache database at path.
func OpenSQLiteCache(path string, next Router) (*SQLiteCache, error) {
	if next == nil {
		return nil, errors.New("route cache: next router is nil")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("route cache: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	c := &SQLiteCache{DB: db, Next: next}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *SQLiteCache) initSchema() error {
	_, err := c.DB.Exec(`
	CREATE TABLE IF NOT EXISTS route_cache (
		route_key TEXT PRIMARY KEY,
		route_json TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`)
	if err != nil {
		return fmt.Errorf("route cache: init schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (c *SQLiteCache) Close() error {
	return c.DB.Close()
}

// Route implements Router.
func (c *SQLiteCache) Route(ctx context.Context, start, end models.Location, profile string) (*models.Route, error) {
	key := routeKey(start, end, profile)

	route, err := c.get(ctx, key)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("Route cache lookup failed")
	}
	if route != nil {
		return route, nil
	}

	route, err = c.Next.Route(ctx, start, end, profile)
	if err != nil {
		return nil, err
	}
	if err := c.put(ctx, key, route); err != nil {
		log.WithError(err).WithField("key", key).Warn("Route cache store failed")
	}
	return route, nil
}

func (c *SQLiteCache) get(ctx context.Context, key string) (*models.Route, error) {
	var raw string
	err := c.DB.QueryRowContext(ctx, `SELECT route_json FROM route_cache WHERE route_key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query route_cache: %w", err)
	}
	var route models.Route
	if err := json.Unmarshal([]byte(raw), &route); err != nil {
		return nil, fmt.Errorf("decode cached route: %w", err)
	}
	return &route, nil
}

func (c *SQLiteCache) put(ctx context.Context, key string, route *models.Route) error {
	raw, err := json.Marshal(route)
	if err != nil {
		return fmt.Errorf("encode route: %w", err)
	}
	_, err = c.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO route_cache (route_key, route_json, created_at)
	VALUES (?, ?, ?)
	`, key, string(raw), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert route_cache: %w", err)
	}
	return nil
}

func routeKey(start, end models.Location, profile string) string {
	return fmt.Sprintf("%.6f,%.6f;%.6f,%.6f;%s", start.Lat, start.Lon, end.Lat, end.Lon, profile)
}
