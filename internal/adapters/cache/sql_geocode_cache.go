package cache

import (
	"context"
	"database/sql"
	"errors"
	"fleet-route-optimizer/internal/domain"
	"fleet-route-optimizer/internal/platform/obs"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"
)

// SQLGeocodeCache keeps geocoder answers in the Postgres geocode_cache table,
// keyed by the geocoder's normalized query. Entries older than MaxAge are
// ignored on read and refreshed by the next write; MaxAge <= 0 keeps them
// forever.
type SQLGeocodeCache struct {
	DB     *sql.DB
	MaxAge time.Duration

	now func() time.Time
}

func NewSQLGeocodeCache(db *sql.DB, maxAge time.Duration) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db, MaxAge: maxAge, now: time.Now}
}

// GetMany returns the fresh, finite coordinates cached for queries.
func (s *SQLGeocodeCache) GetMany(
	ctx context.Context,
	queries []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	keys := cacheKeys(queries)
	if len(keys) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	// The zero cutoff matches every row.
	var cutoff time.Time
	if s.MaxAge > 0 {
		cutoff = s.clock()().Add(-s.MaxAge)
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT query, lon, lat
	FROM geocode_cache
	WHERE query = ANY($1::text[])
	  AND updated_at >= $2;
	`, keys, cutoff)
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Coordinates, len(keys))
	for rows.Next() {
		var query string
		var c domain.Coordinates
		if err := rows.Scan(&query, &c.Lon, &c.Lat); err != nil {
			return nil, fmt.Errorf("get geocode cache: scan: %w", err)
		}
		if !c.IsFinite() {
			log.Printf("req_id=%s warn=geocode_cache_bad_row query=%q", obs.RequestID(ctx), query)
			continue
		}
		out[query] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get geocode cache: rows: %w", err)
	}

	return out, nil
}

// PutMany upserts results in a single statement. Blank keys and non-finite
// coordinates are skipped.
func (s *SQLGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) (err error) {
	defer obs.Time(ctx, "geocode.cache.PutMany")(&err)

	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}

	// Sorted keys give concurrent upserts the same lock order.
	keys := make([]string, 0, len(results))
	for k, c := range results {
		if strings.TrimSpace(k) == "" || !c.IsFinite() {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil
	}
	slices.Sort(keys)

	lons := make([]float64, len(keys))
	lats := make([]float64, len(keys))
	for i, k := range keys {
		lons[i], lats[i] = results[k].Lon, results[k].Lat
	}

	if _, err := s.DB.ExecContext(ctx, `
	INSERT INTO geocode_cache (query, lon, lat, updated_at)
	SELECT q, lon, lat, $4
	FROM unnest($1::text[], $2::float8[], $3::float8[]) AS t(q, lon, lat)
	ON CONFLICT (query) DO UPDATE
	SET lon = EXCLUDED.lon,
		lat = EXCLUDED.lat,
		updated_at = EXCLUDED.updated_at;
	`, keys, lons, lats, s.clock()()); err != nil {
		return fmt.Errorf("put geocode cache: %d entries: %w", len(keys), err)
	}

	return nil
}

func (s *SQLGeocodeCache) clock() func() time.Time {
	if s.now == nil {
		return time.Now
	}
	return s.now
}

// cacheKeys drops blank and repeated keys, keeping first-seen order.
func cacheKeys(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
