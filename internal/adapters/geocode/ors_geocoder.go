package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fleet-route-optimizer/internal/domain"
	"fleet-route-optimizer/internal/platform/metrics"
	"fleet-route-optimizer/internal/platform/obs"
	"fleet-route-optimizer/internal/ports"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// ORSGeocoder resolves city names through OpenRouteService /geocode/search.
//
// Lookups go through an optional persistent cache, are rate limited and retry
// transient failures. Names that do not resolve are left out of the result.
// It is safe for concurrent use.
type ORSGeocoder struct {
	session *http.Client
	apiKey  string
	baseURL string
	country string
	limiter *rate.Limiter
	cache   ports.GeocodeCache
}

// NewORSGeocoder builds a geocoder restricted to country (ISO alpha-2).
// cache may be nil.
func NewORSGeocoder(apiKey, country string, rps float64, cache ports.GeocodeCache) (*ORSGeocoder, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if rps <= 0 {
		return nil, fmt.Errorf("geocode rate must be positive, got %v", rps)
	}

	return &ORSGeocoder{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: "https://api.openrouteservice.org",
		country: strings.ToUpper(strings.TrimSpace(country)),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		cache:   cache,
	}, nil
}

// normalize collapses whitespace so "New  Delhi" and "New Delhi" share a cache entry.
func (g *ORSGeocoder) normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (g *ORSGeocoder) cacheKey(norm string) string {
	return strings.ToLower(norm) + "|" + g.country
}

// GeocodeMany returns coordinates keyed by the names as given.
func (g *ORSGeocoder) GeocodeMany(
	ctx context.Context,
	names []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.GeocodeMany")(&err)

	keyOf := make(map[string]string, len(names))
	keys := make([]string, 0, len(names))
	for _, n := range names {
		norm := g.normalize(n)
		if norm == "" {
			continue
		}
		if _, ok := keyOf[n]; ok {
			continue
		}
		keyOf[n] = g.cacheKey(norm)
		keys = append(keys, keyOf[n])
	}

	hits := map[string]domain.Coordinates{}
	if g.cache != nil && len(keys) > 0 {
		cached, err := g.cache.GetMany(ctx, keys)
		if err != nil {
			log.Printf("req_id=%s warn=geocode_cache_read err=%v", obs.RequestID(ctx), err)
		} else {
			hits = cached
		}
	}

	out := make(map[string]domain.Coordinates, len(keyOf))
	fresh := make(map[string]domain.Coordinates)
	for _, n := range names {
		key, ok := keyOf[n]
		if !ok {
			continue
		}
		if _, done := out[n]; done {
			continue
		}
		if c, ok := hits[key]; ok {
			metrics.GeocodeRequests.WithLabelValues("cache", "hit").Inc()
			out[n] = c
			continue
		}
		if c, ok := fresh[key]; ok {
			out[n] = c
			continue
		}

		c, found, err := g.geocodeOne(ctx, g.normalize(n))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("geocode %q: %w", n, ctxErr)
			}
			metrics.GeocodeRequests.WithLabelValues("remote", "error").Inc()
			log.Printf("req_id=%s warn=geocode_failed city=%q err=%v", obs.RequestID(ctx), n, err)
			continue
		}
		if !found {
			metrics.GeocodeRequests.WithLabelValues("remote", "miss").Inc()
			continue
		}
		metrics.GeocodeRequests.WithLabelValues("remote", "hit").Inc()
		fresh[key] = c
		out[n] = c
	}

	if g.cache != nil && len(fresh) > 0 {
		if err := g.cache.PutMany(ctx, fresh); err != nil {
			log.Printf("req_id=%s warn=geocode_cache_write err=%v", obs.RequestID(ctx), err)
		}
	}

	return out, nil
}

// geocodeOne returns found=false when the service has no match for text.
func (g *ORSGeocoder) geocodeOne(ctx context.Context, text string) (domain.Coordinates, bool, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("wait for rate limiter: %w", err)
	}

	endpoint := g.baseURL + "/geocode/search"
	resp, err := g.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := g.newRequest(ctx, http.MethodGet, endpoint)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", text)
		if g.country != "" {
			q.Set("boundary.country", g.country)
		}
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, false, nil
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, false, fmt.Errorf("invalid coordinate format for %q", text)
	}

	// ORS returns [lon, lat].
	c := domain.Coordinates{Lon: coords[0], Lat: coords[1]}
	if !c.IsFinite() {
		return domain.Coordinates{}, false, fmt.Errorf("non-finite coordinates for %q", text)
	}
	return c, true, nil
}
