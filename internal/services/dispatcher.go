package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fleet-route-optimizer/internal/domain"
	"fleet-route-optimizer/internal/platform/metrics"
	"fleet-route-optimizer/internal/platform/obs"
	"fleet-route-optimizer/internal/ports"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Dispatcher moves solves off the request path.
//
// At most `concurrency` solves run at once. Concurrent requests with the same
// input share one solve, and results are read from and written to an optional
// cache. Results handed out by the dispatcher may be shared between callers
// and must not be mutated.
type Dispatcher struct {
	engine  ports.Optimizer
	cache   ports.ResultCache
	timeout time.Duration

	sem   *semaphore.Weighted
	group singleflight.Group
}

// NewDispatcher creates a dispatcher. cache may be nil.
func NewDispatcher(engine ports.Optimizer, cache ports.ResultCache, concurrency int, timeout time.Duration) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Dispatcher{
		engine:  engine,
		cache:   cache,
		timeout: timeout,
		sem:     semaphore.NewWeighted(int64(concurrency)),
	}
}

// Optimize returns the result for doc, solving it at most once per key at a time.
func (d *Dispatcher) Optimize(ctx context.Context, doc domain.InputDocument) (*domain.OptimizationResult, error) {
	// Reject bad input before hashing it or taking a worker slot.
	if err := ValidateInput(doc); err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}

	key, err := InputKey(doc)
	if err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}

	if d.cache != nil {
		cached, ok, err := d.cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.ResultCache.WithLabelValues("error").Inc()
			log.Printf("req_id=%s warn=result_cache_get key=%s err=%v", obs.RequestID(ctx), key, err)
		case ok:
			metrics.ResultCache.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.ResultCache.WithLabelValues("miss").Inc()
		}
	}

	ch := d.group.DoChan(key, func() (any, error) {
		// The solve may be shared, so it must outlive the caller that started it.
		solveCtx := context.WithoutCancel(ctx)
		if d.timeout > 0 {
			var cancel context.CancelFunc
			solveCtx, cancel = context.WithTimeout(solveCtx, d.timeout)
			defer cancel()
		}

		if err := d.sem.Acquire(solveCtx, 1); err != nil {
			return nil, fmt.Errorf("wait for solver slot: %w", err)
		}
		defer d.sem.Release(1)

		metrics.SolvesInFlight.Inc()
		defer metrics.SolvesInFlight.Dec()

		res, err := d.engine.Optimize(solveCtx, doc)
		if err != nil {
			return nil, err
		}

		if d.cache != nil {
			if err := d.cache.Put(solveCtx, key, res); err != nil {
				log.Printf("req_id=%s warn=result_cache_put key=%s err=%v", obs.RequestID(ctx), key, err)
			}
		}
		return res, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("dispatch: %w", ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return nil, fmt.Errorf("dispatch: %w", r.Err)
		}
		return r.Val.(*domain.OptimizationResult), nil
	}
}

// InputKey is the hex SHA-256 of the canonical JSON encoding of doc.
// encoding/json sorts map keys, so equal documents hash equally.
func InputKey(doc domain.InputDocument) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("input key: encode document: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
