package services

import (
	"context"
	"errors"
	"fleet-route-optimizer/internal/domain"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubOptimizer counts calls and optionally waits for release before answering.
type stubOptimizer struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (s *stubOptimizer) Optimize(ctx context.Context, doc domain.InputDocument) (*domain.OptimizationResult, error) {
	s.calls.Add(1)
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &domain.OptimizationResult{
		TotalCost:      42,
		RoutesSelected: []domain.Allocation{},
		SummaryMetrics: domain.Summary{TotalCost: 42},
	}, nil
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string]*domain.OptimizationResult
	getErr  error
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]*domain.OptimizationResult{}}
}

func (c *mapCache) Get(ctx context.Context, key string) (*domain.OptimizationResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	res, ok := c.entries[key]
	return res, ok, nil
}

func (c *mapCache) Put(ctx context.Context, key string, res *domain.OptimizationResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = res
	return nil
}

func TestDispatcherCachesResults(t *testing.T) {
	engine := &stubOptimizer{}
	cache := newMapCache()
	d := NewDispatcher(engine, cache, 2, time.Second)

	first, err := d.Optimize(context.Background(), twoCityDoc(200, 1000))
	require.NoError(t, err)
	second, err := d.Optimize(context.Background(), twoCityDoc(200, 1000))
	require.NoError(t, err)

	assert.Equal(t, int32(1), engine.calls.Load())
	assert.Same(t, first, second)

	key, err := InputKey(twoCityDoc(200, 1000))
	require.NoError(t, err)
	assert.Contains(t, cache.entries, key)
}

func TestDispatcherIgnoresCacheErrors(t *testing.T) {
	engine := &stubOptimizer{}
	cache := newMapCache()
	cache.getErr = errors.New("connection refused")
	d := NewDispatcher(engine, cache, 1, time.Second)

	res, err := d.Optimize(context.Background(), twoCityDoc(200, 1000))
	require.NoError(t, err)
	assert.Equal(t, 42.0, res.TotalCost)
}

func TestDispatcherSharesConcurrentSolves(t *testing.T) {
	engine := &stubOptimizer{release: make(chan struct{})}
	d := NewDispatcher(engine, newMapCache(), 4, 5*time.Second)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*domain.OptimizationResult, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = d.Optimize(context.Background(), twoCityDoc(200, 1000))
		}()
	}

	require.Eventually(t, func() bool { return engine.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(engine.release)
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, 42.0, results[i].TotalCost)
	}
	assert.Equal(t, int32(1), engine.calls.Load())
}

func TestDispatcherRejectsInvalidInputWithoutSolving(t *testing.T) {
	engine := &stubOptimizer{}
	d := NewDispatcher(engine, nil, 1, time.Second)

	doc := twoCityDoc(200, 1000)
	doc.Cities[0].Demand = -1

	_, err := d.Optimize(context.Background(), doc)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, engine.calls.Load())
}

func TestDispatcherCallerCancellation(t *testing.T) {
	engine := &stubOptimizer{release: make(chan struct{})}
	defer close(engine.release)
	d := NewDispatcher(engine, nil, 1, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := d.Optimize(ctx, twoCityDoc(200, 1000))
		done <- err
	}()

	require.Eventually(t, func() bool { return engine.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not return after cancellation")
	}
}

func TestDispatcherTimeout(t *testing.T) {
	engine := &stubOptimizer{release: make(chan struct{})}
	defer close(engine.release)
	d := NewDispatcher(engine, nil, 1, 20*time.Millisecond)

	_, err := d.Optimize(context.Background(), twoCityDoc(200, 1000))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInputKeyIgnoresMapOrder(t *testing.T) {
	a := twoCityDoc(200, 1000)
	a.Routes = map[string][]string{"R1": {"A", "B"}, "R2": {"B"}}
	b := twoCityDoc(200, 1000)
	b.Routes = map[string][]string{"R2": {"B"}, "R1": {"A", "B"}}

	ka, err := InputKey(a)
	require.NoError(t, err)
	kb, err := InputKey(b)
	require.NoError(t, err)
	assert.Equal(t, ka, kb)
	assert.Len(t, ka, 64)

	c := twoCityDoc(200, 1001)
	kc, err := InputKey(c)
	require.NoError(t, err)
	assert.NotEqual(t, ka, kc)
}
