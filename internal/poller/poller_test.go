package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/custom-order-service/internal/readmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedFetch returns each model in sequence, then repeats the last one
type scriptedFetch struct {
	mu      sync.Mutex
	results []*readmodel.OrderReadModel
	calls   int
}

func (f *scriptedFetch) fetch(ctx context.Context, orderID string, sinceVersion int) (*readmodel.OrderReadModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	f.calls++
	return f.results[i], nil
}

func collectUpdates(t *testing.T, fetch Fetch, interval time.Duration, ticks int) []int {
	t.Helper()

	var mu sync.Mutex
	var versions []int
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p := New(fetch, interval, func(o *readmodel.OrderReadModel) {
		mu.Lock()
		versions = append(versions, o.Version)
		mu.Unlock()
	})

	go func() {
		defer close(done)
		_ = p.Watch(ctx, "order-1")
	}()

	time.Sleep(time.Duration(ticks) * interval)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	return append([]int(nil), versions...)
}

func TestPoller_ReportsOnlyNewVersions(t *testing.T) {
	fetch := &scriptedFetch{results: []*readmodel.OrderReadModel{
		{ID: "order-1", Version: 1},
		{ID: "order-1", Version: 1},
		{ID: "order-1", Version: 3},
		{ID: "order-1", Version: 3},
	}}

	versions := collectUpdates(t, fetch.fetch, 5*time.Millisecond, 10)

	require.NotEmpty(t, versions)
	assert.Equal(t, 1, versions[0])
	// No version is ever reported twice or out of order
	for i := 1; i < len(versions); i++ {
		assert.Greater(t, versions[i], versions[i-1])
	}
	assert.Contains(t, versions, 3)
}

func TestPoller_NilResultMeansUnchanged(t *testing.T) {
	fetch := &scriptedFetch{results: []*readmodel.OrderReadModel{
		{ID: "order-1", Version: 2},
		nil,
		nil,
	}}

	versions := collectUpdates(t, fetch.fetch, 5*time.Millisecond, 6)
	assert.Equal(t, []int{2}, versions)
}

func TestPoller_FetchErrorsAreRetried(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	fetch := func(ctx context.Context, orderID string, sinceVersion int) (*readmodel.OrderReadModel, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls < 3 {
			return nil, errors.New("connection refused")
		}
		return &readmodel.OrderReadModel{ID: orderID, Version: 5}, nil
	}

	versions := collectUpdates(t, fetch, 5*time.Millisecond, 10)
	assert.Equal(t, []int{5}, versions)
}

func TestPoller_StopsOnCancel(t *testing.T) {
	fetch := func(ctx context.Context, orderID string, sinceVersion int) (*readmodel.OrderReadModel, error) {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := New(fetch, time.Millisecond, func(o *readmodel.OrderReadModel) {})

	errCh := make(chan error, 1)
	go func() { errCh <- p.Watch(ctx, "order-1") }()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestPoller_PassesLastSeenVersion(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	fetch := func(ctx context.Context, orderID string, sinceVersion int) (*readmodel.OrderReadModel, error) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, sinceVersion)
		return &readmodel.OrderReadModel{ID: orderID, Version: 4}, nil
	}

	collectUpdates(t, fetch, 5*time.Millisecond, 4)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, 0, seen[0], "first fetch starts from zero")
	if len(seen) > 1 {
		assert.Equal(t, 4, seen[len(seen)-1], "later fetches carry the seen version")
	}
}

func TestNew_DefaultInterval(t *testing.T) {
	p := New(nil, 0, nil)
	assert.Equal(t, DefaultInterval, p.interval)
}
