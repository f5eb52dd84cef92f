package worker

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domainacq/internal/services"
)

type countingSearcher struct {
	calls atomic.Int32
	err   error
}

func (c *countingSearcher) SearchPending(context.Context) (services.BatchSummary, error) {
	c.calls.Add(1)
	return services.BatchSummary{Total: 1, Found: 1}, c.err
}

func TestAutoSearch_RunsOnEveryTick(t *testing.T) {
	s := &countingSearcher{}
	w := NewAutoSearch(s, 10*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Eventually(t, func() bool { return s.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestAutoSearch_BusyTicksAreSkipped(t *testing.T) {
	s := &countingSearcher{err: services.ErrBusy}
	w := NewAutoSearch(s, 5*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, w.Run(ctx))
	assert.Positive(t, s.calls.Load())
}

func TestAutoSearch_DisabledWithoutInterval(t *testing.T) {
	s := &countingSearcher{}
	w := NewAutoSearch(s, 0, nil)
	assert.False(t, w.Enabled())
	require.NoError(t, w.Run(context.Background()))
	assert.Zero(t, s.calls.Load())
}
