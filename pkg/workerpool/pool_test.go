package workerpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitReturnsJobResult(t *testing.T) {
	p := New(2)
	defer p.Close()

	got, err := Submit(context.Background(), p, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestSubmitBoundsConcurrency(t *testing.T) {
	p := New(2)
	defer p.Close()

	var inFlight, maxInFlight int32
	release := make(chan struct{})
	done := make(chan struct{}, 5)

	for i := 0; i < 5; i++ {
		go func() {
			_, _ = Submit(context.Background(), p, func(ctx context.Context) (struct{}, error) {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					old := atomic.LoadInt32(&maxInFlight)
					if n <= old || atomic.CompareAndSwapInt32(&maxInFlight, old, n) {
						break
					}
				}
				<-release
				atomic.AddInt32(&inFlight, -1)
				return struct{}{}, nil
			})
			done <- struct{}{}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, atomic.LoadInt32(&maxInFlight), int32(2))
	close(release)
	for i := 0; i < 5; i++ {
		<-done
	}
}

func TestSubmitRecoversPanic(t *testing.T) {
	p := New(1)
	defer p.Close()

	_, err := Submit(context.Background(), p, func(ctx context.Context) (int, error) {
		panic("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestSubmitReturnsContextErrorOnCancel(t *testing.T) {
	p := New(1)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	started := make(chan struct{})
	_, err := Submit(ctx, p, func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.Error(t, err)
}

func TestSubmitAfterCloseReturnsErrClosed(t *testing.T) {
	p := New(1)
	p.Close()

	_, err := Submit(context.Background(), p, func(ctx context.Context) (int, error) {
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrClosed)
}
