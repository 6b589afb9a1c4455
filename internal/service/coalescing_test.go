package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCoalescer_ConcurrentRequests(t *testing.T) {
	c := newCoalescer[string](5 * time.Second)
	var calls atomic.Int32
	release := make(chan struct{})

	fn := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "taipei", nil
	}

	const n = 10
	var wg sync.WaitGroup
	var started sync.WaitGroup
	results := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		started.Add(1)
		go func(idx int) {
			defer wg.Done()
			started.Done()
			results[idx], _, errs[idx] = c.Do(context.Background(), "taipei", fn)
		}(i)
	}
	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range results {
		if errs[i] != nil || results[i] != "taipei" {
			t.Errorf("request %d = %q, %v", i, results[i], errs[i])
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("fn call count = %d, want 1 (coalescing failed)", got)
	}
}

func TestCoalescer_ErrorPropagation(t *testing.T) {
	c := newCoalescer[int](time.Second)
	wantErr := errors.New("api failure")
	_, _, err := c.Do(context.Background(), "k", func(context.Context) (int, error) { return 0, wantErr })
	if !errors.Is(err, wantErr) {
		t.Errorf("Do() error = %v, want %v", err, wantErr)
	}
}

func TestCoalescer_CallerCancelDoesNotCancelCall(t *testing.T) {
	c := newCoalescer[int](time.Second)
	done := make(chan error, 1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_, _, err := c.Do(ctx, "k", func(callCtx context.Context) (int, error) {
			time.Sleep(50 * time.Millisecond)
			done <- callCtx.Err()
			return 1, nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Do() error = %v, want context.Canceled", err)
		}
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	if err := <-done; err != nil {
		t.Errorf("call ctx error = %v, want nil (detached from caller)", err)
	}
}

func TestCoalescer_TimeoutBoundsCall(t *testing.T) {
	c := newCoalescer[int](20 * time.Millisecond)
	_, _, err := c.Do(context.Background(), "k", func(callCtx context.Context) (int, error) {
		<-callCtx.Done()
		return 0, callCtx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Do() error = %v, want deadline exceeded", err)
	}
}

func TestCoalescer_Nil(t *testing.T) {
	var c *coalescer[int]
	v, shared, err := c.Do(context.Background(), "k", func(context.Context) (int, error) { return 7, nil })
	if v != 7 || shared || err != nil {
		t.Errorf("nil Do() = %v, %v, %v", v, shared, err)
	}
}
