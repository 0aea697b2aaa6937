package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewWorkerPool_ZeroWorkers(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 0, func(context.Context, int) {})
	if pool.workers <= 0 {
		t.Errorf("workers = %d, want runtime.NumCPU()", pool.workers)
	}
}

func TestWorkerPool_Submit(t *testing.T) {
	var counter int64
	pool := NewWorkerPool(context.Background(), 2, func(context.Context, int) {
		atomic.AddInt64(&counter, 1)
	})
	pool.Start()
	defer pool.Close()

	for i := 0; i < 25; i++ {
		if err := pool.Submit(i); err != nil {
			t.Fatalf("Submit(%d): %v", i, err)
		}
	}
	pool.Wait()

	if counter != 25 {
		t.Errorf("Expected counter to be 25, got %d", counter)
	}
}

func TestWorkerPool_IndexedResults(t *testing.T) {
	results := make([]int, 10)
	pool := NewWorkerPool(context.Background(), 3, func(_ context.Context, i int) {
		results[i] = i * 2
	})
	pool.Start()
	defer pool.Close()

	for i := range results {
		if err := pool.Submit(i); err != nil {
			t.Fatalf("Submit(%d): %v", i, err)
		}
	}
	pool.Wait()

	for i, v := range results {
		if v != i*2 {
			t.Errorf("results[%d] = %d, want %d", i, v, i*2)
		}
	}
}

func TestWorkerPool_StartOnce(t *testing.T) {
	var mu sync.Mutex
	done := 0
	pool := NewWorkerPool(context.Background(), 2, func(context.Context, int) {
		mu.Lock()
		done++
		mu.Unlock()
	})
	pool.Start()
	pool.Start()
	defer pool.Close()

	if err := pool.Submit(0); err != nil {
		t.Fatal(err)
	}
	pool.Wait()
	if done != 1 {
		t.Errorf("done = %d, want 1", done)
	}
}

func TestWorkerPool_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	var ran int64
	pool := NewWorkerPool(ctx, 1, func(_ context.Context, i int) {
		if i == 0 {
			cancel()
		}
		atomic.AddInt64(&ran, 1)
		if i == 0 {
			<-release
		}
	})
	pool.Start()
	defer pool.Close()

	// The single worker cancels and then blocks on index 0.
	if err := pool.Submit(0); err != nil {
		t.Fatal(err)
	}
	for atomic.LoadInt64(&ran) == 0 {
		time.Sleep(time.Millisecond)
	}

	var refused error
	for i := 1; i < 10 && refused == nil; i++ {
		refused = pool.Submit(i)
	}
	if refused != context.Canceled {
		t.Errorf("Submit after cancel = %v, want %v", refused, context.Canceled)
	}

	close(release)
	pool.Wait()

	if got := atomic.LoadInt64(&ran); got != 1 {
		t.Errorf("ran %d jobs, want 1", got)
	}
	if pool.Skipped() != 0 {
		t.Errorf("skipped = %d, want 0 since Submit refused after cancel", pool.Skipped())
	}
}

func TestWorkerPool_DropsQueued(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	release := make(chan struct{})
	var ran int64
	pool := NewWorkerPool(ctx, 1, func(_ context.Context, i int) {
		atomic.AddInt64(&ran, 1)
		if i == 0 {
			close(started)
			<-release
		}
	})
	pool.Start()
	defer pool.Close()

	for i := 0; i < 3; i++ {
		if err := pool.Submit(i); err != nil {
			t.Fatalf("Submit(%d): %v", i, err)
		}
	}
	<-started
	cancel()
	close(release)
	pool.Wait()

	if got := atomic.LoadInt64(&ran); got != 1 {
		t.Errorf("ran %d jobs, want 1", got)
	}
	if pool.Skipped() != 2 {
		t.Errorf("skipped = %d, want 2", pool.Skipped())
	}
}
