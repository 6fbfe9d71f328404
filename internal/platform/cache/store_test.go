package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "ladder-payload", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "ladder|1|grade-a", loader)
			if err != nil {
				errCh <- err
				return
			}
			if got, _ := v.(string); got != "ladder-payload" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_UsesCachedValueAfterFirstLoad(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		return "cached", nil
	}

	if _, err := store.GetOrLoad(context.Background(), "grades|1", loader); err != nil {
		t.Fatalf("first GetOrLoad error: %v", err)
	}
	if _, err := store.GetOrLoad(context.Background(), "grades|1", loader); err != nil {
		t.Fatalf("second GetOrLoad error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_ExpiredEntryIsReloaded(t *testing.T) {
	t.Parallel()

	store := NewStore(10 * time.Millisecond)
	ctx := context.Background()

	store.Set(ctx, "grades|2", "stale")
	time.Sleep(25 * time.Millisecond)

	if _, ok := store.Get(ctx, "grades|2"); ok {
		t.Fatal("expected expired entry to be gone")
	}
}

func TestStore_DeletePrefix(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	ctx := context.Background()

	store.Set(ctx, "ladder|1|grade-a", "a")
	store.Set(ctx, "ladder|1|grade-b", "b")
	store.Set(ctx, "ladder|2|grade-a", "other-org")

	store.DeletePrefix(ctx, "ladder|1|")

	if _, ok := store.Get(ctx, "ladder|1|grade-a"); ok {
		t.Fatal("expected ladder|1|grade-a to be dropped")
	}
	if _, ok := store.Get(ctx, "ladder|1|grade-b"); ok {
		t.Fatal("expected ladder|1|grade-b to be dropped")
	}
	if _, ok := store.Get(ctx, "ladder|2|grade-a"); !ok {
		t.Fatal("expected other organization entries to survive")
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
