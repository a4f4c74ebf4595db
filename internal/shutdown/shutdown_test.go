package shutdown_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"sylvectl/internal/shutdown"
)

func waitCtx(t *testing.T, d time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	t.Cleanup(cancel)
	return ctx
}

// TestSignalCancelsContext - a listened-for signal cancels in-flight requests
func TestSignalCancelsContext(t *testing.T) {
	mgr := shutdown.NewManager(context.Background())
	mgr.Listen(syscall.SIGUSR1)

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("failed to signal self: %v", err)
	}

	select {
	case <-mgr.Context().Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expected context to be cancelled after signal")
	}
	if !mgr.Interrupted() {
		t.Error("expected Interrupted after signal")
	}
	if mgr.Signal() != syscall.SIGUSR1 {
		t.Errorf("Signal = %v, want SIGUSR1", mgr.Signal())
	}
}

func TestParentCancellationPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	mgr := shutdown.NewManager(parent)
	cancel()

	select {
	case <-mgr.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("expected parent cancellation to reach manager context")
	}
	if mgr.Interrupted() {
		t.Error("parent cancellation is not an interrupt")
	}
}

// TestShutdownPreventsNewOperations - requests started after shutdown see a cancelled context
func TestShutdownPreventsNewOperations(t *testing.T) {
	mgr := shutdown.NewManager(context.Background())
	mgr.Shutdown()

	if !mgr.IsShutdown() {
		t.Error("expected IsShutdown to return true after Shutdown call")
	}
	select {
	case <-mgr.Context().Done():
	default:
		t.Error("expected context to be cancelled after shutdown")
	}
}

// TestWaitRunsCleanupsInReverseOrder - the cache store closes before anything it depends on
func TestWaitRunsCleanupsInReverseOrder(t *testing.T) {
	mgr := shutdown.NewManager(context.Background())

	var mu sync.Mutex
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		mgr.RegisterCleanup(name, func(ctx context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}

	if err := mgr.Wait(waitCtx(t, 2*time.Second)); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	expected := []string{"third", "second", "first"}
	if strings.Join(order, ",") != strings.Join(expected, ",") {
		t.Errorf("cleanup order = %v, want %v", order, expected)
	}
}

func TestWaitJoinsCleanupErrors(t *testing.T) {
	mgr := shutdown.NewManager(context.Background())
	errClose := errors.New("database is locked")

	var ran atomic.Bool
	mgr.RegisterCleanup("other", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	mgr.RegisterCleanup("cache store", func(ctx context.Context) error {
		return errClose
	})

	err := mgr.Wait(waitCtx(t, 2*time.Second))
	if !errors.Is(err, errClose) {
		t.Fatalf("expected cleanup error, got %v", err)
	}
	if !strings.Contains(err.Error(), "cache store") {
		t.Errorf("expected cleanup name in error, got %q", err.Error())
	}
	if !ran.Load() {
		t.Error("a failing cleanup must not stop the others")
	}
}

// TestShutdownTimeout - a stuck cleanup cannot hang the process
func TestShutdownTimeout(t *testing.T) {
	mgr := shutdown.NewManager(context.Background())
	mgr.RegisterCleanup("slow-cleanup", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	if err := mgr.Wait(waitCtx(t, 100*time.Millisecond)); err == nil {
		t.Error("expected timeout error")
	}
}

func TestCleanupsRunOnce(t *testing.T) {
	mgr := shutdown.NewManager(context.Background())

	var count atomic.Int32
	mgr.RegisterCleanup("test", func(ctx context.Context) error {
		count.Add(1)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mgr.Shutdown()
			_ = mgr.Wait(waitCtx(t, 2*time.Second))
		}()
	}
	wg.Wait()

	if count.Load() != 1 {
		t.Errorf("expected cleanup to be called exactly once, got %d", count.Load())
	}
}
