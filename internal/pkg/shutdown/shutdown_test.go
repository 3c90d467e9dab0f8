package shutdown

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"renderfarm/internal/pkg/logger"
)

func newTestLogger() *logger.Logger {
	var buf bytes.Buffer
	return logger.New(logger.Config{
		Level:  "debug",
		Format: "json",
		Output: &buf,
	})
}

func TestNewManagerDefaultTimeout(t *testing.T) {
	mgr := NewManager(newTestLogger(), 0)
	if mgr.timeout != 30*time.Second {
		t.Errorf("expected default 30s timeout, got %s", mgr.timeout)
	}
}

func TestRegister(t *testing.T) {
	mgr := NewManager(newTestLogger(), 5*time.Second)

	mgr.Register("redis", func(ctx context.Context) error { return nil })

	if len(mgr.handlers) != 1 {
		t.Fatalf("expected 1 handler, got %d", len(mgr.handlers))
	}
	if mgr.handlers[0].Name != "redis" {
		t.Errorf("expected handler name 'redis', got %s", mgr.handlers[0].Name)
	}
}

func TestShutdownRunsAllHandlers(t *testing.T) {
	mgr := NewManager(newTestLogger(), 5*time.Second)

	var count atomic.Int32
	for i := 0; i < 3; i++ {
		mgr.Register(fmt.Sprintf("h%d", i), func(ctx context.Context) error {
			count.Add(1)
			return nil
		})
	}

	mgr.Shutdown()

	if count.Load() != 3 {
		t.Errorf("expected 3 handlers called, got %d", count.Load())
	}
}

func TestShutdownClosesDone(t *testing.T) {
	mgr := NewManager(newTestLogger(), 5*time.Second)
	mgr.Shutdown()

	select {
	case <-mgr.Done():
	case <-time.After(time.Second):
		t.Error("expected done channel to be closed")
	}
}

func TestShutdownContinuesPastFailure(t *testing.T) {
	mgr := NewManager(newTestLogger(), 5*time.Second)

	var ran atomic.Bool
	mgr.Register("ok", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	mgr.Register("broken", func(ctx context.Context) error {
		return fmt.Errorf("close failed")
	})

	mgr.Shutdown()

	if !ran.Load() {
		t.Error("expected remaining handlers to run after a failure")
	}
}

func TestShutdownTimeout(t *testing.T) {
	mgr := NewManager(newTestLogger(), 100*time.Millisecond)

	mgr.Register("slow", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})

	start := time.Now()
	mgr.Shutdown()

	if time.Since(start) > 2*time.Second {
		t.Error("expected shutdown to give up at the timeout")
	}
}

func TestRegisterSimple(t *testing.T) {
	mgr := NewManager(newTestLogger(), 5*time.Second)

	var called atomic.Bool
	mgr.RegisterSimple("simple", func() { called.Store(true) })

	mgr.Shutdown()

	if !called.Load() {
		t.Error("expected simple handler to be called")
	}
}

func TestContextCanceledOnShutdown(t *testing.T) {
	mgr := NewManager(newTestLogger(), 5*time.Second)
	ctx := mgr.Context()

	mgr.Shutdown()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Error("expected context to be canceled after shutdown")
	}
}
