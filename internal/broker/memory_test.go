package broker

import (
	"context"
	"testing"
	"time"

	"renderfarm/internal/pkg/errors"
)

func TestMemoryBrokerLifecycle(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBroker()

	job, err := b.Enqueue(ctx, "cube.blend", "1-5")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if job.Status != StatusQueued {
		t.Errorf("expected QUEUED, got %s", job.Status)
	}
	if job.ID == "" {
		t.Fatal("expected an assigned id")
	}

	id, err := b.Dequeue(ctx)
	if err != nil || id != job.ID {
		t.Fatalf("Dequeue=%q,%v, want %q", id, err, job.ID)
	}

	if err := b.MarkStarted(ctx, id); err != nil {
		t.Fatalf("MarkStarted: %v", err)
	}
	if err := b.SetOutputDir(ctx, id, id+"__ts"); err != nil {
		t.Fatalf("SetOutputDir: %v", err)
	}
	if err := b.Complete(ctx, id, "RENDER_SUCCESS"); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	got, err := b.FetchByID(ctx, id)
	if err != nil {
		t.Fatalf("FetchByID: %v", err)
	}
	if got.Status != StatusFinished {
		t.Errorf("expected FINISHED, got %s", got.Status)
	}
	if got.Result != "RENDER_SUCCESS" {
		t.Errorf("expected result text, got %q", got.Result)
	}
	if got.OutputDir != id+"__ts" {
		t.Errorf("expected recorded output dir, got %q", got.OutputDir)
	}
	if got.StartedAt == nil || got.EndedAt == nil {
		t.Error("expected both timestamps set")
	}
}

func TestMemoryBrokerFail(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBroker()

	job, _ := b.Enqueue(ctx, "cube.blend", "1-5")
	if err := b.Fail(ctx, job.ID, "RENDER_FAILED: Return code: 1"); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	got, _ := b.FetchByID(ctx, job.ID)
	if got.Status != StatusFailed {
		t.Errorf("expected FAILED, got %s", got.Status)
	}
	if got.Result != "RENDER_FAILED: Return code: 1" {
		t.Errorf("unexpected result %q", got.Result)
	}
}

func TestMemoryBrokerNotFound(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBroker()

	if _, err := b.FetchByID(ctx, "nope"); !errors.IsNotFound(err) {
		t.Errorf("expected NotFound, got %v", err)
	}
	if err := b.MarkStarted(ctx, "nope"); !errors.IsNotFound(err) {
		t.Errorf("expected NotFound on update, got %v", err)
	}
}

func TestMemoryBrokerDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBroker()

	job, _ := b.Enqueue(ctx, "cube.blend", "1-2")
	if err := b.Delete(ctx, job.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := b.Delete(ctx, job.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := b.FetchByID(ctx, job.ID); !errors.IsNotFound(err) {
		t.Errorf("expected NotFound after delete, got %v", err)
	}
}

func TestMemoryBrokerFetchManyAlignment(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBroker()

	a, _ := b.Enqueue(ctx, "a.blend", "1-1")
	c, _ := b.Enqueue(ctx, "c.blend", "1-1")

	jobs, err := b.FetchMany(ctx, []string{a.ID, "missing", c.ID})
	if err != nil {
		t.Fatalf("FetchMany: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(jobs))
	}
	if jobs[0] == nil || jobs[0].SceneFile != "a.blend" {
		t.Errorf("expected first entry a.blend, got %+v", jobs[0])
	}
	if jobs[1] != nil {
		t.Errorf("expected nil for missing id, got %+v", jobs[1])
	}
	if jobs[2] == nil || jobs[2].SceneFile != "c.blend" {
		t.Errorf("expected third entry c.blend, got %+v", jobs[2])
	}
}

func TestMemoryBrokerDequeueRespectsContext(t *testing.T) {
	b := NewMemoryBroker()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := b.Dequeue(ctx); err == nil {
		t.Error("expected context error on empty queue")
	}
}
