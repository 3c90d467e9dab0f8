package broker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"renderfarm/internal/pkg/errors"
)

// MemoryBroker is an in-process Broker for single-process development and
// tests. Same contract as RedisBroker, no external dependency.
type MemoryBroker struct {
	mu      sync.Mutex
	jobs    map[string]*Job
	pending chan string
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		jobs:    make(map[string]*Job),
		pending: make(chan string, 1024),
	}
}

func (b *MemoryBroker) Enqueue(_ context.Context, sceneFile, frames string) (*Job, error) {
	job := &Job{
		ID:         uuid.NewString(),
		SceneFile:  sceneFile,
		Frames:     frames,
		Status:     StatusQueued,
		EnqueuedAt: time.Now().UTC(),
	}

	b.mu.Lock()
	b.jobs[job.ID] = job
	b.mu.Unlock()

	b.pending <- job.ID

	out := *job
	return &out, nil
}

// Seed installs a fully-formed job record without queueing it.
func (b *MemoryBroker) Seed(job Job) {
	b.mu.Lock()
	defer b.mu.Unlock()
	stored := job
	b.jobs[job.ID] = &stored
}

func (b *MemoryBroker) FetchByID(_ context.Context, id string) (*Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	job, ok := b.jobs[id]
	if !ok {
		return nil, errors.NotFound("job", id)
	}
	out := *job
	return &out, nil
}

func (b *MemoryBroker) FetchMany(ctx context.Context, ids []string) ([]*Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	jobs := make([]*Job, len(ids))
	for i, id := range ids {
		if job, ok := b.jobs[id]; ok {
			out := *job
			jobs[i] = &out
		}
	}
	return jobs, nil
}

func (b *MemoryBroker) ListIDs(_ context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]string, 0, len(b.jobs))
	for id := range b.jobs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (b *MemoryBroker) Delete(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.jobs, id)
	return nil
}

// Dequeue pops the next pending id. Ids deleted while queued surface as
// NotFound on the subsequent fetch, matching the Redis implementation.
func (b *MemoryBroker) Dequeue(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case id := <-b.pending:
		return id, nil
	}
}

func (b *MemoryBroker) MarkStarted(_ context.Context, id string) error {
	return b.update(id, func(job *Job) {
		now := time.Now().UTC()
		job.Status = StatusStarted
		job.StartedAt = &now
	})
}

func (b *MemoryBroker) Complete(_ context.Context, id, result string) error {
	return b.update(id, func(job *Job) {
		now := time.Now().UTC()
		job.Status = StatusFinished
		job.Result = result
		job.EndedAt = &now
	})
}

func (b *MemoryBroker) Fail(_ context.Context, id, result string) error {
	return b.update(id, func(job *Job) {
		now := time.Now().UTC()
		job.Status = StatusFailed
		job.Result = result
		job.EndedAt = &now
	})
}

func (b *MemoryBroker) SetOutputDir(_ context.Context, id, dir string) error {
	return b.update(id, func(job *Job) {
		job.OutputDir = dir
	})
}

func (b *MemoryBroker) update(id string, fn func(*Job)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	job, ok := b.jobs[id]
	if !ok {
		return errors.NotFound("job", id)
	}
	fn(job)
	return nil
}
