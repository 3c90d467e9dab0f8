// Package broker is the queue side of the render farm: it owns job identity
// and lifecycle state. Handlers and the worker only touch jobs through the
// Broker port; the filesystem side of a job lives in package layout.
package broker

import (
	"context"
	"time"
)

// Status is a job lifecycle state. The broker is the only writer.
type Status string

const (
	StatusQueued   Status = "QUEUED"
	StatusStarted  Status = "STARTED"
	StatusFinished Status = "FINISHED"
	StatusFailed   Status = "FAILED"
)

// Job is one broker-tracked unit of render work.
type Job struct {
	// ID is assigned at enqueue time, opaque and globally unique.
	ID string
	// SceneFile is the scene file name on the shared filesystem.
	SceneFile string
	// Frames is the requested range as "start-end".
	Frames string
	// Status is the lifecycle state.
	Status Status
	// Result is free-form result text, set when the job reaches a
	// terminal state.
	Result string
	// OutputDir is the job directory name under the scene output root,
	// recorded by the worker at directory creation time.
	OutputDir string

	EnqueuedAt time.Time
	StartedAt  *time.Time
	EndedAt    *time.Time
}

// Broker is the queue capability required by the orchestration layer.
type Broker interface {
	// Enqueue creates a QUEUED job and pushes it onto the pending queue.
	Enqueue(ctx context.Context, sceneFile, frames string) (*Job, error)

	// FetchByID returns the job or a NotFound error.
	FetchByID(ctx context.Context, id string) (*Job, error)

	// FetchMany returns jobs aligned with ids; missing ids yield nil
	// entries rather than errors.
	FetchMany(ctx context.Context, ids []string) ([]*Job, error)

	// ListIDs enumerates every job id known to the broker. Unpaginated;
	// a known scaling ceiling.
	ListIDs(ctx context.Context) ([]string, error)

	// Delete removes the broker record and drops the job from the
	// pending queue. It does not touch the filesystem.
	Delete(ctx context.Context, id string) error

	// Dequeue blocks until a pending job id is available.
	Dequeue(ctx context.Context) (string, error)

	// MarkStarted transitions the job to STARTED and stamps started_at.
	MarkStarted(ctx context.Context, id string) error

	// Complete transitions the job to FINISHED with the given result.
	Complete(ctx context.Context, id, result string) error

	// Fail transitions the job to FAILED with the given result.
	Fail(ctx context.Context, id, result string) error

	// SetOutputDir records the job's output directory name so readers
	// do not have to rediscover it by prefix scan.
	SetOutputDir(ctx context.Context, id, dir string) error
}
