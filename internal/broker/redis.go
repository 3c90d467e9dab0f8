package broker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"renderfarm/internal/pkg/errors"
)

// Hash fields of a job record.
const (
	fieldScene      = "scene_file"
	fieldFrames     = "frames"
	fieldStatus     = "status"
	fieldResult     = "result"
	fieldOutputDir  = "output_dir"
	fieldEnqueuedAt = "enqueued_at"
	fieldStartedAt  = "started_at"
	fieldEndedAt    = "ended_at"
)

const jobKeyPrefix = "render:job:"

// RedisBroker stores one hash per job under render:job:<id> and keeps
// pending ids on a list, LPUSH on enqueue and BRPOP on the worker side.
type RedisBroker struct {
	rdb       *redis.Client
	queueName string
}

func NewRedisBroker(rdb *redis.Client, queueName string) *RedisBroker {
	return &RedisBroker{rdb: rdb, queueName: queueName}
}

func jobKey(id string) string {
	return jobKeyPrefix + id
}

// Ping verifies the Redis connection.
func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

func (b *RedisBroker) Enqueue(ctx context.Context, sceneFile, frames string) (*Job, error) {
	job := &Job{
		ID:         uuid.NewString(),
		SceneFile:  sceneFile,
		Frames:     frames,
		Status:     StatusQueued,
		EnqueuedAt: time.Now().UTC(),
	}

	_, err := b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, jobKey(job.ID),
			fieldScene, job.SceneFile,
			fieldFrames, job.Frames,
			fieldStatus, string(job.Status),
			fieldEnqueuedAt, job.EnqueuedAt.Format(time.RFC3339Nano),
		)
		pipe.LPush(ctx, b.queueName, job.ID)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "broker.enqueue", "failed to enqueue job")
	}
	return job, nil
}

func (b *RedisBroker) FetchByID(ctx context.Context, id string) (*Job, error) {
	fields, err := b.rdb.HGetAll(ctx, jobKey(id)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "broker.fetch", "failed to fetch job")
	}
	if len(fields) == 0 {
		return nil, errors.NotFound("job", id)
	}
	return jobFromHash(id, fields), nil
}

func (b *RedisBroker) FetchMany(ctx context.Context, ids []string) ([]*Job, error) {
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err := b.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, jobKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "broker.fetch", "failed to fetch jobs")
	}

	jobs := make([]*Job, len(ids))
	for i, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		jobs[i] = jobFromHash(ids[i], fields)
	}
	return jobs, nil
}

func (b *RedisBroker) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := b.rdb.Scan(ctx, 0, jobKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(jobKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "broker.list", "job key scan failed")
	}
	return ids, nil
}

func (b *RedisBroker) Delete(ctx context.Context, id string) error {
	_, err := b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, jobKey(id))
		// Drop the id from the pending list so a deleted job never runs.
		pipe.LRem(ctx, b.queueName, 0, id)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "broker.delete", "failed to delete job")
	}
	return nil
}

func (b *RedisBroker) Dequeue(ctx context.Context) (string, error) {
	res, err := b.rdb.BRPop(ctx, 0, b.queueName).Result()
	if err != nil {
		return "", err
	}
	if len(res) < 2 {
		return "", nil
	}
	return res[1], nil
}

func (b *RedisBroker) MarkStarted(ctx context.Context, id string) error {
	err := b.rdb.HSet(ctx, jobKey(id),
		fieldStatus, string(StatusStarted),
		fieldStartedAt, time.Now().UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return errors.Wrap(err, "broker.start", "failed to mark job started")
	}
	return nil
}

func (b *RedisBroker) Complete(ctx context.Context, id, result string) error {
	return b.finish(ctx, id, StatusFinished, result)
}

func (b *RedisBroker) Fail(ctx context.Context, id, result string) error {
	return b.finish(ctx, id, StatusFailed, result)
}

func (b *RedisBroker) finish(ctx context.Context, id string, status Status, result string) error {
	err := b.rdb.HSet(ctx, jobKey(id),
		fieldStatus, string(status),
		fieldResult, result,
		fieldEndedAt, time.Now().UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return errors.Wrapf(err, "broker.finish", "failed to mark job %s", status)
	}
	return nil
}

func (b *RedisBroker) SetOutputDir(ctx context.Context, id, dir string) error {
	if err := b.rdb.HSet(ctx, jobKey(id), fieldOutputDir, dir).Err(); err != nil {
		return errors.Wrap(err, "broker.outputdir", "failed to record output directory")
	}
	return nil
}

// jobFromHash rebuilds a Job from its hash fields. Timestamps that are
// absent or unparseable stay nil.
func jobFromHash(id string, fields map[string]string) *Job {
	job := &Job{
		ID:        id,
		SceneFile: fields[fieldScene],
		Frames:    fields[fieldFrames],
		Status:    Status(fields[fieldStatus]),
		Result:    fields[fieldResult],
		OutputDir: fields[fieldOutputDir],
	}

	if t, err := time.Parse(time.RFC3339Nano, fields[fieldEnqueuedAt]); err == nil {
		job.EnqueuedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, fields[fieldStartedAt]); err == nil {
		job.StartedAt = &t
	}
	if t, err := time.Parse(time.RFC3339Nano, fields[fieldEndedAt]); err == nil {
		job.EndedAt = &t
	}
	return job
}
