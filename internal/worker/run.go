// Package worker runs the render execution loop: dequeue one job id at a
// time from the broker, execute the renderer synchronously, report the
// terminal state. One worker handles one job at a time; scale out by running
// more worker processes against the same broker.
package worker

import (
	"context"
	"time"

	"renderfarm/internal/pkg/logger"
	"renderfarm/internal/worker/render"
)

func Run(ctx context.Context, d Deps) error {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("worker")

	executor := render.New(render.Deps{
		DataRoot:   d.Cfg.DataRoot,
		OutputBase: d.Cfg.OutputRoot(),
		Bin:        d.Cfg.RenderBin,
		Recorder:   d.Broker,
		Log:        log,
	})

	for {
		select {
		case <-ctx.Done():
			log.Info("worker context canceled, stopping")
			return ctx.Err()
		default:
		}

		// Bound each blocking pop so shutdown is never stuck behind it.
		popCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		jobID, err := d.Broker.Dequeue(popCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				log.Info("worker stopping due to context cancellation")
				return ctx.Err()
			}

			log.Warn("queue pop error, retrying",
				"error", err.Error(),
			)
			time.Sleep(1 * time.Second)
			continue
		}

		if jobID == "" {
			continue
		}

		jobCtx := logger.ContextWithJobID(ctx, jobID)
		jobLog := log.WithJobID(jobID)

		jobLog.Info("processing job")
		startTime := time.Now()

		if err := processJob(jobCtx, d, executor, jobID); err != nil {
			jobLog.Error("job failed",
				"error", err.Error(),
				"duration_ms", time.Since(startTime).Milliseconds(),
			)
		} else {
			jobLog.Info("job completed",
				"duration_ms", time.Since(startTime).Milliseconds(),
			)
		}
	}
}

// processJob executes one dequeued job end to end. The render itself never
// errors; only broker bookkeeping failures surface here.
func processJob(ctx context.Context, d Deps, executor *render.Executor, jobID string) error {
	job, err := d.Broker.FetchByID(ctx, jobID)
	if err != nil {
		// Deleted between enqueue and dequeue; nothing to do.
		return err
	}

	if err := d.Broker.MarkStarted(ctx, jobID); err != nil {
		return err
	}

	outcome := executor.Render(ctx, job.ID, job.SceneFile, job.Frames)

	if outcome.OK {
		return d.Broker.Complete(ctx, jobID, outcome.ResultText())
	}
	return d.Broker.Fail(ctx, jobID, outcome.ResultText())
}
