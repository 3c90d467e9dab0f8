package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"renderfarm/internal/broker"
	"renderfarm/internal/httpkit"
	"renderfarm/internal/layout"
	"renderfarm/internal/pkg/errors"
)

type SubmitJobRequest struct {
	SceneFile  string `json:"scene_file"`
	StartFrame int    `json:"start_frame"`
	EndFrame   int    `json:"end_frame"`
}

// SubmitJob validates a render request and enqueues it on the broker.
func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SubmitJobRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid json body", nil)
		return
	}

	if strings.TrimSpace(req.SceneFile) == "" {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "scene_file is required", map[string]any{"field": "scene_file"})
		return
	}
	if req.EndFrame < req.StartFrame {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "end_frame must be >= start_frame", map[string]any{"field": "end_frame"})
		return
	}

	frames := fmt.Sprintf("%d-%d", req.StartFrame, req.EndFrame)
	job, err := h.broker.Enqueue(ctx, strings.TrimSpace(req.SceneFile), frames)
	if err != nil {
		h.log.FromContext(ctx).Error("enqueue failed", "error", err.Error())
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "queue push failed", nil)
		return
	}

	httpkit.WriteJSON(w, 201, map[string]any{
		"job_id":  job.ID,
		"status":  string(job.Status),
		"message": "Job sent to render farm!",
	})
}

// GetJob returns one broker job enriched with the dynamically counted
// rendered frames.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "jobID")

	job, err := h.broker.FetchByID(ctx, jobID)
	if err != nil {
		if errors.IsNotFound(err) {
			httpkit.WriteJSON(w, 404, map[string]any{"error": "Job not found"})
			return
		}
		h.log.FromContext(ctx).Error("job fetch failed", "error", err.Error())
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "broker fetch failed", nil)
		return
	}

	httpkit.WriteJSON(w, 200, map[string]any{
		"job_id":          job.ID,
		"status":          string(job.Status),
		"scene":           job.SceneFile,
		"frames":          job.Frames,
		"result":          job.Result,
		"started_at":      timeString(job.StartedAt),
		"ended_at":        timeString(job.EndedAt),
		"rendered_frames": h.renderedFrames(job),
	})
}

type jobItem struct {
	JobID          string  `json:"job_id"`
	Status         string  `json:"status"`
	Scene          string  `json:"scene"`
	Frames         string  `json:"frames"`
	StartedAt      *string `json:"started_at"`
	EndedAt        *string `json:"ended_at"`
	RenderedFrames int     `json:"rendered_frames"`
}

// ListJobs enumerates every broker job, newest started first. Jobs that
// have not started yet sort last.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ids, err := h.broker.ListIDs(ctx)
	if err != nil {
		h.log.FromContext(ctx).Error("job listing failed", "error", err.Error())
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "broker listing failed", nil)
		return
	}

	jobs, err := h.broker.FetchMany(ctx, ids)
	if err != nil {
		h.log.FromContext(ctx).Error("job fetch failed", "error", err.Error())
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "broker fetch failed", nil)
		return
	}

	out := make([]jobItem, 0, len(jobs))
	for _, job := range jobs {
		if job == nil {
			continue
		}
		out = append(out, jobItem{
			JobID:          job.ID,
			Status:         string(job.Status),
			Scene:          job.SceneFile,
			Frames:         job.Frames,
			StartedAt:      timeString(job.StartedAt),
			EndedAt:        timeString(job.EndedAt),
			RenderedFrames: h.renderedFrames(job),
		})
	}

	// Missing started_at compares as the empty string and lands last.
	sort.Slice(out, func(i, j int) bool {
		return deref(out[i].StartedAt) > deref(out[j].StartedAt)
	})

	httpkit.WriteJSON(w, 200, map[string]any{
		"total_jobs": len(out),
		"jobs":       out,
	})
}

// DeleteJob removes the broker record and the job's filesystem artifacts.
// Deleting an unknown job is an ignored no-op, not an error.
func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "jobID")
	log := h.log.FromContext(ctx).WithJobID(jobID)

	job, err := h.broker.FetchByID(ctx, jobID)
	if err != nil {
		if errors.IsNotFound(err) {
			httpkit.WriteJSON(w, 200, map[string]any{
				"status":  "ignored",
				"message": fmt.Sprintf("Job %s does not exist", jobID),
			})
			return
		}
		log.Error("job fetch failed", "error", err.Error())
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "broker fetch failed", nil)
		return
	}

	// The broker record is the only place the scene name is recoverable,
	// so capture it before the delete.
	scene := job.SceneFile
	outputDir := job.OutputDir

	if err := h.broker.Delete(ctx, jobID); err != nil {
		log.Error("broker delete failed", "error", err.Error())
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "broker delete failed", nil)
		return
	}

	// Filesystem cleanup is best-effort once the record is gone. A crash
	// here orphans the directory.
	if scene != "" {
		if dir := h.resolveJobDir(scene, jobID, outputDir); dir != "" {
			if err := os.RemoveAll(dir); err != nil {
				log.Warn("failed to remove job directory", "dir", dir, "error", err.Error())
			}
		}
	}

	httpkit.WriteJSON(w, 200, map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Job %s deleted", jobID),
	})
}

// resolveJobDir locates a job's output directory, preferring the name the
// worker recorded on the job and falling back to the prefix scan.
func (h *Handler) resolveJobDir(scene, jobID, recorded string) string {
	root := layout.OutputRoot(h.cfg.OutputRoot(), scene)

	if recorded != "" {
		dir := filepath.Join(root, recorded)
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
	}

	dir, err := layout.FindJobDir(root, jobID)
	if err != nil {
		return ""
	}
	return dir
}

// renderedFrames counts produced frame files for a job; absence of any
// directory yields zero.
func (h *Handler) renderedFrames(job *broker.Job) int {
	if job.OutputDir != "" {
		dir := filepath.Join(layout.OutputRoot(h.cfg.OutputRoot(), job.SceneFile), job.OutputDir)
		if frames, err := layout.Frames(dir); err == nil && len(frames) > 0 {
			return len(frames)
		}
	}
	return layout.FrameCount(h.cfg.OutputRoot(), job.SceneFile, job.ID)
}

func timeString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
