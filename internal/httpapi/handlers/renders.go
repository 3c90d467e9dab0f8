package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"renderfarm/internal/httpkit"
	"renderfarm/internal/layout"
)

// GetLog returns the current contents of a job's render log. Artifacts
// appear asynchronously, so every missing stage is a "pending" response
// rather than an error.
func (h *Handler) GetLog(w http.ResponseWriter, r *http.Request) {
	sceneName := chi.URLParam(r, "sceneName")
	jobID := chi.URLParam(r, "jobID")

	sceneDir := layout.OutputRoot(h.cfg.OutputRoot(), sceneName)
	if _, err := os.Stat(sceneDir); err != nil {
		httpkit.WriteJSON(w, 200, map[string]any{
			"log":    fmt.Sprintf("Scene dir does not exist: %s", sceneDir),
			"status": "pending",
		})
		return
	}

	jobDir, err := layout.FindJobDir(sceneDir, jobID)
	if err != nil {
		httpkit.WriteJSON(w, 200, map[string]any{
			"log":    "Waiting for render to start...",
			"status": "pending",
		})
		return
	}

	logPath := layout.LogPath(jobDir)
	if _, err := os.Stat(logPath); err != nil {
		httpkit.WriteJSON(w, 200, map[string]any{
			"log":    "Log file initializing...",
			"status": "pending",
		})
		return
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		httpkit.WriteJSON(w, 200, map[string]any{
			"log":    fmt.Sprintf("Error reading log: %s", err),
			"status": "error",
		})
		return
	}

	httpkit.WriteJSON(w, 200, map[string]any{
		"log":    string(content),
		"status": "success",
	})
}

// GetFrames lists a job's rendered frames as publicly addressable URLs,
// sorted so URL order equals frame order.
func (h *Handler) GetFrames(w http.ResponseWriter, r *http.Request) {
	sceneName := chi.URLParam(r, "sceneName")
	jobID := chi.URLParam(r, "jobID")

	stem := layout.SceneStem(sceneName)
	sceneDir := layout.OutputRoot(h.cfg.OutputRoot(), sceneName)
	if _, err := os.Stat(sceneDir); err != nil {
		httpkit.WriteJSON(w, 200, map[string]any{
			"frames":  []string{},
			"message": fmt.Sprintf("Scene Dir not found: %s", sceneDir),
		})
		return
	}

	jobDir, err := layout.FindJobDir(sceneDir, jobID)
	if err != nil {
		httpkit.WriteJSON(w, 200, map[string]any{
			"frames":  []string{},
			"message": fmt.Sprintf("Job ID Dir not found: %s", jobID),
		})
		return
	}

	frames, err := layout.Frames(jobDir)
	if err != nil {
		httpkit.WriteJSON(w, 200, map[string]any{
			"frames":  []string{},
			"message": fmt.Sprintf("Error listing frames: %s", err),
		})
		return
	}

	folder := filepath.Base(jobDir)
	urls := make([]string, 0, len(frames))
	for _, f := range frames {
		urls = append(urls, fmt.Sprintf("%s/outputs/%s/%s/%s", h.cfg.PublicBaseURL, stem, folder, f))
	}

	httpkit.WriteJSON(w, 200, map[string]any{
		"scene":  stem,
		"folder": folder,
		"frames": urls,
		"total":  len(urls),
	})
}
