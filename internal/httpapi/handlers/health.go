package handlers

import (
	"context"
	"net/http"
	"time"

	"renderfarm/internal/httpkit"
)

// pinger is implemented by brokers with a live backend connection.
type pinger interface {
	Ping(ctx context.Context) error
}

// Health performs a health check of the service.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	health := map[string]any{
		"status":  "ok",
		"service": "renderfarm-api",
		"version": "0.1.0",
	}

	if r.URL.Query().Get("deep") == "true" {
		checks := map[string]any{
			"broker": h.checkBroker(ctx),
		}
		health["checks"] = checks

		for _, check := range checks {
			if checkMap, ok := check.(map[string]any); ok {
				if checkMap["status"] != "ok" {
					health["status"] = "degraded"
					h.log.FromContext(ctx).Warn("health check degraded", "checks", checks)
					break
				}
			}
		}
	}

	httpkit.WriteJSON(w, 200, health)
}

func (h *Handler) checkBroker(ctx context.Context) map[string]any {
	start := time.Now()
	result := map[string]any{
		"status": "ok",
	}

	if p, ok := h.broker.(pinger); ok {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := p.Ping(checkCtx); err != nil {
			result["status"] = "error"
			result["error"] = err.Error()
		}
	}

	result["latency_ms"] = time.Since(start).Milliseconds()
	return result
}
