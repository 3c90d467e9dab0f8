package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func corsHandler(origins []string) http.Handler {
	return CORS(CORSOptions{AllowedOrigins: origins})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)
}

func TestCORSAllowedOrigin(t *testing.T) {
	handler := corsHandler([]string{"http://localhost:5173"})

	req := httptest.NewRequest("GET", "/jobs/", nil)
	req.Header.Set("Origin", "http://localhost:5173")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("expected origin echoed back, got %q", got)
	}
}

func TestCORSWildcard(t *testing.T) {
	handler := corsHandler([]string{"*"})

	req := httptest.NewRequest("GET", "/jobs/", nil)
	req.Header.Set("Origin", "http://example.com")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Errorf("expected wildcard to allow any origin, got %q", got)
	}
}

func TestCORSDisallowedOrigin(t *testing.T) {
	handler := corsHandler([]string{"http://localhost:5173"})

	req := httptest.NewRequest("GET", "/jobs/", nil)
	req.Header.Set("Origin", "http://evil.example")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS headers for disallowed origin, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := corsHandler([]string{"*"})

	req := httptest.NewRequest("OPTIONS", "/jobs/submit", nil)
	req.Header.Set("Origin", "http://localhost:5173")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("expected allowed methods on preflight response")
	}
}
