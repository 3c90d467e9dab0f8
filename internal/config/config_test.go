package config

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.HTTPPort != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.HTTPPort)
	}
	if cfg.QueueName != "render:queue" {
		t.Errorf("expected default queue name, got %s", cfg.QueueName)
	}
	if cfg.RenderBin != "blender" {
		t.Errorf("expected default renderer binary, got %s", cfg.RenderBin)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("RENDER_DATA_ROOT", "/mnt/farm")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example")

	cfg := Load()

	if cfg.HTTPPort != "9000" {
		t.Errorf("expected port override, got %s", cfg.HTTPPort)
	}
	if cfg.DataRoot != "/mnt/farm" {
		t.Errorf("expected data root override, got %s", cfg.DataRoot)
	}
	want := []string{"http://a.example", "http://b.example"}
	if !reflect.DeepEqual(cfg.CORSAllowedOrigins, want) {
		t.Errorf("expected %v, got %v", want, cfg.CORSAllowedOrigins)
	}
}

func TestPaths(t *testing.T) {
	cfg := Config{DataRoot: "/render_data"}

	if got := cfg.OutputRoot(); got != filepath.Join("/render_data", "output") {
		t.Errorf("unexpected output root: %s", got)
	}
	if got := cfg.ScenePath("cube.blend"); got != filepath.Join("/render_data", "cube.blend") {
		t.Errorf("unexpected scene path: %s", got)
	}
}

func TestEnvCSV(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{"unset uses default", "", []string{"*"}},
		{"single value", "http://x", []string{"http://x"}},
		{"trims and drops empties", " http://x ,, http://y ", []string{"http://x", "http://y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("TEST_CSV", tt.value)
			}
			got := EnvCSV("TEST_CSV", []string{"*"})
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("EnvCSV(%q)=%v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
