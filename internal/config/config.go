// Package config loads the render farm configuration from the environment.
// A .env file in the working directory is honored when present.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the settings shared by the api and worker processes.
type Config struct {
	// HTTPPort is the port the api listens on.
	HTTPPort string
	// RedisAddr is the address of the Redis broker.
	RedisAddr string
	// QueueName is the Redis list holding pending job ids.
	QueueName string
	// DataRoot is the shared filesystem root. Scene files live directly
	// under it; rendered output goes to <DataRoot>/output.
	DataRoot string
	// RenderBin is the renderer binary invoked by the worker.
	RenderBin string
	// PublicBaseURL is the base used when composing frame URLs.
	PublicBaseURL string
	// CORSAllowedOrigins lists origins allowed by the api.
	CORSAllowedOrigins []string
	// LogLevel and LogFormat configure the structured logger.
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, loading .env first if one
// exists next to the process.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPPort:           Env("HTTP_PORT", "8000"),
		RedisAddr:          Env("REDIS_ADDR", "localhost:6379"),
		QueueName:          Env("RENDER_QUEUE_NAME", "render:queue"),
		DataRoot:           Env("RENDER_DATA_ROOT", "/render_data"),
		RenderBin:          Env("RENDER_BIN", "blender"),
		PublicBaseURL:      Env("PUBLIC_BASE_URL", "http://localhost:8000"),
		CORSAllowedOrigins: EnvCSV("CORS_ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:           Env("LOG_LEVEL", "info"),
		LogFormat:          Env("LOG_FORMAT", "json"),
	}
}

// OutputRoot is the directory all per-scene output trees live under.
func (c Config) OutputRoot() string {
	return filepath.Join(c.DataRoot, "output")
}

// ScenePath resolves a scene file name to its path on the shared filesystem.
func (c Config) ScenePath(sceneFile string) string {
	return filepath.Join(c.DataRoot, sceneFile)
}

// Env gets an environment variable with a default value.
func Env(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

// MustEnv gets a required environment variable or panics.
func MustEnv(k string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}

// EnvCSV reads a comma-separated env var into a slice.
func EnvCSV(k string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(k))
	if raw == "" {
		return def
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
