// Package layout owns the on-disk shape of render output. Every job renders
// into exactly one directory under a scene-named root:
//
//	<output-root>/<scene-stem>/<jobID>__<timestamp>/{render.log, frame.NNNN.png, ...}
//
// The job id prefix on the directory name is what links a broker job back to
// its artifacts, so job ids must never be prefixes of one another.
package layout

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"renderfarm/internal/pkg/errors"
)

const (
	// LogFileName is the per-job render log inside the job directory.
	LogFileName = "render.log"

	// FrameTemplate is the renderer's output naming template. The four
	// placeholder digits force zero padding, which keeps lexicographic
	// filename order equal to frame order up to frame 9999.
	FrameTemplate = "frame.####"

	// blendExt is the renderer scene extension stripped to form the stem.
	blendExt = ".blend"

	// dirTimeFormat is filesystem-safe: underscores only.
	dirTimeFormat = "2006_01_02__15_04_05"

	frameGlob = "*.png"

	nameSep = "__"
)

// SceneStem strips the renderer extension from a scene file name.
func SceneStem(sceneFile string) string {
	return strings.TrimSuffix(sceneFile, blendExt)
}

// OutputRoot returns the per-scene output directory under base.
func OutputRoot(base, sceneFile string) string {
	return filepath.Join(base, SceneStem(sceneFile))
}

// CreateJobDir creates the job's output directory under outputRoot and
// returns its path. Idempotent: if a directory for the job already exists it
// is returned instead of creating a second one.
func CreateJobDir(outputRoot, jobID string) (string, error) {
	if err := os.MkdirAll(outputRoot, 0o777); err != nil {
		return "", errors.Wrap(err, "layout.create", "failed to create scene output root")
	}

	if existing, err := FindJobDir(outputRoot, jobID); err == nil {
		return existing, nil
	}

	dir := filepath.Join(outputRoot, jobID+nameSep+time.Now().Format(dirTimeFormat))
	if err := os.MkdirAll(dir, 0o777); err != nil {
		return "", errors.Wrap(err, "layout.create", "failed to create job directory")
	}
	return dir, nil
}

// FindJobDir returns the first immediate child of outputRoot whose name is
// prefixed by jobID. A missing root and a missing match both report NotFound.
func FindJobDir(outputRoot, jobID string) (string, error) {
	entries, err := os.ReadDir(outputRoot)
	if err != nil {
		return "", errors.NotFound("scene output root", outputRoot)
	}

	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), jobID) {
			return filepath.Join(outputRoot, e.Name()), nil
		}
	}
	return "", errors.NotFound("job directory", jobID)
}

// Frames lists rendered frame file names in jobDir, lexicographically sorted.
// With the zero-padded FrameTemplate this equals frame order.
func Frames(jobDir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(jobDir, frameGlob))
	if err != nil {
		return nil, errors.Wrap(err, "layout.frames", "frame glob failed")
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	sort.Strings(names)
	return names, nil
}

// FrameCount counts rendered frames for a job. A missing directory is not an
// error: artifacts appear asynchronously, so absence just means zero.
func FrameCount(outputBase, sceneFile, jobID string) int {
	if sceneFile == "" {
		return 0
	}

	dir, err := FindJobDir(OutputRoot(outputBase, sceneFile), jobID)
	if err != nil {
		return 0
	}

	frames, err := Frames(dir)
	if err != nil {
		return 0
	}
	return len(frames)
}

// LogPath returns the render log path inside a job directory.
func LogPath(jobDir string) string {
	return filepath.Join(jobDir, LogFileName)
}

// FrameOutputPattern is the -o argument handed to the renderer.
func FrameOutputPattern(jobDir string) string {
	return filepath.Join(jobDir, FrameTemplate)
}
