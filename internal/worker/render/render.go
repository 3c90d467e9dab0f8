// Package render executes one render job against the external renderer
// binary. It owns the subprocess invocation, the line-by-line log capture
// into render.log, and the typed outcome reported back to the broker.
package render

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"renderfarm/internal/layout"
	"renderfarm/internal/pkg/errors"
	"renderfarm/internal/pkg/logger"
)

// Result texts stored on the broker job.
const (
	resultSuccess    = "RENDER_SUCCESS"
	resultFailPrefix = "RENDER_FAILED: "
)

// Outcome is the typed result of one render execution. Failure reasons are
// carried explicitly instead of being sniffed out of a result string.
type Outcome struct {
	OK     bool
	Frames int
	Reason string
}

// ResultText is the text persisted on the broker job record.
func (o Outcome) ResultText() string {
	if o.OK {
		return resultSuccess
	}
	return o.Reason
}

func failure(reason string) Outcome {
	return Outcome{Reason: reason}
}

// DirRecorder records the job-id to output-directory association at
// directory creation time.
type DirRecorder interface {
	SetOutputDir(ctx context.Context, id, dir string) error
}

type Deps struct {
	// DataRoot is the shared filesystem root holding scene files.
	DataRoot string
	// OutputBase is the root all scene output trees live under.
	OutputBase string
	// Bin is the renderer binary.
	Bin string
	// Recorder persists the job directory name; usually the broker.
	Recorder DirRecorder
	// Echo receives renderer output lines in addition to the log file.
	// Defaults to the worker's stdout.
	Echo io.Writer
	Log  *logger.Logger
}

type Executor struct {
	dataRoot   string
	outputBase string
	bin        string
	recorder   DirRecorder
	echo       io.Writer
	log        *logger.Logger
}

func New(d Deps) *Executor {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	echo := d.Echo
	if echo == nil {
		echo = os.Stdout
	}
	return &Executor{
		dataRoot:   d.DataRoot,
		outputBase: d.OutputBase,
		bin:        d.Bin,
		recorder:   d.Recorder,
		echo:       echo,
		log:        log.WithComponent("render"),
	}
}

// Render runs the renderer for one job, blocking until the subprocess exits.
// It never returns an error: every failure mode is folded into the Outcome.
func (e *Executor) Render(ctx context.Context, jobID, sceneFile, frames string) Outcome {
	log := e.log.WithJobID(jobID).WithScene(sceneFile)
	log.Info("starting render", "frames", frames)

	start, end, ok := strings.Cut(frames, "-")
	if !ok {
		return failure(fmt.Sprintf("%sinvalid frame range %q", resultFailPrefix, frames))
	}

	scenePath := filepath.Join(e.dataRoot, sceneFile)
	if _, err := os.Stat(scenePath); err != nil {
		log.Error("scene file missing", "path", scenePath)
		return failure(fmt.Sprintf("ERROR: %s not found", scenePath))
	}

	outputRoot := layout.OutputRoot(e.outputBase, sceneFile)
	jobDir, err := layout.CreateJobDir(outputRoot, jobID)
	if err != nil {
		log.Error("failed to create job directory", "error", err.Error())
		return failure(resultFailPrefix + err.Error())
	}

	if e.recorder != nil {
		if err := e.recorder.SetOutputDir(ctx, jobID, filepath.Base(jobDir)); err != nil {
			// The prefix scan still finds the directory; keep going.
			log.Warn("failed to record output directory", "error", err.Error())
		}
	}

	logFile, err := os.Create(layout.LogPath(jobDir))
	if err != nil {
		log.Error("failed to create render log", "error", err.Error())
		return failure(resultFailPrefix + err.Error())
	}
	defer logFile.Close()

	cmd := exec.CommandContext(ctx, e.bin,
		"-b", scenePath,
		"-o", layout.FrameOutputPattern(jobDir),
		"-s", start,
		"-e", end,
		"-a",
		"--log", "*",
	)

	// One pipe carries stdout and stderr combined so the log preserves
	// the order the renderer emitted lines in.
	pr, pw, err := os.Pipe()
	if err != nil {
		return failure(resultFailPrefix + err.Error())
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		log.Error("failed to spawn renderer", "error", err.Error())
		return failure(resultFailPrefix + err.Error())
	}
	// The child holds its own copy of the write end.
	pw.Close()

	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		fmt.Fprintln(e.echo, line)
		// os.File writes are unbuffered, so a tailer sees each line
		// as soon as it lands.
		fmt.Fprintln(logFile, line)
	}
	pr.Close()

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			log.Error("render failed", "return_code", exitErr.ExitCode())
			return failure(fmt.Sprintf("%sReturn code: %d", resultFailPrefix, exitErr.ExitCode()))
		}
		log.Error("render failed", "error", err.Error())
		return failure(resultFailPrefix + err.Error())
	}

	rendered, err := layout.Frames(jobDir)
	if err != nil {
		rendered = nil
	}

	log.Info("render completed", "frames_rendered", len(rendered))
	return Outcome{OK: true, Frames: len(rendered)}
}
