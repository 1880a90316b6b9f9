// Package ytdlp implements the external collaborators of the pipeline by
// shelling out to yt-dlp and whisper. Every service takes a CmdRunner so
// tests can substitute canned output for real binaries.
package ytdlp

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/MimeLyc/video-notemaker/internal/noteerr"
)

// CmdRunner executes an external command and returns its stdout.
type CmdRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func NewCmdRunner() CmdRunner {
	return &execRunner{}
}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return out, &runError{name: name, stderr: stderr.String(), cause: err}
	}
	return out, nil
}

// runError keeps the command's stderr available for error classification.
type runError struct {
	name   string
	stderr string
	cause  error
}

func (e *runError) Error() string {
	msg := e.name + " failed: " + e.cause.Error()
	if e.stderr != "" {
		msg += ": " + strings.TrimSpace(e.stderr)
	}
	return msg
}

func (e *runError) Unwrap() error {
	return e.cause
}

// classifyRunError maps command failures onto the error taxonomy using the
// captured stderr and the context state.
func classifyRunError(ctx context.Context, err error, videoID string) error {
	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return noteerr.Wrap(err, noteerr.KindTimeout, "command timed out").WithContext("video", videoID)
		}
		return noteerr.Wrap(err, noteerr.KindCancelled, "command cancelled").WithContext("video", videoID)
	}

	msg := err.Error()
	switch {
	case containsAny(msg, "Video unavailable", "Private video", "This video is not available", "has been removed"):
		return noteerr.Wrap(err, noteerr.KindNotFound, "video unavailable").WithContext("video", videoID)
	case containsAny(msg, "executable file not found", "command not found"):
		return noteerr.Wrap(err, noteerr.KindExtraction, "required binary is not installed").WithContext("video", videoID)
	case containsAny(msg, "429", "rate-limit", "Too Many Requests"):
		return noteerr.Wrap(err, noteerr.KindNetwork, "rate limited").WithContext("video", videoID)
	case containsAny(msg, "timed out", "timeout", "Temporary failure", "Connection reset", "unable to download"):
		return noteerr.Wrap(err, noteerr.KindNetwork, "network failure").WithContext("video", videoID)
	default:
		return noteerr.Wrap(err, noteerr.KindNetwork, "command failed").WithContext("video", videoID)
	}
}

func containsAny(s string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
