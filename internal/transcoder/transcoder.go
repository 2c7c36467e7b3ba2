package transcoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/logger"
	"github.com/fhuszti/videos-ms-go/internal/port"
	"github.com/fhuszti/videos-ms-go/internal/uuid"
)

// maxOutput bounds the diagnostic text kept from a failed run. The tail is
// kept since encoders print the fatal error last.
const maxOutput = 800

// Error is returned when the transcoder could not be launched or exited non-zero.
type Error struct {
	ExitCode int
	Output   string
	Err      error
}

func (e *Error) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("transcoder exited with code %d: %v", e.ExitCode, e.Err)
	}
	return fmt.Sprintf("transcoder exited with code %d: %v: %s", e.ExitCode, e.Err, e.Output)
}

func (e *Error) Unwrap() error { return e.Err }

// Process runs the transcoder as a child process. It only ever receives the two
// signed URLs and the video id, never storage credentials.
type Process struct {
	Command string
	Args    []string
	// Env is appended to the worker's own environment.
	Env []string
}

// compile-time check: *Process must satisfy port.Transcoder
var _ port.Transcoder = (*Process)(nil)

func NewProcess(command string, args []string) *Process {
	return &Process{Command: command, Args: args}
}

// Transcode blocks until the process exits or ctx is done, in which case the
// process is killed.
func (p *Process) Transcode(ctx context.Context, downloadURL, uploadURL string, videoID uuid.UUID) error {
	args := append(append([]string{}, p.Args...),
		"--download-url", downloadURL,
		"--upload-url", uploadURL,
		"--video-id", videoID.String(),
	)

	cmd := exec.CommandContext(ctx, p.Command, args...)
	// stop waiting on inherited pipes once the process is killed
	cmd.WaitDelay = time.Second
	if len(p.Env) > 0 {
		cmd.Env = append(os.Environ(), p.Env...)
	}

	logger.Debugf(ctx, "launching transcoder %q", p.Command)
	out, err := runCommand(cmd)
	if err == nil {
		return nil
	}

	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = fmt.Errorf("%w (%v)", ctxErr, err)
	}
	return &Error{ExitCode: code, Output: out, Err: err}
}

func runCommand(cmd *exec.Cmd) (string, error) {
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	out := strings.TrimSpace(buf.String())
	return tail(out, maxOutput), err
}

func tail(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
