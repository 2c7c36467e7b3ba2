package transcoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	msuuid "github.com/fhuszti/videos-ms-go/internal/uuid"
	"github.com/google/uuid"
)

var videoID = msuuid.UUID(uuid.MustParse("aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee"))

// helper returns a Process that re-executes the test binary as the transcoder.
func helper(mode string) *Process {
	return &Process{
		Command: os.Args[0],
		Args:    []string{"-test.run=TestHelperProcess", "--"},
		Env:     []string{"GO_WANT_HELPER_PROCESS=1", "HELPER_MODE=" + mode},
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) > 0 {
		args = args[1:]
	}

	switch os.Getenv("HELPER_MODE") {
	case "ok":
		want := []string{"--download-url", "http://src", "--upload-url", "http://dst", "--video-id", videoID.String()}
		if strings.Join(args, " ") != strings.Join(want, " ") {
			fmt.Fprintf(os.Stderr, "unexpected args %q", args)
			os.Exit(3)
		}
		fmt.Println("encoded 3 renditions")
		os.Exit(0)
	case "fail":
		fmt.Println("downloading source")
		fmt.Fprintln(os.Stderr, "ffmpeg: invalid data found when processing input")
		os.Exit(1)
	case "noisy":
		fmt.Fprint(os.Stderr, strings.Repeat("x", 2000)+"THE END")
		os.Exit(2)
	case "hang":
		time.Sleep(time.Minute)
		os.Exit(0)
	}
	os.Exit(4)
}

func TestTranscode_Success(t *testing.T) {
	err := helper("ok").Transcode(context.Background(), "http://src", "http://dst", videoID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTranscode_NonZeroExit(t *testing.T) {
	err := helper("fail").Transcode(context.Background(), "http://src", "http://dst", videoID)

	var tErr *Error
	if !errors.As(err, &tErr) {
		t.Fatalf("expected *Error, got %T (%v)", err, err)
	}
	if tErr.ExitCode != 1 {
		t.Errorf("ExitCode = %d; want 1", tErr.ExitCode)
	}
	if !strings.Contains(tErr.Output, "invalid data found") || !strings.Contains(tErr.Output, "downloading source") {
		t.Errorf("Output does not carry the diagnostics: %q", tErr.Output)
	}
}

func TestTranscode_OutputIsBounded(t *testing.T) {
	err := helper("noisy").Transcode(context.Background(), "http://src", "http://dst", videoID)

	var tErr *Error
	if !errors.As(err, &tErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if tErr.ExitCode != 2 {
		t.Errorf("ExitCode = %d; want 2", tErr.ExitCode)
	}
	if len(tErr.Output) > maxOutput+3 {
		t.Errorf("Output length = %d; want at most %d", len(tErr.Output), maxOutput+3)
	}
	if !strings.HasSuffix(tErr.Output, "THE END") {
		t.Errorf("expected the tail of the output to be kept, got %q", tErr.Output[len(tErr.Output)-20:])
	}
}

func TestTranscode_LaunchFailure(t *testing.T) {
	p := NewProcess("/nonexistent/transcoder-binary", nil)
	err := p.Transcode(context.Background(), "http://src", "http://dst", videoID)

	var tErr *Error
	if !errors.As(err, &tErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if tErr.ExitCode != -1 {
		t.Errorf("ExitCode = %d; want -1", tErr.ExitCode)
	}
}

func TestTranscode_KilledOnDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := helper("hang").Transcode(ctx, "http://src", "http://dst", videoID)
	if time.Since(start) > 10*time.Second {
		t.Fatalf("process was not killed on deadline")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v; want deadline exceeded", err)
	}
}

func TestTail(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"abcdefghij", 4, "...ghij"},
		{"anything", 0, "anything"},
	}
	for _, tc := range tests {
		if got := tail(tc.in, tc.max); got != tc.want {
			t.Errorf("tail(%q, %d) = %q; want %q", tc.in, tc.max, got, tc.want)
		}
	}
}
