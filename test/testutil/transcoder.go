package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/fhuszti/videos-ms-go/internal/transcoder"
	"github.com/fhuszti/videos-ms-go/internal/uuid"
)

const Playlist = "#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:4\n#EXTINF:4.0,\nsegment0.ts\n#EXT-X-ENDLIST\n"

// FakeTranscoder stands in for the external HLS process: it fetches the
// source through the signed GET URL and uploads a playlist through the signed
// PUT URL. The first FailTimes calls exit with status 1 instead.
type FakeTranscoder struct {
	FailTimes int
	// Block makes every call wait for ctx, as a hung process would.
	Block bool

	mu      sync.Mutex
	calls   int
	sources map[uuid.UUID]string
}

func (f *FakeTranscoder) Transcode(ctx context.Context, downloadURL, uploadURL string, videoID uuid.UUID) error {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()

	if f.Block {
		<-ctx.Done()
		return &transcoder.Error{ExitCode: -1, Output: "killed", Err: ctx.Err()}
	}
	if call <= f.FailTimes {
		return &transcoder.Error{ExitCode: 1, Output: "ffmpeg: invalid data found when processing input", Err: errors.New("exit status 1")}
	}

	src, err := httpDo(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return fmt.Errorf("download source: %w", err)
	}
	if _, err := httpDo(ctx, http.MethodPut, uploadURL, strings.NewReader(Playlist)); err != nil {
		return fmt.Errorf("upload playlist: %w", err)
	}

	f.mu.Lock()
	if f.sources == nil {
		f.sources = map[uuid.UUID]string{}
	}
	f.sources[videoID] = src
	f.mu.Unlock()
	return nil
}

func (f *FakeTranscoder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Source returns what the transcoder downloaded for videoID.
func (f *FakeTranscoder) Source(videoID uuid.UUID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sources[videoID]
}

func httpDo(ctx context.Context, method, url string, body io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%s %s: status %d: %s", method, url, resp.StatusCode, raw)
	}
	return string(raw), nil
}

// GenerateVideo returns size bytes that start like an MP4 file.
func GenerateVideo(size int) []byte {
	header := []byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm'}
	out := make([]byte, max(size, len(header)))
	copy(out, header)
	for i := len(header); i < len(out); i++ {
		out[i] = byte(i % 251)
	}
	return out
}
