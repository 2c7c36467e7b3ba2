package video

import (
	"fmt"
	"path"
	"strings"

	"github.com/fhuszti/videos-ms-go/internal/uuid"
)

// SourceKey is where an uploaded file is stored before transcoding.
func SourceKey(roomID, videoID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("uploads/%s/%s%s", roomID, videoID, ext)
}

// PlaylistKey is the HLS master playlist written by the transcoder. Segments
// are uploaded next to it.
func PlaylistKey(videoID uuid.UUID) string {
	return path.Join("hls", videoID.String(), "playlist.m3u8")
}
