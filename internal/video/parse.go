package video

import (
	"fmt"
	"regexp"
)

var (
	videoIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/shorts/|youtube\.com/v/)([a-zA-Z0-9_-]{11})`),
		regexp.MustCompile(`youtube\.com/watch\?.*v=([a-zA-Z0-9_-]{11})`),
	}
	bareVideoID = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

	playlistIDPattern = regexp.MustCompile(`[?&]list=([a-zA-Z0-9_-]+)`)
)

// ExtractVideoID pulls the 11-character video ID out of the usual URL
// shapes (watch, youtu.be, embed, shorts). A bare ID is accepted as-is.
func ExtractVideoID(raw string) (string, bool) {
	if bareVideoID.MatchString(raw) {
		return raw, true
	}
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(raw); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// ExtractPlaylistID pulls the playlist ID out of playlist and
// watch?v=...&list=... URLs.
func ExtractPlaylistID(raw string) (string, bool) {
	if m := playlistIDPattern.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	return "", false
}

// WatchURL builds the canonical watch URL for a video ID.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// TimestampURL builds a watch URL that starts playback at the given offset.
func TimestampURL(id string, offset float64) string {
	return fmt.Sprintf("%s&t=%ds", WatchURL(id), int(offset))
}

// FormatTimestamp renders seconds as HH:MM:SS, or MM:SS when the offset is
// under an hour and includeHours is false.
func FormatTimestamp(seconds float64, includeHours bool) string {
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if includeHours || hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}
