package ytdlp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/MimeLyc/video-notemaker/internal/noteerr"
	"github.com/MimeLyc/video-notemaker/internal/video"
	"github.com/MimeLyc/video-notemaker/pkg/log"
)

// CaptionService fetches manually uploaded or auto-generated captions
// through yt-dlp's subtitle download in json3 format.
type CaptionService struct {
	runner  CmdRunner
	binary  string
	workDir string
}

func NewCaptionService(runner CmdRunner, workDir string) *CaptionService {
	return &CaptionService{runner: runner, binary: "yt-dlp", workDir: workDir}
}

// Fetch downloads captions for the referenced video. It prefers manual
// subtitles and falls back to auto-generated ones in the same invocation.
// A video without any subtitle track returns KindNoCaptions.
func (s *CaptionService) Fetch(ctx context.Context, ref video.Ref) (*video.Transcript, error) {
	dir, err := os.MkdirTemp(s.workDir, "notemaker-subs-*")
	if err != nil {
		return nil, noteerr.Wrap(err, noteerr.KindExtraction, "failed to create caption work directory")
	}
	defer os.RemoveAll(dir)

	lang := ref.Language
	if lang == "" {
		lang = "en"
	}

	_, err = s.runner.Run(ctx, s.binary,
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-format", "json3",
		"--sub-langs", lang+",-live_chat",
		"-o", filepath.Join(dir, "%(id)s"),
		video.WatchURL(ref.ID),
	)
	if err != nil {
		return nil, classifyRunError(ctx, err, ref.ID)
	}

	path, err := findSubtitleFile(dir, ref.ID)
	if err != nil {
		return nil, noteerr.Wrap(err, noteerr.KindNoCaptions, "no caption track available").
			WithContext("video", ref.ID).
			WithContext("language", lang)
	}
	log.Debug("downloaded caption track: %s", filepath.Base(path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, noteerr.Wrap(err, noteerr.KindExtraction, "failed to read caption file").
			WithContext("video", ref.ID)
	}

	segments, err := parseJSON3(data)
	if err != nil {
		return nil, noteerr.Wrap(err, noteerr.KindExtraction, "failed to parse caption track").
			WithContext("video", ref.ID)
	}
	if len(segments) == 0 {
		return nil, noteerr.New(noteerr.KindNoCaptions, "caption track is empty").
			WithContext("video", ref.ID)
	}

	return &video.Transcript{
		Segments: segments,
		Language: languageFromSubtitlePath(path, lang),
	}, nil
}

// findSubtitleFile locates the json3 file yt-dlp wrote for the video.
// yt-dlp names subtitle files "<id>.<lang>.json3".
func findSubtitleFile(dir, videoID string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, videoID+".") && strings.HasSuffix(name, ".json3") {
			return filepath.Join(dir, name), nil
		}
	}
	return "", os.ErrNotExist
}

// languageFromSubtitlePath extracts the language tag embedded in the
// subtitle filename, falling back to the requested language.
func languageFromSubtitlePath(path, fallback string) string {
	base := filepath.Base(path)
	parts := strings.Split(base, ".")
	if len(parts) >= 3 {
		// Strip auto-caption suffixes like "en-orig".
		return strings.SplitN(parts[len(parts)-2], "-", 2)[0]
	}
	return fallback
}

// json3Doc mirrors YouTube's json3 timedtext format.
type json3Doc struct {
	Events []json3Event `json:"events"`
}

type json3Event struct {
	StartMs    int64      `json:"tStartMs"`
	DurationMs int64      `json:"dDurationMs"`
	Segs       []json3Seg `json:"segs"`
}

type json3Seg struct {
	UTF8 string `json:"utf8"`
}

// parseJSON3 converts a json3 timedtext document into ordered segments.
// Events without renderable text (window definitions, newlines) are
// skipped, and overlapping auto-caption events are clamped so the result
// passes transcript validation.
func parseJSON3(data []byte) ([]video.Segment, error) {
	var doc json3Doc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	var segments []video.Segment
	for _, ev := range doc.Events {
		var sb strings.Builder
		for _, seg := range ev.Segs {
			sb.WriteString(seg.UTF8)
		}
		text := strings.TrimSpace(strings.ReplaceAll(sb.String(), "\n", " "))
		if text == "" {
			continue
		}

		start := float64(ev.StartMs) / 1000
		end := start + float64(ev.DurationMs)/1000
		if n := len(segments); n > 0 {
			prev := &segments[n-1]
			if start <= prev.Start {
				// Duplicate-timestamp event, usually a rollup of the
				// previous auto-caption line. Merge instead of dropping.
				prev.Text += " " + text
				if end > prev.End {
					prev.End = end
				}
				continue
			}
			if prev.End > start {
				prev.End = start
			}
		}
		segments = append(segments, video.Segment{Start: start, End: end, Text: text})
	}
	return segments, nil
}
