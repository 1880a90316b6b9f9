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

// TranscribeService produces a transcript from the audio track: yt-dlp
// downloads the audio, then the whisper CLI transcribes it to JSON.
type TranscribeService struct {
	runner  CmdRunner
	ytdlp   string
	whisper string
	workDir string
}

func NewTranscribeService(runner CmdRunner, workDir string) *TranscribeService {
	return &TranscribeService{
		runner:  runner,
		ytdlp:   "yt-dlp",
		whisper: "whisper",
		workDir: workDir,
	}
}

func (s *TranscribeService) Transcribe(ctx context.Context, ref video.Ref, modelSize string) (*video.Transcript, error) {
	dir, err := os.MkdirTemp(s.workDir, "notemaker-audio-*")
	if err != nil {
		return nil, noteerr.Wrap(err, noteerr.KindExtraction, "failed to create audio work directory")
	}
	defer os.RemoveAll(dir)

	audioPath, err := s.downloadAudio(ctx, ref.ID, dir)
	if err != nil {
		return nil, err
	}
	log.Info("transcribing audio for %s with whisper model %s", ref.ID, modelSize)

	return s.runWhisper(ctx, ref, audioPath, dir, modelSize)
}

func (s *TranscribeService) downloadAudio(ctx context.Context, videoID, dir string) (string, error) {
	_, err := s.runner.Run(ctx, s.ytdlp,
		"-x",
		"--audio-format", "best",
		"--audio-quality", "0",
		"-o", filepath.Join(dir, "%(id)s.%(ext)s"),
		video.WatchURL(videoID),
	)
	if err != nil {
		return "", classifyRunError(ctx, err, videoID)
	}

	path, err := findAudioFile(dir, videoID)
	if err != nil {
		return "", noteerr.Wrap(err, noteerr.KindExtraction, "audio download produced no file").
			WithContext("video", videoID)
	}
	return path, nil
}

func (s *TranscribeService) runWhisper(ctx context.Context, ref video.Ref, audioPath, dir, modelSize string) (*video.Transcript, error) {
	args := []string{
		audioPath,
		"--model", modelSize,
		"--output_format", "json",
		"--output_dir", dir,
		"--temperature", "0",
	}
	if ref.Language != "" && ref.Language != "auto" {
		args = append(args, "--language", ref.Language)
	}

	if _, err := s.runner.Run(ctx, s.whisper, args...); err != nil {
		return nil, classifyWhisperError(ctx, err, ref.ID, modelSize)
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(dir, base+".json")
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, noteerr.Wrap(err, noteerr.KindExtraction, "failed to read whisper output").
			WithContext("video", ref.ID)
	}

	transcript, err := parseWhisperJSON(data)
	if err != nil {
		return nil, noteerr.Wrap(err, noteerr.KindExtraction, "failed to parse whisper output").
			WithContext("video", ref.ID)
	}
	return transcript, nil
}

// classifyWhisperError maps whisper CLI failures onto the error taxonomy,
// keeping an actionable message for the common failure modes.
func classifyWhisperError(ctx context.Context, err error, videoID, modelSize string) error {
	if ctx.Err() != nil {
		return classifyRunError(ctx, err, videoID)
	}

	msg := err.Error()
	switch {
	case containsAny(msg, "not enough memory", "OutOfMemoryError", "CUDA out of memory"):
		return noteerr.Wrap(err, noteerr.KindResourceExhausted,
			"insufficient memory for whisper model, try a smaller one (tiny, base, small)").
			WithContext("video", videoID).
			WithContext("model", modelSize)
	case containsAny(msg, "executable file not found", "No module named"):
		return noteerr.Wrap(err, noteerr.KindExtraction,
			"whisper is not installed (pip install openai-whisper)").
			WithContext("video", videoID)
	case containsAny(msg, "Could not load model", "Invalid model"):
		return noteerr.Wrap(err, noteerr.KindExtraction, "failed to load whisper model").
			WithContext("video", videoID).
			WithContext("model", modelSize)
	case containsAny(msg, "Invalid language"):
		return noteerr.Wrap(err, noteerr.KindValidation, "unsupported transcription language").
			WithContext("video", videoID)
	default:
		return noteerr.Wrap(err, noteerr.KindExtraction, "whisper transcription failed").
			WithContext("video", videoID).
			WithContext("model", modelSize)
	}
}

// findAudioFile scans the work directory for the downloaded audio track.
func findAudioFile(dir, videoID string) (string, error) {
	extensions := []string{".m4a", ".mp3", ".webm", ".ogg", ".wav", ".opus"}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, videoID+".") {
			continue
		}
		for _, ext := range extensions {
			if filepath.Ext(name) == ext {
				return filepath.Join(dir, name), nil
			}
		}
	}
	return "", os.ErrNotExist
}

// whisperResult mirrors the JSON document whisper writes with
// --output_format json.
type whisperResult struct {
	Language string           `json:"language"`
	Segments []whisperSegment `json:"segments"`
}

type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func parseWhisperJSON(data []byte) (*video.Transcript, error) {
	var result whisperResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	transcript := &video.Transcript{Language: result.Language}
	for _, seg := range result.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		transcript.Segments = append(transcript.Segments, video.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  text,
		})
	}
	return transcript, nil
}
