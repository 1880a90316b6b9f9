package video

import (
	"fmt"
	"strings"
	"time"
)

// Mode identifies how a transcript is (or should be) obtained.
type Mode string

const (
	// ModeAuto lets the extraction strategy pick: captions first, audio
	// transcription as fallback.
	ModeAuto Mode = "auto"
	// ModeCaptions pins extraction to uploader/auto-generated captions.
	ModeCaptions Mode = "captions"
	// ModeAudio pins extraction to full speech-to-text transcription.
	ModeAudio Mode = "audio"
)

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "captions", "subs", "subtitles":
		return ModeCaptions, nil
	case "audio", "whisper", "transcribe":
		return ModeAudio, nil
	default:
		return ModeAuto, fmt.Errorf("unknown extraction mode %q", s)
	}
}

// Ref identifies one video to process. Immutable once constructed.
type Ref struct {
	// ID is the 11-character video identifier.
	ID string
	// Language is the requested transcript language ("" = auto-detect).
	Language string
	// Mode is the preferred extraction mode.
	Mode Mode
}

// NewRef builds a reference with an empty mode normalized to ModeAuto.
func NewRef(id, language string, mode Mode) Ref {
	if mode == "" {
		mode = ModeAuto
	}
	return Ref{ID: id, Language: language, Mode: mode}
}

func (r Ref) String() string {
	if r.Language == "" {
		return r.ID
	}
	return r.ID + " (" + r.Language + ")"
}

// Segment is one timed transcript line. Start and End are offsets from the
// beginning of the media, in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type Chapter struct {
	Title string  `json:"title"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Metadata is the resolved description of a video.
type Metadata struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Channel     string    `json:"channel"`
	ChannelID   string    `json:"channel_id,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	// Duration covers the full media length in seconds.
	Duration    float64   `json:"duration"`
	ViewCount   int64     `json:"view_count"`
	LikeCount   int64     `json:"like_count"`
	Description string    `json:"description,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Chapters    []Chapter `json:"chapters,omitempty"`
}

// Transcript is the result of one extraction: ordered segments plus the
// metadata of the video they belong to.
type Transcript struct {
	Segments []Segment `json:"segments"`
	// Source records which extraction method produced the segments
	// (ModeCaptions or ModeAudio).
	Source   Mode     `json:"source"`
	Language string   `json:"language"`
	Meta     Metadata `json:"metadata"`
}

// FullText joins all segment texts with single spaces.
func (t *Transcript) FullText() string {
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		text := strings.TrimSpace(seg.Text)
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// Validate checks the segment ordering invariant: strictly increasing start
// offsets with no overlap between consecutive segments.
func (t *Transcript) Validate() error {
	for i, seg := range t.Segments {
		if seg.End < seg.Start {
			return fmt.Errorf("segment %d: end %.3f before start %.3f", i, seg.End, seg.Start)
		}
		if i == 0 {
			continue
		}
		prev := t.Segments[i-1]
		if seg.Start <= prev.Start {
			return fmt.Errorf("segment %d: start %.3f not after previous start %.3f", i, seg.Start, prev.Start)
		}
		if seg.Start < prev.End {
			return fmt.Errorf("segment %d: overlaps previous segment ending at %.3f", i, prev.End)
		}
	}
	return nil
}
