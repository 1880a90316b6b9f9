package export

import (
	"encoding/json"
	"time"

	"github.com/MimeLyc/video-notemaker/internal/noteerr"
	"github.com/MimeLyc/video-notemaker/internal/pipeline"
	"github.com/MimeLyc/video-notemaker/internal/video"
)

// Document is the machine-readable export of one outcome.
type Document struct {
	VideoID    string           `json:"video_id"`
	Status     string           `json:"status"`
	Meta       *video.Metadata  `json:"metadata,omitempty"`
	Summary    string           `json:"summary,omitempty"`
	KeyPoints  []string         `json:"key_points,omitempty"`
	Questions  []string         `json:"questions,omitempty"`
	Sentiment  string           `json:"sentiment,omitempty"`
	Keywords   []string         `json:"keywords,omitempty"`
	Language   string           `json:"language,omitempty"`
	Source     string           `json:"transcript_source,omitempty"`
	Paragraphs []string         `json:"paragraphs,omitempty"`
	Segments   []video.Segment  `json:"segments,omitempty"`
	CacheHit   bool             `json:"cache_hit"`
	Error      string           `json:"error,omitempty"`
	ExportedAt time.Time        `json:"exported_at"`
}

// JSON renders an outcome as an indented JSON document. Unlike Markdown
// it accepts FAILED outcomes so batch reports can include them.
func JSON(outcome pipeline.Outcome) ([]byte, error) {
	doc := Document{
		VideoID:    outcome.Ref.ID,
		Status:     string(outcome.Status),
		Meta:       outcome.Meta,
		CacheHit:   outcome.CacheHit,
		ExportedAt: time.Now().UTC(),
	}
	if outcome.Err != nil {
		doc.Error = outcome.Err.Error()
	}
	if notes := outcome.Notes; notes != nil {
		doc.Summary = notes.Summary
		doc.KeyPoints = notes.KeyPoints
		doc.Questions = notes.Questions
		doc.Sentiment = notes.Sentiment
	}
	if text := outcome.Text; text != nil {
		doc.Keywords = text.Keywords
		doc.Language = text.Language
		doc.Paragraphs = text.Paragraphs
	}
	if transcript := outcome.Transcript; transcript != nil {
		doc.Source = string(transcript.Source)
		doc.Segments = transcript.Segments
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, noteerr.Wrap(err, noteerr.KindValidation, "failed to encode outcome")
	}
	return data, nil
}
