package export

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/video-notemaker/internal/noteerr"
	"github.com/MimeLyc/video-notemaker/internal/pipeline"
	"github.com/MimeLyc/video-notemaker/internal/textproc"
	"github.com/MimeLyc/video-notemaker/internal/video"
)

func sampleOutcome() pipeline.Outcome {
	return pipeline.Outcome{
		Ref:    video.NewRef("abc123def45", "en", video.ModeAuto),
		Status: pipeline.StatusSuccess,
		Meta: &video.Metadata{
			ID:        "abc123def45",
			Title:     "Understanding Goroutines",
			Channel:   "Go Channel",
			Duration:  754,
			ViewCount: 12345,
			Chapters: []video.Chapter{
				{Title: "Intro", Start: 0, End: 60},
				{Title: "Scheduler", Start: 60, End: 700},
			},
		},
		Transcript: &video.Transcript{
			Segments: []video.Segment{
				{Start: 0, End: 4, Text: "welcome to the talk"},
				{Start: 10, End: 14, Text: "goroutines are cheap"},
			},
			Source:   video.ModeCaptions,
			Language: "en",
		},
		Text: &textproc.Result{
			Text:     "welcome to the talk\n\ngoroutines are cheap",
			Keywords: []string{"goroutines", "scheduler"},
			Language: "en",
		},
		Notes: &pipeline.Notes{
			Summary:   "A talk about goroutines.",
			KeyPoints: []string{"goroutines are cheap", "the scheduler is preemptive"},
			Questions: []string{"what makes goroutines cheap?"},
			Sentiment: "neutral",
		},
	}
}

func TestMarkdown(t *testing.T) {
	md, err := Markdown(sampleOutcome())
	require.NoError(t, err)

	assert.Contains(t, md, "# Understanding Goroutines")
	assert.Contains(t, md, "## Summary")
	assert.Contains(t, md, "A talk about goroutines.")
	assert.Contains(t, md, "- goroutines are cheap")
	assert.Contains(t, md, "1. what makes goroutines cheap?")
	assert.Contains(t, md, "goroutines, scheduler")
	assert.Contains(t, md, "| Views | 12,345 |")
	assert.Contains(t, md, "## Chapters")
	assert.Contains(t, md, "[01:00](https://www.youtube.com/watch?v=abc123def45&t=60s) Scheduler")
	assert.Contains(t, md, "**[00:10](https://www.youtube.com/watch?v=abc123def45&t=10s)** goroutines are cheap")
}

func TestMarkdownWithoutNotes(t *testing.T) {
	outcome := sampleOutcome()
	outcome.Notes = nil
	outcome.Status = pipeline.StatusPartial

	md, err := Markdown(outcome)
	require.NoError(t, err)
	assert.NotContains(t, md, "## Summary")
	assert.Contains(t, md, "## Transcript")
}

func TestMarkdownRejectsFailedOutcome(t *testing.T) {
	outcome := pipeline.Outcome{
		Ref:    video.NewRef("abc123def45", "en", video.ModeAuto),
		Status: pipeline.StatusFailed,
		Err:    noteerr.New(noteerr.KindNoCaptions, "no captions"),
	}

	_, err := Markdown(outcome)
	require.Error(t, err)
	assert.True(t, noteerr.IsKind(err, noteerr.KindValidation))
}

func TestJSON(t *testing.T) {
	data, err := JSON(sampleOutcome())
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "abc123def45", doc.VideoID)
	assert.Equal(t, "SUCCESS", doc.Status)
	assert.Equal(t, "captions", doc.Source)
	assert.Len(t, doc.Segments, 2)
	assert.Equal(t, "A talk about goroutines.", doc.Summary)
}

func TestJSONIncludesFailure(t *testing.T) {
	outcome := pipeline.Outcome{
		Ref:    video.NewRef("abc123def45", "en", video.ModeAuto),
		Status: pipeline.StatusFailed,
		Err:    noteerr.New(noteerr.KindNoCaptions, "no caption track available"),
	}

	data, err := JSON(outcome)
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "FAILED", doc.Status)
	assert.Contains(t, doc.Error, "no caption track available")
}
