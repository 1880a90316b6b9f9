package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "watch url", input: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ", ok: true},
		{name: "short url", input: "https://youtu.be/dQw4w9WgXcQ", want: "dQw4w9WgXcQ", ok: true},
		{name: "embed url", input: "https://www.youtube.com/embed/dQw4w9WgXcQ", want: "dQw4w9WgXcQ", ok: true},
		{name: "shorts url", input: "https://www.youtube.com/shorts/dQw4w9WgXcQ", want: "dQw4w9WgXcQ", ok: true},
		{name: "watch with extra params", input: "https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ", ok: true},
		{name: "watch with list", input: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL123abc", want: "dQw4w9WgXcQ", ok: true},
		{name: "bare id", input: "dQw4w9WgXcQ", want: "dQw4w9WgXcQ", ok: true},
		{name: "not a video", input: "https://example.com/watch?v=nope", ok: false},
		{name: "too short id", input: "https://youtu.be/short", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractVideoID(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestExtractPlaylistID(t *testing.T) {
	id, ok := ExtractPlaylistID("https://www.youtube.com/playlist?list=PLx0sYbCqOb8TBPRdmBHs5Iftvv9TPboYG")
	require.True(t, ok)
	assert.Equal(t, "PLx0sYbCqOb8TBPRdmBHs5Iftvv9TPboYG", id)

	id, ok = ExtractPlaylistID("https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL123abc")
	require.True(t, ok)
	assert.Equal(t, "PL123abc", id)

	_, ok = ExtractPlaylistID("https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	assert.False(t, ok)
}

func TestParseMode(t *testing.T) {
	for input, want := range map[string]Mode{
		"":           ModeAuto,
		"auto":       ModeAuto,
		"captions":   ModeCaptions,
		"Subtitles":  ModeCaptions,
		"audio":      ModeAudio,
		"transcribe": ModeAudio,
	} {
		got, err := ParseMode(input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, want, got, "input %q", input)
	}

	_, err := ParseMode("telepathy")
	assert.Error(t, err)
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "00:05", FormatTimestamp(5.4, false))
	assert.Equal(t, "01:05", FormatTimestamp(65, false))
	assert.Equal(t, "00:01:05", FormatTimestamp(65, true))
	assert.Equal(t, "01:01:05", FormatTimestamp(3665, false))
}

func TestTimestampURL(t *testing.T) {
	assert.Equal(t,
		"https://www.youtube.com/watch?v=abc123def45&t=75s",
		TimestampURL("abc123def45", 75.8))
}

func TestTranscriptValidate(t *testing.T) {
	ok := &Transcript{Segments: []Segment{
		{Start: 0, End: 2, Text: "a"},
		{Start: 2, End: 4.5, Text: "b"},
		{Start: 6, End: 7, Text: "c"},
	}}
	require.NoError(t, ok.Validate())

	overlapping := &Transcript{Segments: []Segment{
		{Start: 0, End: 3, Text: "a"},
		{Start: 2, End: 4, Text: "b"},
	}}
	assert.Error(t, overlapping.Validate())

	notIncreasing := &Transcript{Segments: []Segment{
		{Start: 5, End: 6, Text: "a"},
		{Start: 5, End: 7, Text: "b"},
	}}
	assert.Error(t, notIncreasing.Validate())

	inverted := &Transcript{Segments: []Segment{
		{Start: 3, End: 1, Text: "a"},
	}}
	assert.Error(t, inverted.Validate())
}

func TestTranscriptFullText(t *testing.T) {
	tr := &Transcript{Segments: []Segment{
		{Start: 0, End: 1, Text: " hello "},
		{Start: 1, End: 2, Text: ""},
		{Start: 2, End: 3, Text: "world"},
	}}
	assert.Equal(t, "hello world", tr.FullText())
}
