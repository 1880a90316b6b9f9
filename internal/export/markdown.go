// Package export renders pipeline outcomes into shareable formats.
package export

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/MimeLyc/video-notemaker/internal/noteerr"
	"github.com/MimeLyc/video-notemaker/internal/pipeline"
	"github.com/MimeLyc/video-notemaker/internal/video"
)

// Markdown renders a complete notes document for one outcome. The
// outcome must carry a transcript; FAILED outcomes are rejected.
func Markdown(outcome pipeline.Outcome) (string, error) {
	if outcome.Transcript == nil {
		return "", noteerr.New(noteerr.KindValidation, "outcome has no transcript to export").
			WithContext("video", outcome.Ref.ID)
	}

	var sb strings.Builder
	meta := outcome.Meta

	title := outcome.Ref.ID
	if meta != nil && meta.Title != "" {
		title = meta.Title
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)

	if meta != nil {
		writeMetadataTable(&sb, meta)
	}

	if notes := outcome.Notes; notes != nil {
		if notes.Summary != "" {
			sb.WriteString("## Summary\n\n")
			sb.WriteString(strings.TrimSpace(notes.Summary))
			sb.WriteString("\n\n")
		}
		if len(notes.KeyPoints) > 0 {
			sb.WriteString("## Key Points\n\n")
			for _, point := range notes.KeyPoints {
				fmt.Fprintf(&sb, "- %s\n", point)
			}
			sb.WriteString("\n")
		}
		if len(notes.Questions) > 0 {
			sb.WriteString("## Review Questions\n\n")
			for i, question := range notes.Questions {
				fmt.Fprintf(&sb, "%d. %s\n", i+1, question)
			}
			sb.WriteString("\n")
		}
	}

	if text := outcome.Text; text != nil && len(text.Keywords) > 0 {
		sb.WriteString("## Keywords\n\n")
		sb.WriteString(strings.Join(text.Keywords, ", "))
		sb.WriteString("\n\n")
	}

	if meta != nil && len(meta.Chapters) > 0 {
		sb.WriteString("## Chapters\n\n")
		for _, ch := range meta.Chapters {
			stamp := video.FormatTimestamp(ch.Start, longForm(outcome))
			fmt.Fprintf(&sb, "- [%s](%s) %s\n", stamp, video.TimestampURL(outcome.Ref.ID, ch.Start), ch.Title)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Transcript\n\n")
	for _, seg := range outcome.Transcript.Segments {
		stamp := video.FormatTimestamp(seg.Start, longForm(outcome))
		fmt.Fprintf(&sb, "**[%s](%s)** %s\n\n", stamp, video.TimestampURL(outcome.Ref.ID, seg.Start), seg.Text)
	}

	return sb.String(), nil
}

func writeMetadataTable(sb *strings.Builder, meta *video.Metadata) {
	sb.WriteString("| | |\n|---|---|\n")
	if meta.Channel != "" {
		fmt.Fprintf(sb, "| Channel | %s |\n", meta.Channel)
	}
	if !meta.PublishedAt.IsZero() {
		fmt.Fprintf(sb, "| Published | %s |\n", meta.PublishedAt.Format("2006-01-02"))
	}
	if meta.Duration > 0 {
		fmt.Fprintf(sb, "| Duration | %s |\n", video.FormatTimestamp(meta.Duration, meta.Duration >= 3600))
	}
	if meta.ViewCount > 0 {
		fmt.Fprintf(sb, "| Views | %s |\n", humanize.Comma(meta.ViewCount))
	}
	if len(meta.Tags) > 0 {
		fmt.Fprintf(sb, "| Tags | %s |\n", strings.Join(meta.Tags, ", "))
	}
	fmt.Fprintf(sb, "| Link | %s |\n", video.WatchURL(meta.ID))
	sb.WriteString("\n")
}

// longForm reports whether timestamps need an hours component.
func longForm(outcome pipeline.Outcome) bool {
	if outcome.Meta != nil && outcome.Meta.Duration >= 3600 {
		return true
	}
	segments := outcome.Transcript.Segments
	return len(segments) > 0 && segments[len(segments)-1].End >= 3600
}
