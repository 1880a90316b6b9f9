// Package ai generates the note-taking layer on top of a transcript:
// summaries, key points, review questions, and sentiment. Two providers
// are available, an OpenAI-compatible endpoint and the Gemini API.
package ai

import (
	"context"
	"strings"
)

// Sentiment labels returned by AnalyzeSentiment.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
	SentimentMixed    = "mixed"
)

// Summarizer produces structured notes from transcript text.
type Summarizer interface {
	// Summarize returns a markdown summary of the transcript.
	Summarize(ctx context.Context, title, text string) (string, error)
	// ExtractKeyPoints returns the main takeaways, most important first.
	ExtractKeyPoints(ctx context.Context, text string) ([]string, error)
	// GenerateQuestions returns review questions a viewer should be able
	// to answer after watching.
	GenerateQuestions(ctx context.Context, text string) ([]string, error)
	// AnalyzeSentiment classifies the overall tone of the content.
	AnalyzeSentiment(ctx context.Context, text string) (string, error)
}

// parseListResponse extracts list items from a model response that may
// use numbered ("1. ..."), bulleted ("- ...", "* ..."), or bare lines.
func parseListResponse(response string) []string {
	var items []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimLeft(line, "-*• \t")
		if i := strings.IndexAny(line, ".)"); i > 0 && i <= 3 && isDigits(line[:i]) {
			line = strings.TrimSpace(line[i+1:])
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		items = append(items, line)
	}
	return items
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// normalizeSentiment collapses a free-form model answer onto one of the
// sentiment labels, defaulting to neutral.
func normalizeSentiment(response string) string {
	answer := strings.ToLower(strings.TrimSpace(response))
	for _, label := range []string{SentimentPositive, SentimentNegative, SentimentMixed, SentimentNeutral} {
		if strings.Contains(answer, label) {
			return label
		}
	}
	return SentimentNeutral
}
