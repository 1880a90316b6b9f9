package ai

const systemPrompt = `You are an expert note-taker for video content. You work from transcripts and produce concise, accurate notes. Never invent facts that are not in the transcript.`

const summaryPrompt = `Write a detailed summary of the following video transcript.

Requirements:
- Start with a one-sentence overview of the topic
- Cover all major points in the order they appear
- Use markdown: headings, bullet points, bold for key terms
- Keep technical terms exactly as spoken

Video title: %s

Transcript:
---
%s
---`

const keyPointsPrompt = `List the %d most important takeaways from the following video transcript. Return one takeaway per line as a numbered list, most important first. No preamble, no closing remarks.

Transcript:
---
%s
---`

const questionsPrompt = `Write %d review questions a viewer should be able to answer after watching the video with the following transcript. Return one question per line as a numbered list. No preamble.

Transcript:
---
%s
---`

const sentimentPrompt = `Classify the overall tone of the following video transcript as exactly one word: positive, neutral, negative, or mixed. Reply with only that word.

Transcript:
---
%s
---`

const (
	defaultKeyPointCount = 7
	defaultQuestionCount = 5

	// maxTranscriptChars bounds the prompt size for very long videos.
	maxTranscriptChars = 48_000
)

// truncateTranscript cuts very long transcripts at a word boundary so
// prompts stay within provider context limits.
func truncateTranscript(text string) string {
	if len(text) <= maxTranscriptChars {
		return text
	}
	cut := text[:maxTranscriptChars]
	if i := lastSpace(cut); i > 0 {
		cut = cut[:i]
	}
	return cut + " ..."
}

func lastSpace(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ' ' {
			return i
		}
	}
	return -1
}
