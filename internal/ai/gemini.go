package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/MimeLyc/video-notemaker/internal/noteerr"
	"github.com/MimeLyc/video-notemaker/pkg/log"
)

// GeminiProvider implements Summarizer against the Gemini API. Multiple
// API keys can be supplied; the provider rotates to the next key when
// the current one is rate limited.
type GeminiProvider struct {
	apiKeys []string
	model   string

	mu         sync.Mutex
	currentKey int
}

func NewGeminiProvider(apiKeys []string, model string) (*GeminiProvider, error) {
	if len(apiKeys) == 0 {
		return nil, noteerr.New(noteerr.KindConfig, "at least one Gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiProvider{apiKeys: apiKeys, model: model}, nil
}

func (p *GeminiProvider) Summarize(ctx context.Context, title, text string) (string, error) {
	prompt := fmt.Sprintf(summaryPrompt, title, truncateTranscript(text))
	response, err := p.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}

func (p *GeminiProvider) ExtractKeyPoints(ctx context.Context, text string) ([]string, error) {
	prompt := fmt.Sprintf(keyPointsPrompt, defaultKeyPointCount, truncateTranscript(text))
	response, err := p.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseListResponse(response), nil
}

func (p *GeminiProvider) GenerateQuestions(ctx context.Context, text string) ([]string, error) {
	prompt := fmt.Sprintf(questionsPrompt, defaultQuestionCount, truncateTranscript(text))
	response, err := p.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseListResponse(response), nil
}

func (p *GeminiProvider) AnalyzeSentiment(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(sentimentPrompt, truncateTranscript(text))
	response, err := p.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return normalizeSentiment(response), nil
}

// generate calls Gemini, rotating API keys on rate limit errors until
// every key has been tried once.
func (p *GeminiProvider) generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < len(p.apiKeys); attempt++ {
		key, index := p.nextKey()

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			lastErr = err
			continue
		}

		result, err := client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), nil)
		if err != nil {
			if isQuotaError(err) {
				log.Warn("Gemini key %d rate limited, rotating", index+1)
				lastErr = err
				continue
			}
			if ctx.Err() != nil {
				return "", noteerr.Wrap(err, noteerr.KindCancelled, "Gemini request cancelled")
			}
			return "", noteerr.Wrap(err, noteerr.KindProvider, "Gemini request failed")
		}

		text := responseText(result)
		if text == "" {
			return "", noteerr.New(noteerr.KindProvider, "empty response from Gemini")
		}
		return text, nil
	}

	return "", noteerr.Wrap(lastErr, noteerr.KindQuotaExceeded, "all Gemini API keys exhausted")
}

func (p *GeminiProvider) nextKey() (string, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	index := p.currentKey
	p.currentKey = (p.currentKey + 1) % len(p.apiKeys)
	return p.apiKeys[index], index
}

func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func responseText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
