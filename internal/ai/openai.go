package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MimeLyc/video-notemaker/internal/llm"
	"github.com/MimeLyc/video-notemaker/internal/noteerr"
)

// OpenAIProvider implements Summarizer against any OpenAI-compatible
// chat completion endpoint.
type OpenAIProvider struct {
	client *llm.Client
}

func NewOpenAIProvider(cfg *llm.Config) (*OpenAIProvider, error) {
	client, err := llm.NewClient(cfg)
	if err != nil {
		return nil, noteerr.Wrap(err, noteerr.KindConfig, "invalid LLM configuration")
	}
	return &OpenAIProvider{client: client}, nil
}

func (p *OpenAIProvider) Summarize(ctx context.Context, title, text string) (string, error) {
	prompt := fmt.Sprintf(summaryPrompt, title, truncateTranscript(text))
	response, err := p.chat(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}

func (p *OpenAIProvider) ExtractKeyPoints(ctx context.Context, text string) ([]string, error) {
	prompt := fmt.Sprintf(keyPointsPrompt, defaultKeyPointCount, truncateTranscript(text))
	response, err := p.chat(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseListResponse(response), nil
}

func (p *OpenAIProvider) GenerateQuestions(ctx context.Context, text string) ([]string, error) {
	prompt := fmt.Sprintf(questionsPrompt, defaultQuestionCount, truncateTranscript(text))
	response, err := p.chat(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseListResponse(response), nil
}

func (p *OpenAIProvider) AnalyzeSentiment(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(sentimentPrompt, truncateTranscript(text))
	response, err := p.chat(ctx, prompt)
	if err != nil {
		return "", err
	}
	return normalizeSentiment(response), nil
}

func (p *OpenAIProvider) chat(ctx context.Context, prompt string) (string, error) {
	response, err := p.client.SimpleChat(ctx, prompt, systemPrompt)
	if err != nil {
		return "", classifyProviderError(err)
	}
	return response, nil
}

// classifyProviderError maps transport and API failures onto the error
// taxonomy. Rate limiting and quota exhaustion get their own kind so
// batch runs can back off instead of retrying blindly.
func classifyProviderError(err error) error {
	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests:
			return noteerr.Wrap(err, noteerr.KindQuotaExceeded, "provider rate limit exceeded")
		case statusErr.StatusCode == http.StatusPaymentRequired:
			return noteerr.Wrap(err, noteerr.KindQuotaExceeded, "provider quota exhausted")
		case statusErr.StatusCode >= 500:
			return noteerr.Wrap(err, noteerr.KindProvider, "provider unavailable")
		default:
			return noteerr.Wrap(err, noteerr.KindProvider, "provider request rejected")
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return noteerr.Wrap(err, noteerr.KindTimeout, "provider request timed out")
	}
	if errors.Is(err, context.Canceled) {
		return noteerr.Wrap(err, noteerr.KindCancelled, "provider request cancelled")
	}
	msg := err.Error()
	if strings.Contains(msg, "quota") || strings.Contains(msg, "insufficient_quota") {
		return noteerr.Wrap(err, noteerr.KindQuotaExceeded, "provider quota exhausted")
	}
	return noteerr.Wrap(err, noteerr.KindProvider, "provider request failed")
}
