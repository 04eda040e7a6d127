package extraction

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"moodcast/internal/config"
	"moodcast/internal/logging"
	"moodcast/internal/retry"
)

// systemPrompt pins the model to the versioned payload contract.
const systemPrompt = `You analyze personal journal entries and extract recurring mood patterns.
Respond with a single JSON object, no prose, matching exactly this shape:
{
  "schemaVersion": 1,
  "occupationType": "office" | "student" | "shift" | "freelance" | "remote" | "retired" | "unknown",
  "significantDates": [{"monthDay": "MM-DD", "description": "...", "moodImpact": -3.0 to 3.0, "confidence": 0.0 to 1.0}],
  "weekdayPatterns": [{"dayName": "Monday" through "Sunday", "description": "...", "moodImpact": -3.0 to 3.0, "confidence": 0.0 to 1.0}],
  "emotionalTriggers": [{"keywords": ["..."], "description": "...", "moodImpact": -3.0 to 3.0, "confidence": 0.0 to 1.0}]
}
Omit arrays you found nothing for. Report only patterns supported by repeated evidence across entries.`

// Provider produces a raw completion for an extraction prompt.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAIProvider calls a chat-completions style endpoint. Requests are
// paced by a client-side limiter and retried on transient failures.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
	retry   *retry.Config
	logger  logging.Logger
}

// NewOpenAIProvider builds a provider from the extraction configuration.
func NewOpenAIProvider(cfg config.ExtractionConfig, logger logging.Logger) *OpenAIProvider {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	rpm := cfg.RateLimitRPM
	if rpm <= 0 {
		rpm = 30
	}

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		retry:   retry.ExponentialBackoff(3),
		logger:  logger,
	}
}

// Complete sends the prompt and returns the model's raw reply content.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var content string
	err := retry.RetryWithConfig(ctx, p.retry, func(ctx context.Context) error {
		resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: p.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0.2,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			p.logger.WarnContext(ctx, "Extraction completion call failed", "error", err)
			return classifyCompletionError(err)
		}
		if len(resp.Choices) == 0 {
			return &retry.PermanentError{Err: errors.New("completion response has no choices")}
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

// classifyCompletionError decides retryability. Rate limits and server-side
// failures are transient; client-side rejections are not.
func classifyCompletionError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &retry.PermanentError{Err: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500 {
			return &retry.TemporaryError{Err: err}
		}
		return &retry.PermanentError{Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500 {
			return &retry.TemporaryError{Err: err}
		}
		return &retry.PermanentError{Err: err}
	}

	// Transport-level failures (timeouts, refused connections) retry.
	return &retry.TemporaryError{Err: err}
}

// StaticProvider returns a canned response. Tests use it in place of a
// live endpoint.
type StaticProvider struct {
	Response string
	Err      error
	Prompts  []string
}

// Complete records the prompt and returns the canned response.
func (p *StaticProvider) Complete(ctx context.Context, prompt string) (string, error) {
	p.Prompts = append(p.Prompts, prompt)
	if p.Err != nil {
		return "", p.Err
	}
	return p.Response, nil
}
