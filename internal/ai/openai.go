package ai

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Summarizer is the LLM surface used by digests, the summarize command and
// source autofill.
type Summarizer interface {
	// Summarize condenses an article in the given mode.
	Summarize(ctx context.Context, mode Mode, title, url, text string) (string, error)
	// GenerateTags returns comma separated, normalized tags for a feed.
	GenerateTags(ctx context.Context, in TagInput) (string, error)
	// Model names the model; it is part of the summary cache key.
	Model() string
}

// OpenAIClient implements Summarizer against any OpenAI-compatible chat
// endpoint (OpenAI, Ollama's /v1, LM Studio).
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

type Config struct {
	APIKey      string
	Model       string
	BaseURL     string // optional
	Temperature float32
	Timeout     time.Duration // per call; 0 means 120s
}

func NewOpenAI(cfg Config) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("ai: model must be specified")
	}
	var c *openai.Client
	if cfg.BaseURL != "" {
		cc := openai.DefaultConfig(cfg.APIKey)
		cc.BaseURL = cfg.BaseURL
		c = openai.NewClientWithConfig(cc)
	} else {
		c = openai.NewClient(cfg.APIKey)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OpenAIClient{client: c, model: cfg.Model, temperature: cfg.Temperature, timeout: timeout}, nil
}

func (o *OpenAIClient) Model() string { return o.model }

func (o *OpenAIClient) Summarize(ctx context.Context, mode Mode, title, url, text string) (string, error) {
	out, err := o.create(ctx, summaryPrompt(mode, title, url, text))
	if err != nil {
		slog.Error("openai: summarize error", "mode", mode, "url", url, "err", err)
		return "", err
	}
	return out, nil
}

func (o *OpenAIClient) GenerateTags(ctx context.Context, in TagInput) (string, error) {
	out, err := o.create(ctx, tagPrompt(in))
	if err != nil {
		slog.Error("openai: tag generation error", "feed", in.FeedTitle, "err", err)
		return "", err
	}
	return strings.Join(NormalizeTags(out), ","), nil
}

func (o *OpenAIClient) create(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: o.temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return StripThinking(resp.Choices[0].Message.Content), nil
}

var thinkBlock = regexp.MustCompile(`(?is)<think>.*?</think>`)

// StripThinking removes <think>...</think> reasoning blocks that some local
// models emit before the answer, and trims the result.
func StripThinking(s string) string {
	s = thinkBlock.ReplaceAllString(s, "")
	// an unterminated block swallows the rest
	if i := strings.Index(strings.ToLower(s), "<think>"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
