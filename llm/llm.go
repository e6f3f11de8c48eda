package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
)

const (
	DefaultModel     = "gpt-4o"
	DefaultMaxTokens = 8000
)

var ErrEmptyResponse = errors.New("language model returned no content")

// Client completes a single prompt.
type Client interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

type Option func(o *OpenAI)

func WithBaseURL(url string) Option {
	return func(o *OpenAI) {
		o.baseURL = url
	}
}

func WithModel(model string) Option {
	return func(o *OpenAI) {
		o.model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *OpenAI) {
		o.maxTokens = n
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *OpenAI) {
		o.logger = logger
	}
}

// WithMaxRetries sets the transport retry budget, 2 by default.
func WithMaxRetries(n int) Option {
	return func(o *OpenAI) {
		o.retries = n
	}
}

// OpenAI talks to any endpoint serving the OpenAI chat completions API.
type OpenAI struct {
	client    openai.Client
	baseURL   string
	model     string
	maxTokens int
	retries   int
	logger    zerolog.Logger
}

func NewOpenAI(apiKey string, opts ...Option) *OpenAI {
	o := &OpenAI{
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
		retries:   2,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(o.retries),
	}
	if o.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.baseURL))
	}
	o.client = openai.NewClient(reqOpts...)
	return o
}

func (o *OpenAI) Complete(ctx context.Context, system, prompt string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(o.model),
		Messages:  messages,
		MaxTokens: openai.Int(int64(o.maxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	content := resp.Choices[0].Message.Content
	o.logger.Debug().Str("model", o.model).Int("chars", len(content)).Msg("llm response")
	return content, nil
}
