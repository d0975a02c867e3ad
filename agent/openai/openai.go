package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	oai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/canonmap/canonmap/agent"
)

const defaultMaxTokens = 2048

var (
	// ErrInvalidOption indicates a bad [Option] value passed to [New].
	ErrInvalidOption = errors.New("invalid option")
	// ErrEmptyCompletion indicates a response with no choices.
	ErrEmptyCompletion = errors.New("empty completion")
)

// Client calls the OpenAI chat completions API. It implements
// [agent.Oracle].
type Client struct {
	client    oai.Client
	apiKey    string
	model     string
	maxTokens int64
}

var _ agent.Oracle = (*Client)(nil)

// Option configures a [Client] created by [New].
type Option func(*Client)

// WithModel sets the chat model, e.g. "gpt-4o-mini". Required.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithAPIKey sets the API key. When empty the SDK falls back to the
// OPENAI_API_KEY environment variable.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithMaxTokens bounds the completion length. Defaults to 2048.
func WithMaxTokens(n int64) Option {
	return func(c *Client) {
		c.maxTokens = n
	}
}

// New creates a new [Client] with the given options.
func New(opts ...Option) (*Client, error) {
	c := &Client{maxTokens: defaultMaxTokens}

	for _, opt := range opts {
		opt(c)
	}

	if c.model == "" {
		return nil, fmt.Errorf("%w: model must not be empty", ErrInvalidOption)
	}

	if c.maxTokens <= 0 {
		return nil, fmt.Errorf("%w: max tokens must be positive, got %d", ErrInvalidOption, c.maxTokens)
	}

	var reqOpts []option.RequestOption
	if c.apiKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(c.apiKey))
	}

	c.client = oai.NewClient(reqOpts...)

	return c, nil
}

// Model returns the configured chat model.
func (c *Client) Model() string {
	return c.model
}

// Complete sends the prompt as a single user message and returns the
// model's reply. Temperature is pinned to zero so repeated calls over
// the same payload produce stable specs.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: oai.ChatModel(c.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.UserMessage(prompt),
		},
		MaxCompletionTokens: oai.Int(c.maxTokens),
		Temperature:         oai.Float(0),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
