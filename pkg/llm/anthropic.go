package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements Provider for the Anthropic messages API.
type AnthropicProvider struct {
	client     anthropic.Client
	clientOpts []option.RequestOption
	model      string
	maxTokens  int64
}

// AnthropicOption configures the AnthropicProvider.
type AnthropicOption func(*AnthropicProvider)

// WithAnthropicModel sets the default model.
func WithAnthropicModel(model string) AnthropicOption {
	return func(p *AnthropicProvider) {
		p.model = model
	}
}

// WithAnthropicMaxTokens sets the maximum tokens for responses.
func WithAnthropicMaxTokens(tokens int64) AnthropicOption {
	return func(p *AnthropicProvider) {
		p.maxTokens = tokens
	}
}

// WithAnthropicBaseURL sets a custom base URL.
func WithAnthropicBaseURL(url string) AnthropicOption {
	return func(p *AnthropicProvider) {
		p.clientOpts = append(p.clientOpts, option.WithBaseURL(url))
	}
}

// NewAnthropic creates an Anthropic provider with an explicit API key.
func NewAnthropic(apiKey string, opts ...AnthropicOption) *AnthropicProvider {
	p := &AnthropicProvider{
		clientOpts: []option.RequestOption{option.WithAPIKey(apiKey)},
		model:      "claude-3-sonnet-20240229",
		maxTokens:  1024,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.client = anthropic.NewClient(p.clientOpts...)
	return p
}

// Chat implements Provider.
func (p *AnthropicProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	maxTokens := p.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}

	var systemPrompt string
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			systemPrompt = msg.Content
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Type: "text", Text: systemPrompt},
		}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic message failed: %w", err)
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return &ChatResponse{
		Content: text,
		Usage: Usage{
			PromptTokens:     int(message.Usage.InputTokens),
			CompletionTokens: int(message.Usage.OutputTokens),
			TotalTokens:      int(message.Usage.InputTokens + message.Usage.OutputTokens),
		},
	}, nil
}

// Ensure AnthropicProvider implements Provider.
var _ Provider = (*AnthropicProvider)(nil)
