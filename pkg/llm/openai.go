package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider implements Provider for the OpenAI chat completions API.
type OpenAIProvider struct {
	client     openai.Client
	clientOpts []option.RequestOption
	model      string
}

// OpenAIOption configures the OpenAIProvider.
type OpenAIOption func(*OpenAIProvider)

// WithOpenAIModel sets the default model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.model = model
	}
}

// WithOpenAIBaseURL sets a custom base URL (for Azure OpenAI or proxies).
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.clientOpts = append(p.clientOpts, option.WithBaseURL(url))
	}
}

// NewOpenAI creates an OpenAI provider with an explicit API key.
func NewOpenAI(apiKey string, opts ...OpenAIOption) *OpenAIProvider {
	p := &OpenAIProvider{
		clientOpts: []option.RequestOption{option.WithAPIKey(apiKey)},
		model:      "gpt-4",
	}
	for _, opt := range opts {
		opt(p)
	}
	p.client = openai.NewClient(p.clientOpts...)
	return p
}

// Chat implements Provider.
func (p *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: messages,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion failed: %w", err)
	}

	resp := &ChatResponse{
		Usage: Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}
	if len(completion.Choices) > 0 {
		resp.Content = completion.Choices[0].Message.Content
	}
	return resp, nil
}

// Ensure OpenAIProvider implements Provider.
var _ Provider = (*OpenAIProvider)(nil)
