package llm

import (
	"context"
	"fmt"
)

// MockProvider is an in-memory Provider for tests. It replays a fixed
// Response (or delegates to ChatFunc) and records every request it sees.
type MockProvider struct {
	Response string
	Err      error
	ChatFunc func(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// Calls records every request, in order.
	Calls []ChatRequest
}

func (m *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	m.Calls = append(m.Calls, req)
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return mockResponse(m.Response), nil
}

// LastPrompt returns the user message of the most recent request, or "".
func (m *MockProvider) LastPrompt() string {
	if len(m.Calls) == 0 {
		return ""
	}
	msgs := m.Calls[len(m.Calls)-1].Messages
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}

// FailingMockProvider fails every call, for exercising retry and
// circuit breaker paths.
type FailingMockProvider struct {
	Err error
}

func (f *FailingMockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if f.Err == nil {
		return nil, fmt.Errorf("mock error")
	}
	return nil, f.Err
}

func mockResponse(content string) *ChatResponse {
	return &ChatResponse{
		Content: content,
		Usage: Usage{
			PromptTokens:     10,
			CompletionTokens: 10,
			TotalTokens:      20,
		},
	}
}
