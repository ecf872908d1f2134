package llm

import (
	"context"
	"errors"
	"sync"
)

// ScriptedMockProvider replays a fixed queue of responses, one per Chat
// call. Useful for multi-block template runs where each block should see
// a different completion.
type ScriptedMockProvider struct {
	mu        sync.Mutex
	Responses []string
	Err       error

	// CallCount tracks how many times Chat has been called.
	CallCount int
}

// NewScriptedMockProvider creates a provider that answers the given
// responses in order and fails once the queue is empty.
func NewScriptedMockProvider(responses ...string) *ScriptedMockProvider {
	return &ScriptedMockProvider{Responses: responses}
}

func (s *ScriptedMockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CallCount++

	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.Responses) == 0 {
		return nil, errors.New("scripted mock: no more responses available")
	}

	next := s.Responses[0]
	s.Responses = s.Responses[1:]
	return mockResponse(next), nil
}

// AddResponse appends a response to the queue.
func (s *ScriptedMockProvider) AddResponse(response string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Responses = append(s.Responses, response)
}
