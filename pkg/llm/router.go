package llm

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/titanlabs/titan/pkg/errors"
	"github.com/titanlabs/titan/pkg/resilience"
)

// Completion is the normalized result of one routed provider call.
type Completion struct {
	Text     string
	Usage    Usage
	Provider string
	Model    string
	Duration time.Duration
}

// Recorder receives a record of every routed call, success or failure.
// The usage store implements this; a nil recorder disables tracking.
type Recorder interface {
	RecordCall(ctx context.Context, c Completion, callErr error)
}

type binding struct {
	provider Provider
	model    string
}

// Router dispatches prompts to provider bindings selected by string id.
// Bindings are registered once at startup; routing is read-only afterwards,
// so concurrent Generate calls need no registration lock.
type Router struct {
	defaultID string
	order     []string
	bindings  map[string]binding
	timeout   time.Duration
	retry     resilience.RetryConfig
	recorder  Recorder

	mu       sync.Mutex
	breakers map[string]*resilience.CircuitBreaker
}

// RouterOption configures the Router.
type RouterOption func(*Router)

// WithDefaultProvider sets the binding used when a call names no provider.
func WithDefaultProvider(id string) RouterOption {
	return func(r *Router) { r.defaultID = id }
}

// WithTimeout bounds every individual provider call.
func WithTimeout(d time.Duration) RouterOption {
	return func(r *Router) { r.timeout = d }
}

// WithRetry sets the retry policy wrapped around transient provider errors.
func WithRetry(rc resilience.RetryConfig) RouterOption {
	return func(r *Router) { r.retry = rc }
}

// WithRecorder attaches a call recorder.
func WithRecorder(rec Recorder) RouterOption {
	return func(r *Router) { r.recorder = rec }
}

// NewRouter creates a Router with no bindings.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{
		bindings: make(map[string]binding),
		breakers: make(map[string]*resilience.CircuitBreaker),
		timeout:  60 * time.Second,
		retry:    resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bind registers provider p under the given ids. A non-empty model pins the
// model sent on every request through these ids, so "yandexgpt" and
// "yandexgpt-lite" can share one provider with different models.
func (r *Router) Bind(p Provider, model string, ids ...string) {
	for _, id := range ids {
		if _, exists := r.bindings[id]; !exists {
			r.order = append(r.order, id)
		}
		r.bindings[id] = binding{provider: p, model: model}
	}
}

// Providers returns the bound provider ids in registration order.
func (r *Router) Providers() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// DefaultProvider returns the configured default provider id.
func (r *Router) DefaultProvider() string {
	return r.defaultID
}

// Generate routes prompt to the provider selected by providerID (or the
// configured default when empty) and returns the normalized text output.
// Transient failures are retried with backoff; a per-provider circuit
// breaker sheds load from a persistently failing backend.
func (r *Router) Generate(ctx context.Context, prompt, providerID string, params Params) (string, error) {
	c, err := r.Complete(ctx, prompt, providerID, params)
	if err != nil {
		return "", err
	}
	return c.Text, nil
}

// Complete is Generate with token usage and timing attached.
func (r *Router) Complete(ctx context.Context, prompt, providerID string, params Params) (*Completion, error) {
	id := providerID
	if id == "" {
		id = r.defaultID
	}

	b, ok := r.bindings[id]
	if !ok {
		return nil, errors.New(errors.CodeProviderNotConfigured, "no provider configured", nil).
			WithContext("provider", id)
	}

	model := params.String("model", "")
	if model == "" {
		model = b.model
	}
	req := ChatRequest{
		Model:       model,
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		Temperature: params.Float("temperature", 0),
		MaxTokens:   params.Int("max_tokens", 0),
	}

	completion := &Completion{Provider: id, Model: model}
	start := time.Now()
	err := r.retry.Do(ctx, func() error {
		return r.breakerFor(id).Call(ctx, func() error {
			callCtx := ctx
			if r.timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, r.timeout)
				defer cancel()
			}
			resp, chatErr := b.provider.Chat(callCtx, req)
			if chatErr != nil {
				return classifyProviderError(id, callCtx, chatErr)
			}
			completion.Text = resp.Content
			completion.Usage = resp.Usage
			return nil
		})
	})
	completion.Duration = time.Since(start)

	if r.recorder != nil {
		r.recorder.RecordCall(ctx, *completion, err)
	}
	if err != nil {
		return nil, err
	}
	return completion, nil
}

func (r *Router) breakerFor(id string) *resilience.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	cb, ok := r.breakers[id]
	if !ok {
		cb = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: id})
		r.breakers[id] = cb
	}
	return cb
}

// classifyProviderError maps a raw provider failure onto the error taxonomy,
// keeping the provider id attached for diagnosis.
func classifyProviderError(id string, ctx context.Context, err error) error {
	if te, ok := err.(*errors.TitanError); ok {
		return te.WithContext("provider", id)
	}
	if stderrors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return errors.New(errors.CodeTimeout, "provider call timed out", err).
			WithContext("provider", id)
	}
	if stderrors.Is(err, context.Canceled) {
		return errors.New(errors.CodeContextLost, "provider call canceled", err).
			WithContext("provider", id)
	}
	return errors.New(errors.CodeProviderResponse, "provider call failed", err).
		WithContext("provider", id)
}
