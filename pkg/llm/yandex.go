package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// YandexProvider implements Provider for the YandexGPT foundation models
// completion API.
type YandexProvider struct {
	apiKey   string
	folderID string
	baseURL  string
	client   *http.Client
}

// NewYandex creates a YandexGPT provider. folderID scopes the model URI
// (gpt://<folder>/<model>/latest).
func NewYandex(apiKey, folderID, baseURL string) *YandexProvider {
	if baseURL == "" {
		baseURL = "https://llm.api.cloud.yandex.net"
	}
	return &YandexProvider{
		apiKey:   apiKey,
		folderID: folderID,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
}

type yandexCompletionOptions struct {
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   string  `json:"maxTokens,omitempty"`
}

type yandexMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type yandexRequest struct {
	ModelURI          string                  `json:"modelUri"`
	CompletionOptions yandexCompletionOptions `json:"completionOptions"`
	Messages          []yandexMessage         `json:"messages"`
}

type yandexResponse struct {
	Result struct {
		Alternatives []struct {
			Message yandexMessage `json:"message"`
			Status  string        `json:"status"`
		} `json:"alternatives"`
		Usage struct {
			InputTextTokens  string `json:"inputTextTokens"`
			CompletionTokens string `json:"completionTokens"`
			TotalTokens      string `json:"totalTokens"`
		} `json:"usage"`
	} `json:"result"`
}

// Chat sends a completion request to YandexGPT and maps the response.
func (p *YandexProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = "yandexgpt"
	}

	yReq := yandexRequest{
		ModelURI: fmt.Sprintf("gpt://%s/%s/latest", p.folderID, model),
		CompletionOptions: yandexCompletionOptions{
			Stream:      false,
			Temperature: req.Temperature,
		},
	}
	if req.MaxTokens > 0 {
		yReq.CompletionOptions.MaxTokens = strconv.Itoa(req.MaxTokens)
	}
	for _, msg := range req.Messages {
		role := string(msg.Role)
		if msg.Role == RoleAssistant {
			role = "assistant"
		}
		yReq.Messages = append(yReq.Messages, yandexMessage{Role: role, Text: msg.Content})
	}

	body, err := json.Marshal(yReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal yandexgpt request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/foundationModels/v1/completion", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Api-Key "+p.apiKey)
	httpReq.Header.Set("x-folder-id", p.folderID)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("yandexgpt api call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("yandexgpt api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var yResp yandexResponse
	if err := json.NewDecoder(resp.Body).Decode(&yResp); err != nil {
		return nil, fmt.Errorf("failed to decode yandexgpt response: %w", err)
	}
	if len(yResp.Result.Alternatives) == 0 {
		return nil, fmt.Errorf("yandexgpt returned no alternatives")
	}

	return &ChatResponse{
		Content: yResp.Result.Alternatives[0].Message.Text,
		Usage: Usage{
			PromptTokens:     atoiOrZero(yResp.Result.Usage.InputTextTokens),
			CompletionTokens: atoiOrZero(yResp.Result.Usage.CompletionTokens),
			TotalTokens:      atoiOrZero(yResp.Result.Usage.TotalTokens),
		},
	}, nil
}

// Token counts come back as decimal strings on this API.
func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// Ensure YandexProvider implements Provider.
var _ Provider = (*YandexProvider)(nil)
