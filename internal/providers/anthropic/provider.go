// internal/providers/anthropic/provider.go

// Package anthropic is a minimal client for the Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"driftmon/internal/appconfig"
	"driftmon/internal/logging"
	"driftmon/internal/providers"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
)

// Provider talks to the Anthropic Messages endpoint over plain HTTP.
type Provider struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// New builds an Anthropic client for the given model. The API key is read
// from ANTHROPIC_API_KEY.
func New(model appconfig.Model, timeout time.Duration) (*Provider, error) {
	key := os.Getenv(model.CredentialEnv())
	if key == "" {
		return nil, fmt.Errorf("anthropic: %s is not set", model.CredentialEnv())
	}
	baseURL := defaultBaseURL
	if model.BaseURL != "" {
		baseURL = model.BaseURL
	}
	return &Provider{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				ForceAttemptHTTP2: false,
			},
		},
		baseURL: baseURL,
		apiKey:  key,
	}, nil
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
	// Temperature is a pointer so 0 survives serialization.
	Temperature *float64 `json:"temperature,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Query sends one prompt to /v1/messages and normalizes the response.
func (p *Provider) Query(ctx context.Context, req providers.Request) (providers.Response, error) {
	temp := req.Temperature
	payload := messagesRequest{
		Model:       req.Model.APIModel,
		MaxTokens:   req.MaxTokens,
		System:      req.SystemPrompt,
		Messages:    []message{{Role: "user", Content: req.Prompt}},
		Temperature: &temp,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return providers.Response{}, fmt.Errorf("anthropic: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return providers.Response{}, fmt.Errorf("anthropic: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	logging.LogRequest("DRIFTMON->LLM", "anthropic", req.Model.APIModel, req.Prompt)
	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return providers.Response{}, fmt.Errorf("anthropic: %w", ctx.Err())
		}
		return providers.Response{}, providers.MarkTransient(fmt.Errorf("anthropic: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.Response{}, providers.MarkTransient(fmt.Errorf("anthropic: read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		errText := apiErrorText(raw)
		wrapped := fmt.Errorf("anthropic: /v1/messages returned %s: %s", resp.Status, errText)
		if providers.TransientStatus(resp.StatusCode) {
			return providers.Response{}, providers.MarkTransient(wrapped)
		}
		return providers.Response{}, wrapped
	}

	var parsed messagesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return providers.Response{}, fmt.Errorf("anthropic: decode response: %w", err)
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	out := providers.Response{
		Text:         text,
		InputTokens:  parsed.Usage.InputTokens,
		OutputTokens: parsed.Usage.OutputTokens,
		FinishReason: parsed.StopReason,
		Blocked:      parsed.StopReason == "refusal",
	}
	logging.LogRequest("LLM->DRIFTMON", "anthropic", req.Model.APIModel, out.Text)
	return out, nil
}

// Close satisfies providers.Client.
func (p *Provider) Close() error { return nil }

func apiErrorText(raw []byte) string {
	var parsed messagesResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error != nil {
		return parsed.Error.Message
	}
	return string(raw)
}
