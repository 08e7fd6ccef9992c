// internal/providers/openai/provider.go

// Package openai queries OpenAI-compatible chat completion APIs. Besides
// api.openai.com it covers Mistral and Together, which expose the same wire
// format under their own base URLs.
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"

	goopenai "github.com/sashabaranov/go-openai"

	"driftmon/internal/appconfig"
	"driftmon/internal/logging"
	"driftmon/internal/providers"
)

const (
	mistralBaseURL  = "https://api.mistral.ai/v1"
	togetherBaseURL = "https://api.together.xyz/v1"
)

// Provider is a chat-completion client for one OpenAI-compatible backend.
type Provider struct {
	client *goopenai.Client
	name   string
}

// New builds a client for the given model's provider. The API key is read
// from the provider's credential environment variable.
func New(model appconfig.Model) (*Provider, error) {
	key := os.Getenv(model.CredentialEnv())
	if key == "" {
		return nil, fmt.Errorf("openai: %s is not set", model.CredentialEnv())
	}
	cfg := goopenai.DefaultConfig(key)
	switch model.Provider {
	case appconfig.ProviderOpenAI:
		// default base URL
	case appconfig.ProviderMistral:
		cfg.BaseURL = mistralBaseURL
	case appconfig.ProviderTogether:
		cfg.BaseURL = togetherBaseURL
	default:
		return nil, fmt.Errorf("openai: unsupported provider %q", model.Provider)
	}
	if model.BaseURL != "" {
		cfg.BaseURL = model.BaseURL
	}
	return &Provider{
		client: goopenai.NewClientWithConfig(cfg),
		name:   model.Provider,
	}, nil
}

// Query sends one chat completion request and normalizes the response.
func (p *Provider) Query(ctx context.Context, req providers.Request) (providers.Response, error) {
	messages := []goopenai.ChatCompletionMessage{}
	if req.SystemPrompt != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := goopenai.ChatCompletionRequest{
		Model:       req.Model.APIModel,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	}

	logging.LogRequest("DRIFTMON->LLM", p.name, req.Model.APIModel, req.Prompt)
	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return providers.Response{}, classify(p.name, err)
	}
	if len(resp.Choices) == 0 {
		return providers.Response{}, fmt.Errorf("%s: response contained no choices", p.name)
	}

	choice := resp.Choices[0]
	out := providers.Response{
		Text:         choice.Message.Content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		FinishReason: string(choice.FinishReason),
		Blocked:      choice.FinishReason == goopenai.FinishReasonContentFilter,
	}
	logging.LogRequest("LLM->DRIFTMON", p.name, req.Model.APIModel, out.Text)
	return out, nil
}

// Close satisfies providers.Client. The underlying HTTP client needs no
// explicit teardown.
func (p *Provider) Close() error { return nil }

func classify(name string, err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		wrapped := fmt.Errorf("%s: %w", name, err)
		if providers.TransientStatus(apiErr.HTTPStatusCode) {
			return providers.MarkTransient(wrapped)
		}
		return wrapped
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", name, err)
	}
	// Connection resets and DNS failures surface as plain errors from the
	// transport. Treat them as retryable.
	return providers.MarkTransient(fmt.Errorf("%s: %w", name, err))
}
