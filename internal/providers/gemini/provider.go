// internal/providers/gemini/provider.go

// Package gemini queries Google's Gemini API through the genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"

	"google.golang.org/genai"

	"driftmon/internal/appconfig"
	"driftmon/internal/logging"
	"driftmon/internal/providers"
)

// Provider is a Gemini generate-content client.
type Provider struct {
	client *genai.Client
}

// New builds a Gemini client for the given model. The API key is read from
// GOOGLE_API_KEY.
func New(ctx context.Context, model appconfig.Model) (*Provider, error) {
	key := os.Getenv(model.CredentialEnv())
	if key == "" {
		return nil, fmt.Errorf("gemini: %s is not set", model.CredentialEnv())
	}
	cc := &genai.ClientConfig{APIKey: key}
	if model.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: model.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Provider{client: client}, nil
}

// Query sends one prompt and normalizes the response.
func (p *Provider) Query(ctx context.Context, req providers.Request) (providers.Response, error) {
	temp := float32(req.Temperature)
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	contents := []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}

	logging.LogRequest("DRIFTMON->LLM", "gemini", req.Model.APIModel, req.Prompt)
	resp, err := p.client.Models.GenerateContent(ctx, req.Model.APIModel, contents, cfg)
	if err != nil {
		return providers.Response{}, classify(err)
	}

	out := providers.Response{}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		out.Blocked = true
		out.FinishReason = string(resp.PromptFeedback.BlockReason)
		return out, nil
	}
	if len(resp.Candidates) == 0 {
		return providers.Response{}, fmt.Errorf("gemini: response contained no candidates")
	}

	cand := resp.Candidates[0]
	out.FinishReason = string(cand.FinishReason)
	if cand.FinishReason == genai.FinishReasonSafety || cand.FinishReason == genai.FinishReasonProhibitedContent {
		out.Blocked = true
		return out, nil
	}
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			out.Text += part.Text
		}
	}
	logging.LogRequest("LLM->DRIFTMON", "gemini", req.Model.APIModel, out.Text)
	return out, nil
}

// Close satisfies providers.Client.
func (p *Provider) Close() error { return nil }

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		wrapped := fmt.Errorf("gemini: %w", err)
		if providers.TransientStatus(apiErr.Code) {
			return providers.MarkTransient(wrapped)
		}
		return wrapped
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("gemini: %w", err)
	}
	return providers.MarkTransient(fmt.Errorf("gemini: %w", err))
}
