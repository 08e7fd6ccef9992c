// internal/providerfactory/factory.go

// Package providerfactory constructs the right provider client for each
// configured model.
package providerfactory

import (
	"context"
	"fmt"
	"time"

	"driftmon/internal/appconfig"
	"driftmon/internal/providers"
	"driftmon/internal/providers/anthropic"
	"driftmon/internal/providers/gemini"
	"driftmon/internal/providers/openai"
)

// New selects and configures the provider client for one model. OpenAI,
// Mistral and Together share the OpenAI-compatible client; Anthropic and
// Gemini get their own.
func New(ctx context.Context, model appconfig.Model, timeout time.Duration) (providers.Client, error) {
	switch model.Provider {
	case appconfig.ProviderOpenAI, appconfig.ProviderMistral, appconfig.ProviderTogether:
		return openai.New(model)
	case appconfig.ProviderAnthropic:
		return anthropic.New(model, timeout)
	case appconfig.ProviderGemini:
		return gemini.New(ctx, model)
	default:
		return nil, fmt.Errorf("unsupported provider %q for model %q", model.Provider, model.ID)
	}
}
