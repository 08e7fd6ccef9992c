// internal/providers/provider.go

// Package providers defines the interface for querying hosted language-model
// APIs. It gives the harness a single abstraction over the five provider
// backends (OpenAI, Anthropic, Gemini, Together, Mistral) so a batch run does
// not care which vendor is behind a model.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net"

	"driftmon/internal/appconfig"
)

// Request carries one prompt to a provider.
type Request struct {
	Model        appconfig.Model
	SystemPrompt string
	Prompt       string
	MaxTokens    int
	Temperature  float64
}

// Response is the normalized outcome of one provider call.
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
	FinishReason string
	// Blocked is set when the provider refused the prompt (safety filter,
	// content policy). A blocked response is a measured outcome, not an error.
	Blocked bool
}

// Client is implemented by every provider backend.
type Client interface {
	// Query sends one prompt and returns the normalized response. The context
	// carries the per-request timeout.
	Query(ctx context.Context, req Request) (Response, error)
	// Close cleans up any resources used by the client.
	Close() error
}

// ErrTransient marks provider failures that are worth retrying: rate limits,
// overload responses and network hiccups. Wrap with MarkTransient.
var ErrTransient = errors.New("transient provider error")

// MarkTransient tags an error as retryable.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// IsTransient reports whether an error should be retried with backoff.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// TransientStatus reports whether an HTTP status code indicates a transient
// provider condition.
func TransientStatus(code int) bool {
	return code == 429 || code == 500 || code == 502 || code == 503 || code == 504 || code == 529
}
