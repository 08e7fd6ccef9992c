// internal/providers/gemini/provider_test.go

package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/genai"

	"driftmon/internal/appconfig"
	"driftmon/internal/providers"
)

func testModel(baseURL string) appconfig.Model {
	return appconfig.Model{
		ID:       "gemini-pro",
		Name:     "Gemini Pro",
		Provider: appconfig.ProviderGemini,
		APIModel: "gemini-pro-latest",
		BaseURL:  baseURL,
		Enabled:  true,
	}
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("GOOGLE_API_KEY", "test-key")
	p, err := New(context.Background(), testModel(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestQueryParsesResponse(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "4"}]},
				"finishReason": "STOP"
			}],
			"usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 3}
		}`))
	})

	resp, err := p.Query(context.Background(), providers.Request{
		Model:     testModel(""),
		Prompt:    "What is 2+2?",
		MaxTokens: 100,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if resp.Text != "4" {
		t.Errorf("expected text %q, got %q", "4", resp.Text)
	}
	if resp.InputTokens != 12 || resp.OutputTokens != 3 {
		t.Errorf("unexpected token counts: in=%d out=%d", resp.InputTokens, resp.OutputTokens)
	}
	if resp.Blocked {
		t.Error("expected response not to be blocked")
	}
}

func TestQuerySafetyFinishIsBlocked(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"candidates": [{"finishReason": "SAFETY"}],
			"usageMetadata": {"promptTokenCount": 9, "candidatesTokenCount": 0}
		}`))
	})

	resp, err := p.Query(context.Background(), providers.Request{Model: testModel(""), Prompt: "x", MaxTokens: 10})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !resp.Blocked {
		t.Error("expected safety finish to be reported as blocked")
	}
	if resp.FinishReason != string(genai.FinishReasonSafety) {
		t.Errorf("expected finish reason %q, got %q", genai.FinishReasonSafety, resp.FinishReason)
	}
}

func TestQueryBlockedPromptIsBlocked(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"promptFeedback": {"blockReason": "SAFETY"}}`))
	})

	resp, err := p.Query(context.Background(), providers.Request{Model: testModel(""), Prompt: "x", MaxTokens: 10})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !resp.Blocked {
		t.Error("expected prompt-level block to be reported as blocked")
	}
}

func TestQueryUnavailableIsTransient(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error": {"code": 503, "message": "The model is overloaded.", "status": "UNAVAILABLE"}}`))
	})

	_, err := p.Query(context.Background(), providers.Request{Model: testModel(""), Prompt: "x", MaxTokens: 10})
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if !providers.IsTransient(err) {
		t.Errorf("expected transient error, got %v", err)
	}
}

func TestNewRequiresCredential(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	if _, err := New(context.Background(), testModel("")); err == nil {
		t.Fatal("expected error when GOOGLE_API_KEY is unset")
	}
}
