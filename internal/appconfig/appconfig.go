// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// defaultRequestTimeout is the default per-request timeout for provider calls.
	defaultRequestTimeout = 60 * time.Second
	// defaultMaxRetries is how many times a transient provider error is retried.
	defaultMaxRetries = 3
	// defaultParallelism bounds concurrent in-flight requests per provider.
	defaultParallelism = 2
	// defaultRequestsPerMinute is the per-provider rate limit.
	defaultRequestsPerMinute = 30
	// defaultMaxTokens caps the completion length requested from providers.
	defaultMaxTokens = 1000
	// defaultSignificanceLevel is the p-value threshold for drift detection.
	defaultSignificanceLevel = 0.05
	// defaultMinEffectSize is the minimum |Cohen's d| required to flag drift.
	defaultMinEffectSize = 0.2
)

// Config represents the top-level application configuration.
type Config struct {
	Models            []Model `json:"models"`
	Debug             bool    `json:"debug"`
	DataDir           string  `json:"dataDir,omitempty"`
	TimeoutSeconds    int     `json:"timeout,omitempty"`
	MaxRetries        int     `json:"maxRetries,omitempty"`
	Parallelism       int     `json:"parallelism,omitempty"`
	RequestsPerMinute int     `json:"requestsPerMinute,omitempty"`
	MaxTokens         int     `json:"maxTokens,omitempty"`
	LogFile           string  `json:"logFile,omitempty"`
	SignificanceLevel float64 `json:"significanceLevel,omitempty"`
	MinEffectSize     float64 `json:"minEffectSize,omitempty"`
	ConfigPath        string  `json:"-"`
}

// Model describes one language model under measurement.
type Model struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Provider          string  `json:"provider"`
	APIModel          string  `json:"apiModel"`
	BaseURL           string  `json:"baseUrl,omitempty"`
	InputCostPerMTok  float64 `json:"inputCostPerMTok"`
	OutputCostPerMTok float64 `json:"outputCostPerMTok"`
	Enabled           bool    `json:"enabled"`
}

// Providers supported by the harness.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderTogether  = "together"
	ProviderMistral   = "mistral"
)

// CredentialEnv returns the environment variable holding the API key for the
// model's provider.
func (m Model) CredentialEnv() string {
	switch m.Provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderGemini:
		return "GOOGLE_API_KEY"
	case ProviderTogether:
		return "TOGETHER_API_KEY"
	case ProviderMistral:
		return "MISTRAL_API_KEY"
	default:
		return ""
	}
}

// Cost computes the dollar cost of a single request given token counts.
func (m Model) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*m.InputCostPerMTok/1e6 +
		float64(outputTokens)*m.OutputCostPerMTok/1e6
}

// RequestTimeout returns the per-request timeout, falling back to the default.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryAttempts returns the configured number of retries for transient errors.
func (c Config) RetryAttempts() int {
	if c.MaxRetries < 0 {
		return 0
	}
	if c.MaxRetries == 0 {
		return defaultMaxRetries
	}
	return c.MaxRetries
}

// ProviderParallelism bounds concurrent requests issued against one provider.
func (c Config) ProviderParallelism() int {
	if c.Parallelism <= 0 {
		return defaultParallelism
	}
	return c.Parallelism
}

// ProviderRequestsPerMinute returns the per-provider rate limit.
func (c Config) ProviderRequestsPerMinute() int {
	if c.RequestsPerMinute <= 0 {
		return defaultRequestsPerMinute
	}
	return c.RequestsPerMinute
}

// CompletionMaxTokens caps the completion length requested from providers.
func (c Config) CompletionMaxTokens() int {
	if c.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return c.MaxTokens
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "driftmon.log"
}

// DataDirPath returns the base directory for result storage.
func (c Config) DataDirPath() string {
	if dir := strings.TrimSpace(c.DataDir); dir != "" {
		return dir
	}
	return "data"
}

// DriftSignificanceLevel returns the p-value threshold used by drift detection.
func (c Config) DriftSignificanceLevel() float64 {
	if c.SignificanceLevel <= 0 || c.SignificanceLevel >= 1 {
		return defaultSignificanceLevel
	}
	return c.SignificanceLevel
}

// DriftMinEffectSize returns the minimum |Cohen's d| required to flag drift.
func (c Config) DriftMinEffectSize() float64 {
	if c.MinEffectSize <= 0 {
		return defaultMinEffectSize
	}
	return c.MinEffectSize
}

// EnabledModels returns the models that are switched on in the config.
func (c Config) EnabledModels() []Model {
	var out []Model
	for _, m := range c.Models {
		if m.Enabled {
			out = append(out, m)
		}
	}
	return out
}

// ModelByID looks up a configured model by its ID.
func (c Config) ModelByID(id string) (Model, bool) {
	for _, m := range c.Models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// Load reads the application configuration from the specified path.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("no configuration file found at %q", path)
		}
		return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
	}

	if len(config.Models) == 0 {
		return Config{}, errors.New("config must contain at least one model")
	}
	if err := validateModels(config.Models); err != nil {
		return Config{}, err
	}
	config.ConfigPath = path
	return config, nil
}

// Validate checks a configuration assembled outside Load, e.g. one merged
// from flags and viper.
func Validate(cfg Config) error {
	if len(cfg.Models) == 0 {
		return errors.New("config must contain at least one model")
	}
	return validateModels(cfg.Models)
}

// loadFromPath is a helper function that loads the configuration from a specific file path.
func loadFromPath(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return Config{}, err
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = int(defaultRequestTimeout.Seconds())
	}

	return config, nil
}

func validateModels(models []Model) error {
	seen := make(map[string]struct{}, len(models))
	for _, m := range models {
		if strings.TrimSpace(m.ID) == "" {
			return errors.New("every model needs a non-empty id")
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("duplicate model id %q", m.ID)
		}
		seen[m.ID] = struct{}{}
		if m.CredentialEnv() == "" {
			return fmt.Errorf("model %q has unknown provider %q", m.ID, m.Provider)
		}
		if strings.TrimSpace(m.APIModel) == "" {
			return fmt.Errorf("model %q has no apiModel", m.ID)
		}
	}
	return nil
}

// LoadCredentials reads a .env file if present and verifies that every enabled
// model has its provider API key set. A missing key aborts the run before any
// request is issued.
func LoadCredentials(cfg Config) error {
	_ = godotenv.Load()

	var missing []string
	seen := make(map[string]struct{})
	for _, m := range cfg.EnabledModels() {
		env := m.CredentialEnv()
		if _, dup := seen[env]; dup {
			continue
		}
		seen[env] = struct{}{}
		if strings.TrimSpace(os.Getenv(env)) == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing provider credentials: %s (set them in the environment or a .env file)", strings.Join(missing, ", "))
}
