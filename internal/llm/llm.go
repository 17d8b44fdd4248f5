// Package llm wraps the hosted and local text/image generation APIs behind
// small interfaces the engine can fake in tests.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// GenerateOptions are the sampling knobs passed with every call. Zero values
// leave the provider default in place.
type GenerateOptions struct {
	Temperature     float32
	MaxOutputTokens int
	TopP            float32
	TopK            int
}

// NarrativeClient produces raw model text for a system and user prompt.
// Callers must not assume the result is well-formed JSON.
type NarrativeClient interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOptions) (string, error)
}

// Provider names accepted by NewNarrativeClient.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Settings selects and configures a narrative provider.
type Settings struct {
	Provider      string
	Model         string
	GeminiAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OllamaURL     string
	Timeout       time.Duration
}

// NewNarrativeClient builds the client for s.Provider. It returns a nil
// client and nil error when the provider needs a credential that is not set;
// the engine reports that state to the player instead of failing at startup.
func NewNarrativeClient(ctx context.Context, s Settings, logger *zap.Logger) (NarrativeClient, error) {
	log := logger.With(zap.String("provider", s.Provider), zap.String("model", s.Model))
	switch strings.ToLower(s.Provider) {
	case ProviderGemini, "":
		if s.GeminiAPIKey == "" {
			log.Warn("GEMINI_API_KEY is not set; narrative generation disabled")
			return nil, nil
		}
		g, err := NewGemini(ctx, s.GeminiAPIKey, s.Model)
		if err != nil {
			return nil, err
		}
		return g, nil
	case ProviderOpenAI:
		if s.OpenAIAPIKey == "" {
			log.Warn("OPENAI_API_KEY is not set; narrative generation disabled")
			return nil, nil
		}
		return NewOpenAI(s.OpenAIAPIKey, s.OpenAIBaseURL, s.Model, s.Timeout), nil
	case ProviderOllama:
		o, err := NewOllama(s.OllamaURL, s.Model, s.Timeout)
		if err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, fmt.Errorf("unknown text provider %q", s.Provider)
	}
}
