// Package llm talks to chat-completion providers. Every provider answers a
// system/user prompt pair with a single JSON document.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNoAPIKey is returned before any network I/O when no key is configured
	ErrNoAPIKey = errors.New("llm: api key not configured")
	// ErrEmptyResponse the provider answered without any content
	ErrEmptyResponse = errors.New("llm: empty completion")
)

// Completer answers a system/user prompt pair.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Providers
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config provider settings
type Config struct {
	Provider       string
	APIKey         string
	BaseURL        string
	Model          string
	Temperature    float64
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// New returns the Completer for cfg.Provider. A missing key still yields a
// client; its calls fail fast with ErrNoAPIKey so callers take their fallback path.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Completer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		return NewOpenAIClient(cfg, logger), nil
	case ProviderGemini:
		if cfg.APIKey == "" {
			return disabled{}, nil
		}
		return NewGeminiClient(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

type disabled struct{}

func (disabled) Complete(context.Context, string, string) (string, error) {
	return "", ErrNoAPIKey
}

// StripFences removes a ```json ... ``` wrapper some models add around JSON.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
