package llm

import (
	"context"
	"fmt"
	"net/http"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Provider turns a single text prompt into generated text.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	Provider string       `yaml:"provider" env:"LLM_PROVIDER"`
	Gemini   GeminiConfig `yaml:"gemini"`
	OpenAI   ClientConfig `yaml:"openai"`
}

func New(ctx context.Context, cfg *Config, httpClient HTTPClient) (Provider, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		return NewGemini(ctx, &cfg.Gemini)
	case ProviderOpenAI:
		return NewClient(httpClient, &cfg.OpenAI), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
