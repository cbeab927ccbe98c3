package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/jbkun069/AnimeChatCraft/internal/app/api"
	"github.com/jbkun069/AnimeChatCraft/pkg/charstore"
	"github.com/jbkun069/AnimeChatCraft/pkg/llm"
	"github.com/jbkun069/AnimeChatCraft/pkg/prompt"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Api api.Config `yaml:"api"`

	Store charstore.Config `yaml:"store"`

	Prompt prompt.Config `yaml:"prompt"`
	LLM    llm.Config    `yaml:"llm"`
}

func Default() *Config {
	return &Config{
		Api: api.Config{
			Port:    5000,
			Timeout: 60 * time.Second,
		},
		Store: charstore.Config{
			Backend:    charstore.BackendFile,
			Dir:        "characters",
			SQLitePath: "characters.db",
		},
		LLM: llm.Config{
			Provider: llm.ProviderGemini,
			Gemini: llm.GeminiConfig{
				Model: "gemini-1.5-flash",
			},
			OpenAI: llm.ClientConfig{
				MaxTokens:   512,
				Temperature: 0.9,
			},
		},
	}
}

// Load applies the yaml file at path (skipped when missing) and then the environment on top of Default.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("can't open %s file: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("can't unmarshal %s file: %w", path, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Api.Port <= 0 || c.Api.Port > 65535 {
		return fmt.Errorf("invalid api port %d", c.Api.Port)
	}

	switch c.Store.Backend {
	case charstore.BackendFile:
		if c.Store.Dir == "" {
			return errors.New("store dir is required for file backend")
		}
	case charstore.BackendSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("store sqlite_path is required for sqlite backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	switch c.LLM.Provider {
	case llm.ProviderGemini:
		if c.LLM.Gemini.APIKey == "" {
			return errors.New("GOOGLE_API_KEY is required for gemini provider")
		}
	case llm.ProviderOpenAI:
		if c.LLM.OpenAI.URL == "" {
			return errors.New("llm openai url is required for openai provider")
		}
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}

	return nil
}
