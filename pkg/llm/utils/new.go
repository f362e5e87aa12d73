// Package llmutils builds an llm.Generator from configuration.
package llmutils

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/winter/pkg/config"
	"github.com/papercomputeco/winter/pkg/llm"
	"github.com/papercomputeco/winter/pkg/llm/ollama"
)

// ProviderOllama is the only generation backend.
const ProviderOllama = "ollama"

// NewGenerator returns the configured generator.
func NewGenerator(cfg config.LLMConfig, log *slog.Logger) (llm.Generator, error) {
	switch cfg.Provider {
	case "", ProviderOllama:
		g, err := ollama.New(ollama.Config{
			BaseURL:       cfg.Target,
			Model:         cfg.Model,
			Temperature:   cfg.Temperature,
			ContextWindow: int(cfg.ContextWindow),
		}, ollama.WithLogger(log))
		if err != nil {
			return nil, fmt.Errorf("creating ollama generator: %w", err)
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
