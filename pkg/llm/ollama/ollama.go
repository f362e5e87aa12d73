// Package ollama implements llm.Generator on Ollama's streaming generate
// endpoint.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"net/url"

	ollama "github.com/ollama/ollama/api"

	"github.com/papercomputeco/winter/pkg/llm"
	"github.com/papercomputeco/winter/pkg/logger"
)

const (
	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultModel is the default generation model.
	DefaultModel = "deepseek-r1:8b"

	DefaultTemperature   = 0.7
	DefaultContextWindow = 4096
)

// errStopped aborts the response callback when the consumer stops.
var errStopped = errors.New("consumer stopped")

// Config holds configuration for the Ollama generator.
type Config struct {
	BaseURL       string
	Model         string
	Temperature   float64
	ContextWindow int
}

// Generator streams completions from Ollama.
type Generator struct {
	client *ollama.Client
	cfg    Config
	logger *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithHTTPClient replaces the HTTP client. Generation has no timeout of
// its own; cancellation comes from the request context.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *Generator) {
		u, _ := url.Parse(g.cfg.BaseURL)
		g.client = ollama.NewClient(u, hc)
	}
}

// New creates a Generator, filling defaults for unset fields.
func New(cfg Config, opts ...Option) (*Generator, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = DefaultContextWindow
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama URL %q: %w", cfg.BaseURL, err)
	}

	g := &Generator{
		client: ollama.NewClient(u, http.DefaultClient),
		cfg:    cfg,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	return g.cfg.Model
}

// Generate streams response fragments for prompt.
func (g *Generator) Generate(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		req := &ollama.GenerateRequest{
			Model:  g.cfg.Model,
			Prompt: prompt,
			Options: map[string]any{
				"temperature": g.cfg.Temperature,
				"num_ctx":     g.cfg.ContextWindow,
			},
		}

		g.logger.Debug("generating", "model", g.cfg.Model, "prompt_bytes", len(prompt))

		err := g.client.Generate(ctx, req, func(resp ollama.GenerateResponse) error {
			if resp.Response == "" {
				return nil
			}
			if !yield(resp.Response, nil) {
				return errStopped
			}
			return nil
		})
		switch {
		case err == nil, errors.Is(err, errStopped):
			return
		case ctx.Err() != nil:
			yield("", fmt.Errorf("%w: %w", llm.ErrGeneration, ctx.Err()))
		default:
			yield("", fmt.Errorf("%w: ollama generate: %v", llm.ErrGeneration, err))
		}
	}
}

var _ llm.Generator = (*Generator)(nil)
