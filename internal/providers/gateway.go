package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"learnwise/internal/models"

	"github.com/charmbracelet/log"
)

type Options struct {
	Provider   string
	Timeout    time.Duration
	MaxRetries int
	Getenv     func(string) string
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Gateway is the single entry point for chat completions. It resolves the
// active provider per call, so key changes in the environment apply without
// a restart, and converts every failure into an *Error.
type Gateway struct {
	provider   string
	timeout    time.Duration
	maxRetries int
	getenv     func(string) string
	hc         *http.Client
	logger     *log.Logger
}

func NewGateway(opts Options) *Gateway {
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = "deepseek"
	}
	return &Gateway{
		provider:   provider,
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		getenv:     opts.Getenv,
		hc:         opts.HTTPClient,
		logger:     opts.Logger.WithPrefix("ai"),
	}
}

func (g *Gateway) ResolveConfig() ProviderConfig {
	return ResolveConfig(g.provider, g.getenv)
}

// Chat sends msgs to the active provider and returns the first completion.
func (g *Gateway) Chat(ctx context.Context, msgs []models.Message, opts ChatOptions) (string, error) {
	cfg := g.ResolveConfig()
	p, err := g.build(cfg)
	if err != nil {
		g.logger.Error("ai provider misconfigured", "provider", cfg.Provider, "err", err)
		return "", err
	}

	start := time.Now()
	g.logger.Info("calling ai provider", "provider", cfg.Provider, "model", cfg.Model, "base_url", cfg.BaseURL, "messages", len(msgs))
	text, err := p.Chat(ctx, msgs, opts.withDefaults())
	if err != nil {
		ce := Classify(cfg, err)
		g.logger.Error("ai provider call failed",
			"provider", cfg.Provider,
			"kind", ce.Kind,
			"status", ce.Status,
			"duration", time.Since(start),
			"err", err,
		)
		return "", ce
	}
	g.logger.Info("ai provider replied", "provider", cfg.Provider, "chars", len(text), "duration", time.Since(start))
	return text, nil
}

func (g *Gateway) build(cfg ProviderConfig) (ChatProvider, error) {
	if !cfg.Known {
		return nil, configError(cfg,
			fmt.Sprintf("unsupported AI provider %q", cfg.Provider),
			"Set AI_PROVIDER to one of: "+strings.Join(Names(), ", "))
	}
	if !cfg.Keyless && !cfg.HasAPIKey {
		return nil, configError(cfg,
			fmt.Sprintf("%s API key not configured", cfg.displayName()),
			fmt.Sprintf("Set %s=<your key> in the .env file and restart the server.", cfg.KeyEnv))
	}
	switch cfg.Variant {
	case VariantMock:
		return NewMockProvider(), nil
	case VariantZhipu:
		return NewZhipuProvider(cfg, g.timeout, g.maxRetries, g.hc), nil
	default:
		return NewOpenAICompatProvider(cfg, g.timeout, g.maxRetries, g.hc), nil
	}
}
