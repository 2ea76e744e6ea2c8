package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/smarthr/pkg/logger"
)

// Config selects and tunes a provider.
type Config struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	CacheAddr string
	CacheTTL  time.Duration
}

// New builds the configured generator: provider client, deadline, then the
// optional redis cache. The returned close func releases the cache client.
func New(ctx context.Context, cfg Config, log logger.Logger) (Generator, func() error, error) {
	noop := func() error { return nil }
	var (
		g   Generator
		err error
	)
	switch strings.ToLower(cfg.Provider) {
	case "", "none":
		return Disabled{}, noop, nil
	case "gemini":
		g, err = NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL)
	case "openai":
		g, err = NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case "claude":
		g, err = NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL)
	default:
		return nil, noop, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
	if err != nil {
		return nil, noop, err
	}

	g = NewBounded(g, cfg.Timeout)
	if cfg.CacheAddr == "" {
		return g, noop, nil
	}
	cache, err := NewRedisCache(ctx, cfg.CacheAddr)
	if err != nil {
		return nil, noop, err
	}
	return NewCached(g, cache, cfg.CacheTTL, log), cache.Close, nil
}
