// Package llm adapts external text generation services to a single
// prompt-in, text-out contract. Calls are single attempt; callers recover
// from any error with a local fallback.
package llm

import (
	"context"
	"errors"
)

// Sentinel errors.
var (
	// ErrDisabled is returned by the "none" provider.
	ErrDisabled = errors.New("narrative generation disabled")
	// ErrEmptyResponse means the provider answered without text.
	ErrEmptyResponse = errors.New("empty response from provider")
	// ErrUnknownProvider is returned by New for an unsupported provider name.
	ErrUnknownProvider = errors.New("unknown narrative provider")
	// ErrMissingAPIKey is returned when a hosted provider has no key.
	ErrMissingAPIKey = errors.New("api key is required")
)

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Named is implemented by generators that report a provider label for metrics.
type Named interface {
	Provider() string
}

// ProviderOf returns g's provider label or "unknown".
func ProviderOf(g Generator) string {
	if n, ok := g.(Named); ok {
		return n.Provider()
	}
	return "unknown"
}

// Disabled always fails with ErrDisabled.
type Disabled struct{}

// Generate implements Generator.
func (Disabled) Generate(context.Context, string) (string, error) { return "", ErrDisabled }

// Provider implements Named.
func (Disabled) Provider() string { return "none" }

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
