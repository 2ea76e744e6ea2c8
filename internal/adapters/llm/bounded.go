package llm

import (
	"context"
	"time"
)

// Bounded applies a per-call deadline.
type Bounded struct {
	next    Generator
	timeout time.Duration
}

// NewBounded wraps next. A non-positive timeout leaves the caller's deadline alone.
func NewBounded(next Generator, timeout time.Duration) *Bounded {
	return &Bounded{next: next, timeout: timeout}
}

// Generate implements Generator.
func (b *Bounded) Generate(ctx context.Context, prompt string) (string, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	return b.next.Generate(ctx, prompt)
}

// Provider implements Named.
func (b *Bounded) Provider() string { return ProviderOf(b.next) }
