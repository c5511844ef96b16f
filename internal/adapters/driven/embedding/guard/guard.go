// Package guard wraps an embedding service with a per-call timeout and a
// token bucket rate limit. Provider failures surface as
// domain.ErrEmbeddingUnavailable so callers can degrade to text-only mode.
package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/projectrag/internal/core/domain"
	"github.com/custodia-labs/projectrag/internal/core/ports/driven"
	"github.com/custodia-labs/projectrag/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Config holds the limits applied to the wrapped service.
type Config struct {
	// Timeout bounds each call. Zero disables the timeout.
	Timeout time.Duration

	// RequestsPerSecond is the sustained call rate. Zero disables limiting.
	RequestsPerSecond float64

	// BurstSize is the maximum burst size.
	BurstSize int
}

// ConfigFromSettings derives guard limits from embedding settings.
func ConfigFromSettings(settings domain.EmbeddingSettings) Config {
	return Config{
		Timeout:           settings.Timeout,
		RequestsPerSecond: settings.RatePerSecond,
		BurstSize:         settings.Burst,
	}
}

// EmbeddingService applies limits to another EmbeddingService.
type EmbeddingService struct {
	inner   driven.EmbeddingService
	timeout time.Duration
	limiter *rate.Limiter
}

// New wraps inner with the given limits.
func New(inner driven.EmbeddingService, cfg Config) *EmbeddingService {
	g := &EmbeddingService{
		inner:   inner,
		timeout: cfg.Timeout,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.BurstSize
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return g
}

// Unwrap returns the wrapped service.
func (g *EmbeddingService) Unwrap() driven.EmbeddingService {
	return g.inner
}

// Embed generates a vector embedding within the configured limits.
func (g *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := g.call(ctx, func(ctx context.Context) error {
		var err error
		out, err = g.inner.Embed(ctx, text)
		return err
	})
	return out, err
}

// EmbedBatch generates embeddings for multiple texts as one limited call.
func (g *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := g.call(ctx, func(ctx context.Context) error {
		var err error
		out, err = g.inner.EmbedBatch(ctx, texts)
		return err
	})
	return out, err
}

// Dimensions returns the embedding vector size.
func (g *EmbeddingService) Dimensions() int {
	return g.inner.Dimensions()
}

// ModelName returns the name of the embedding model being used.
func (g *EmbeddingService) ModelName() string {
	return g.inner.ModelName()
}

// Ping checks connectivity within the configured timeout.
func (g *EmbeddingService) Ping(ctx context.Context) error {
	return g.call(ctx, g.inner.Ping)
}

// Close releases resources.
func (g *EmbeddingService) Close() error {
	return g.inner.Close()
}

// call waits for a token, then runs fn under the timeout.
func (g *EmbeddingService) call(ctx context.Context, fn func(context.Context) error) error {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return g.classify(ctx, err)
		}
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	if err := fn(ctx); err != nil {
		return g.classify(ctx, err)
	}
	return nil
}

// classify maps provider failures to ErrEmbeddingUnavailable.
// Dimension mismatches and caller cancellation pass through unchanged.
func (g *EmbeddingService) classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrDimensionMismatch), errors.Is(err, domain.ErrEmbeddingUnavailable):
		return err
	case errors.Is(err, context.Canceled) && ctx.Err() == context.Canceled:
		return err
	}

	logger.Debug("embedding call to %s failed: %v", g.inner.ModelName(), err)
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
}
