package client

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Aashish23092/loan-intake-verification/metrics"
)

type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// Provider is a named text extraction backend.
type Provider struct {
	Name      string
	Extractor TextExtractor
}

// ChainExtractor asks each provider in turn and returns the first non-empty text.
// Provider errors are logged and never surface: when every provider fails the
// result is "" so the document simply fails validation.
type ChainExtractor struct {
	providers []Provider
	logger    *zap.Logger
}

func NewChainExtractor(logger *zap.Logger, providers ...Provider) *ChainExtractor {
	return &ChainExtractor{
		providers: providers,
		logger:    logger,
	}
}

func (c *ChainExtractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	for _, p := range c.providers {
		if ctx.Err() != nil {
			c.logger.Warn("text extraction abandoned", zap.Error(ctx.Err()))
			return "", nil
		}

		start := time.Now()
		text, err := p.Extractor.ExtractText(ctx, data)
		metrics.ProviderDuration.WithLabelValues(p.Name).Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.ProviderFailures.WithLabelValues(p.Name).Inc()
			c.logger.Warn("text extraction provider failed",
				zap.String("provider", p.Name), zap.Error(err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			c.logger.Debug("text extraction provider returned no text", zap.String("provider", p.Name))
			continue
		}

		c.logger.Debug("text extracted",
			zap.String("provider", p.Name), zap.Int("chars", len(text)))
		return text, nil
	}
	return "", nil
}
