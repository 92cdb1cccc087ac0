// Package renderer turns HTML into PDF bytes on top of a shared browser engine.
package renderer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"pdf-service/internal/domain"
	"pdf-service/internal/infra/cache"
	"pdf-service/internal/infra/logging"
)

// Engine is the external browser that performs layout and printing.
type Engine interface {
	EnsureReady(ctx context.Context) error
	PrintToPDF(ctx context.Context, html string, opts domain.RenderOptions) ([]byte, error)
	Shutdown() error
}

// Renderer validates input, drives the engine and optionally caches results.
type Renderer struct {
	engine   Engine
	cache    cache.Store
	cacheTTL time.Duration
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCache stores successful renders in s for ttl. A nil store disables caching.
func WithCache(s cache.Store, ttl time.Duration) Option {
	return func(r *Renderer) {
		r.cache = s
		r.cacheTTL = ttl
	}
}

// New returns a Renderer backed by engine.
func New(engine Engine, opts ...Option) *Renderer {
	r := &Renderer{engine: engine}
	for _, o := range opts {
		o(r)
	}
	return r
}

// EnsureReady starts the engine if needed.
func (r *Renderer) EnsureReady(ctx context.Context) error {
	return r.engine.EnsureReady(ctx)
}

// RenderToBytes renders html with opts and returns the raw PDF.
func (r *Renderer) RenderToBytes(ctx context.Context, html string, opts domain.RenderOptions) ([]byte, error) {
	if html == "" {
		return nil, fmt.Errorf("%w: html must be a non-empty string", domain.ErrInvalidInput)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var key string
	if r.cache != nil {
		key = cache.Key(html, opts)
		if pdf, err := r.cache.Get(ctx, key); err != nil {
			logging.Warn("PDF cache read failed", "error", err)
		} else if pdf != nil {
			renderTotal.WithLabelValues("cache_hit").Inc()
			logging.Debug("PDF cache hit", "key", key)
			return pdf, nil
		}
	}

	start := time.Now()
	pdf, err := r.engine.PrintToPDF(ctx, html, opts)
	renderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		renderTotal.WithLabelValues("error").Inc()
		if errors.Is(err, domain.ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrRender, err)
	}
	renderTotal.WithLabelValues("ok").Inc()

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, pdf, r.cacheTTL); err != nil {
			logging.Warn("PDF cache write failed", "error", err)
		}
	}
	return pdf, nil
}

// RenderToBase64 is RenderToBytes with standard Base64 encoding.
func (r *Renderer) RenderToBase64(ctx context.Context, html string, opts domain.RenderOptions) (string, error) {
	pdf, err := r.RenderToBytes(ctx, html, opts)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(pdf), nil
}

// Shutdown releases the engine. It is safe to call when nothing is running.
func (r *Renderer) Shutdown() error {
	return r.engine.Shutdown()
}
