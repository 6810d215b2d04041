package logging

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	addonIDKey ctxKey = iota
	categoryKey
	unitKey
	runIDKey
	loggerKey
)

// WithAddonID returns a context with the addon ID set.
func WithAddonID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, addonIDKey, id)
}

// WithCategory returns a context with the unit category set.
func WithCategory(ctx context.Context, category string) context.Context {
	return context.WithValue(ctx, categoryKey, category)
}

// WithUnit returns a context with the unit name set.
func WithUnit(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, unitKey, name)
}

// WithRunID returns a context with the self-test run ID set.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// AddonID extracts the addon ID from the context, or "" if absent.
func AddonID(ctx context.Context) string {
	v, _ := ctx.Value(addonIDKey).(string)
	return v
}

// Category extracts the unit category from the context, or "" if absent.
func Category(ctx context.Context) string {
	v, _ := ctx.Value(categoryKey).(string)
	return v
}

// Unit extracts the unit name from the context, or "" if absent.
func Unit(ctx context.Context) string {
	v, _ := ctx.Value(unitKey).(string)
	return v
}

// RunID extracts the run ID from the context, or "" if absent.
func RunID(ctx context.Context) string {
	v, _ := ctx.Value(runIDKey).(string)
	return v
}

// WithLogger returns a context carrying logger, for handlers that only see a context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored by WithLogger, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// correlationAttrs returns the non-empty correlation IDs stored in ctx.
func correlationAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if v := AddonID(ctx); v != "" {
		attrs = append(attrs, slog.String("addon_id", v))
	}
	if v := Category(ctx); v != "" {
		attrs = append(attrs, slog.String("category", v))
	}
	if v := Unit(ctx); v != "" {
		attrs = append(attrs, slog.String("unit", v))
	}
	if v := RunID(ctx); v != "" {
		attrs = append(attrs, slog.String("run_id", v))
	}
	return attrs
}

// LogWith returns a logger enriched with correlation IDs from the context.
// Only non-empty values are added as attributes.
func LogWith(ctx context.Context, logger *slog.Logger) *slog.Logger {
	for _, a := range correlationAttrs(ctx) {
		logger = logger.With(a)
	}
	return logger
}

// CorrelationHandler wraps an slog.Handler, automatically injecting
// correlation IDs from the context into every log record.
// Use with slog.New(NewCorrelationHandler(inner)) so callers can use
// logger.InfoContext(ctx, ...) and IDs appear automatically.
type CorrelationHandler struct {
	inner slog.Handler
}

// NewCorrelationHandler wraps the given handler with automatic correlation ID injection.
func NewCorrelationHandler(inner slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{inner: inner}
}

func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(correlationAttrs(ctx)...)
	return h.inner.Handle(ctx, r)
}

func (h *CorrelationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *CorrelationHandler) WithGroup(name string) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithGroup(name)}
}
