package log

import (
	"context"
	"log/slog"
)

type attrsKey struct{}

// WithAttrs returns a copy of ctx whose log records carry args, in slog key/value form.
// Records pick them up when logged through a handler built by New.
func WithAttrs(ctx context.Context, args ...any) context.Context {
	if len(args) == 0 {
		return ctx
	}
	var attrs []slog.Attr
	if prev, ok := ctx.Value(attrsKey{}).([]slog.Attr); ok {
		attrs = append(attrs, prev...)
	}
	attrs = append(attrs, slog.Group("", args...).Value.Group()...)
	return context.WithValue(ctx, attrsKey{}, attrs)
}

// ContextHandler adds the attributes stored by WithAttrs to every record it handles
type ContextHandler struct {
	slog.Handler
}

// NewContextHandler wraps next so records logged with a context include its attributes.
func NewContextHandler(next slog.Handler) *ContextHandler {
	if h, ok := next.(*ContextHandler); ok {
		return h
	}
	return &ContextHandler{Handler: next}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(attrsKey{}).([]slog.Attr); ok {
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithGroup(name)}
}
