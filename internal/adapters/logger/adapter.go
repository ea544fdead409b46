// Package logger provides adapters for the logging interface.
package logger

import (
	"context"
)

// Logger defines the logging interface used throughout the application.
// External loggers that implement these methods can be wrapped with ZapAdapter.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]any)
	Debug(ctx context.Context, msg string, fields map[string]any)
	Warn(ctx context.Context, msg string, fields map[string]any)
	Error(ctx context.Context, msg string, err error, fields map[string]any)
}

// ComponentField is the field naming the part of the build that logged an entry.
const ComponentField = "component"

// ZapAdapter adapts a Logger to the application's logging interface.
// When a component is set, every entry carries it under ComponentField.
type ZapAdapter struct {
	log       Logger
	component string
}

// NewZapAdapter creates a new ZapAdapter wrapping the given logger.
func NewZapAdapter(log Logger) *ZapAdapter {
	return &ZapAdapter{log: log}
}

// WithComponent returns an adapter sharing the same logger that tags entries with component.
func (a *ZapAdapter) WithComponent(component string) *ZapAdapter {
	return &ZapAdapter{log: a.log, component: component}
}

// Info logs an info message.
func (a *ZapAdapter) Info(ctx context.Context, msg string, fields map[string]any) {
	a.log.Info(ctx, msg, a.fields(fields))
}

// Debug logs a debug message.
func (a *ZapAdapter) Debug(ctx context.Context, msg string, fields map[string]any) {
	a.log.Debug(ctx, msg, a.fields(fields))
}

// Warn logs a warning message.
func (a *ZapAdapter) Warn(ctx context.Context, msg string, fields map[string]any) {
	a.log.Warn(ctx, msg, a.fields(fields))
}

// Error logs an error message.
func (a *ZapAdapter) Error(ctx context.Context, msg string, err error, fields map[string]any) {
	a.log.Error(ctx, msg, err, a.fields(fields))
}

// fields copies the caller's fields so the component tag never leaks into them.
func (a *ZapAdapter) fields(fields map[string]any) map[string]any {
	if a.component == "" {
		return fields
	}

	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out[ComponentField] = a.component
	return out
}
