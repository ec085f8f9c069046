package ports

import (
	"context"
	"io"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	// EmitPlan signals that a set of targets is planned for execution.
	// deps maps each target to the planned targets it waits on.
	EmitPlan(ctx context.Context, targets []string, deps map[string][]string, requested []string)
}

// Span represents a unit of work.
type Span interface {
	io.Writer
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}

// SpanConfig holds configuration for a starting span.
type SpanConfig struct {
	// Gated marks spans of targets protected by the merge policy.
	Gated bool
}

// SpanOption is a functional option for configuring a span.
type SpanOption func(*SpanConfig)

// WithGated marks the span as belonging to a gated target.
func WithGated() SpanOption {
	return func(c *SpanConfig) {
		c.Gated = true
	}
}
