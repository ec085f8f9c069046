package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/gate/internal/core/ports"
)

const (
	attrGated      = attribute.Key("gate.gated")
	attrGatePassed = attribute.Key("gate.passed")
)

var _ sdktrace.SpanProcessor = (*Bridge)(nil)

// Bridge is a SpanProcessor that reports target spans to a ports.Renderer.
// Span ids double as the renderer's handle for a target.
type Bridge struct {
	renderer ports.Renderer
}

// NewBridge returns a Bridge. A nil renderer turns it into a no-op.
func NewBridge(renderer ports.Renderer) *Bridge {
	return &Bridge{renderer: renderer}
}

// OnStart announces the target to the renderer.
func (b *Bridge) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	sc := s.SpanContext()
	if b.renderer == nil || !sc.IsValid() {
		return
	}

	parentID := ""
	if psc := trace.SpanContextFromContext(parent); psc.IsValid() {
		parentID = psc.SpanID().String()
	}
	b.renderer.OnTaskStart(sc.SpanID().String(), parentID, s.Name(), s.StartTime())
}

// OnEnd reports the outcome recorded on the span.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	sc := s.SpanContext()
	if b.renderer == nil || !sc.IsValid() {
		return
	}
	b.renderer.OnTaskComplete(sc.SpanID().String(), s.EndTime(), spanError(s))
}

// ForceFlush is a no-op; events are forwarded synchronously.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown is a no-op.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}

func spanError(s sdktrace.ReadOnlySpan) error {
	status := s.Status()
	if status.Code != codes.Error {
		return nil
	}

	msg := status.Description
	if msg == "" {
		msg = "target failed"
	}
	if gateRejected(s.Attributes()) {
		msg = "branch gate: " + msg
	}
	return errors.New(msg)
}

func gateRejected(attrs []attribute.KeyValue) bool {
	for _, kv := range attrs {
		if kv.Key == attrGatePassed {
			return !kv.Value.AsBool()
		}
	}
	return false
}
