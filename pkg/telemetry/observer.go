package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/weftlang/weft/pkg/observer"
)

// Observer implements observer.Observer and records telemetry for
// coordinator lifecycle events. Register it with the coordinator:
//
//	provider, _ := telemetry.NewProvider(ctx, telemetry.DefaultConfig())
//	coord.RegisterObserver(telemetry.NewObserver(provider))
type Observer struct {
	provider *Provider

	compileSpan trace.Span
}

// NewObserver creates a telemetry observer backed by provider.
func NewObserver(provider *Provider) *Observer {
	return &Observer{provider: provider}
}

// OnEvent handles coordinator events and records telemetry data
func (o *Observer) OnEvent(ctx context.Context, event observer.Event) {
	switch event.Type {
	case observer.EventCompileStart:
		o.handleCompileStart(ctx, event)
	case observer.EventCompileEnd:
		o.handleCompileEnd(ctx, event)
	case observer.EventTickEnd:
		o.handleTickEnd(ctx, event)
	case observer.EventSubgraphCompile, observer.EventSubgraphExecute:
		o.handleSubgraph(ctx, event)
	}
}

func (o *Observer) handleCompileStart(ctx context.Context, event observer.Event) {
	_, span := o.provider.Tracer().Start(ctx, "weft.compile",
		trace.WithAttributes(
			attribute.String("compile.id", event.CompileID),
		),
	)
	o.compileSpan = span
}

func (o *Observer) handleCompileEnd(ctx context.Context, event observer.Event) {
	if o.provider.compiles != nil {
		o.provider.compiles.Add(ctx, 1)
		o.provider.compileDuration.Record(ctx, float64(event.ElapsedTime.Milliseconds()))
		if event.Error != nil {
			o.provider.compileFailures.Add(ctx, 1)
		}
	}
	if o.compileSpan != nil {
		if event.Error != nil {
			o.compileSpan.RecordError(event.Error)
			o.compileSpan.SetStatus(codes.Error, event.Error.Error())
		} else {
			o.compileSpan.SetStatus(codes.Ok, "")
		}
		o.compileSpan.End()
		o.compileSpan = nil
	}
}

func (o *Observer) handleTickEnd(ctx context.Context, event observer.Event) {
	if o.provider.ticks == nil {
		return
	}
	o.provider.ticks.Add(ctx, 1)
	o.provider.tickDuration.Record(ctx, float64(event.ElapsedTime.Milliseconds()))
	if event.Error != nil {
		o.provider.tickFailures.Add(ctx, 1)
	}
}

func (o *Observer) handleSubgraph(ctx context.Context, event observer.Event) {
	if o.provider.subgraphDuration == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("context", event.Context.Name()),
		attribute.String("phase", string(event.Type)),
	)
	o.provider.subgraphDuration.Record(ctx, float64(event.ElapsedTime.Milliseconds()), attrs)
	if event.Type == observer.EventSubgraphCompile {
		o.provider.subgraphNodes.Record(ctx, int64(event.NodeCount), attrs)
	}
}
