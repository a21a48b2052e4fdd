package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"

	"github.com/weftlang/weft/pkg/observer"
	"github.com/weftlang/weft/pkg/types"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := NewProvider(context.Background(), Config{
		ServiceName:    "weft-test",
		ServiceVersion: "0.0.0",
		Environment:    "test",
		EnableTracing:  true,
		EnableMetrics:  true,
		Registerer:     promclient.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("NewProvider() failed: %v", err)
	}
	t.Cleanup(func() {
		_ = p.Shutdown(context.Background())
	})
	return p
}

func TestProviderCreatesInstruments(t *testing.T) {
	p := newTestProvider(t)
	if p.compiles == nil || p.ticks == nil || p.subgraphDuration == nil {
		t.Error("metric instruments should be created when metrics are enabled")
	}
	if p.Tracer() == nil {
		t.Error("tracer should be available")
	}
}

func TestMetricsDisabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{
		ServiceName:   "weft-test",
		EnableMetrics: false,
		EnableTracing: false,
	})
	if err != nil {
		t.Fatalf("NewProvider() failed: %v", err)
	}
	if p.compiles != nil {
		t.Error("instruments should be nil with metrics disabled")
	}
	// Observer must tolerate a metrics-free provider.
	o := NewObserver(p)
	o.OnEvent(context.Background(), observer.Event{Type: observer.EventTickEnd})
	o.OnEvent(context.Background(), observer.Event{
		Type:    observer.EventSubgraphExecute,
		Context: types.ContextVisual,
	})
}

func TestObserverHandlesFullLifecycle(t *testing.T) {
	p := newTestProvider(t)
	o := NewObserver(p)
	ctx := context.Background()

	o.OnEvent(ctx, observer.Event{Type: observer.EventCompileStart, CompileID: "c1"})
	o.OnEvent(ctx, observer.Event{
		Type:        observer.EventSubgraphCompile,
		CompileID:   "c1",
		Context:     types.ContextVisual,
		NodeCount:   4,
		ElapsedTime: time.Millisecond,
	})
	o.OnEvent(ctx, observer.Event{Type: observer.EventCompileEnd, CompileID: "c1", ElapsedTime: 2 * time.Millisecond})
	o.OnEvent(ctx, observer.Event{Type: observer.EventTickStart, Frame: 0})
	o.OnEvent(ctx, observer.Event{
		Type:        observer.EventSubgraphExecute,
		Context:     types.ContextVisual,
		ElapsedTime: time.Millisecond,
	})
	o.OnEvent(ctx, observer.Event{Type: observer.EventTickEnd, Frame: 0, ElapsedTime: time.Millisecond})

	// Failure paths.
	o.OnEvent(ctx, observer.Event{Type: observer.EventCompileStart, CompileID: "c2"})
	o.OnEvent(ctx, observer.Event{Type: observer.EventCompileEnd, CompileID: "c2", Error: errors.New("boom")})
	o.OnEvent(ctx, observer.Event{Type: observer.EventTickEnd, Error: errors.New("tick boom")})
}
