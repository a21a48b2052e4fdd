package observer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/weftlang/weft/pkg/logging"
	"github.com/weftlang/weft/pkg/types"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingObserver) OnEvent(ctx context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func TestManagerNotifiesAllObservers(t *testing.T) {
	a := &recordingObserver{}
	b := &recordingObserver{}
	m := NewManagerWithObservers(a)
	m.Register(b)

	if m.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", m.Count())
	}

	m.Notify(context.Background(), Event{Type: EventCompileStart, CompileID: "c1"})

	for i, r := range []*recordingObserver{a, b} {
		if len(r.events) != 1 || r.events[0].Type != EventCompileStart {
			t.Errorf("observer %d got %v", i, r.events)
		}
	}
}

func TestRegisterNilIsIgnored(t *testing.T) {
	m := NewManager()
	m.Register(nil)
	if m.HasObservers() {
		t.Error("nil observer should not be registered")
	}
	// Notify with no observers must not panic.
	m.Notify(context.Background(), Event{Type: EventTickStart})
}

func TestLoggingObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: "debug", Output: &buf})
	o := NewLoggingObserver(logger)

	o.OnEvent(context.Background(), Event{
		Type:      EventSubgraphCompile,
		CompileID: "c1",
		Context:   types.ContextVisual,
		NodeCount: 3,
	})
	if !strings.Contains(buf.String(), "subgraph_compile") {
		t.Errorf("missing event in log output: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "Visual") {
		t.Errorf("missing context in log output: %q", buf.String())
	}

	buf.Reset()
	o.OnEvent(context.Background(), Event{
		Type:  EventTickEnd,
		Error: errors.New("backend exploded"),
		Frame: 9,
	})
	if !strings.Contains(buf.String(), "ERROR") && !strings.Contains(buf.String(), "error") {
		t.Errorf("tick failure should log at error level: %q", buf.String())
	}
}

func TestNoOpObserver(t *testing.T) {
	var o NoOpObserver
	o.OnEvent(context.Background(), Event{Type: EventCompileEnd})
}
