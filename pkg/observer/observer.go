// Package observer provides the Observer pattern implementation for
// coordinator lifecycle monitoring. Library consumers register observers to
// track compiles, ticks, and per-subgraph backend calls.
package observer

import (
	"context"
	"time"

	"github.com/weftlang/weft/pkg/types"
)

// EventType represents the type of coordinator event
type EventType string

const (
	// Compile-level events
	EventCompileStart EventType = "compile_start"
	EventCompileEnd   EventType = "compile_end"

	// Tick-level events
	EventTickStart EventType = "tick_start"
	EventTickEnd   EventType = "tick_end"

	// Subgraph-level events
	EventSubgraphCompile EventType = "subgraph_compile"
	EventSubgraphExecute EventType = "subgraph_execute"
)

// Event represents a coordinator event with all relevant metadata
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// CompileID identifies the compile this event belongs to.
	CompileID string `json:"compile_id,omitempty"`

	// Context is set for subgraph-level events.
	Context types.Context `json:"context,omitempty"`
	// NodeCount is the subgraph's node count for subgraph-level events.
	NodeCount int `json:"node_count,omitempty"`

	// Frame is set for tick-level events.
	Frame uint64 `json:"frame,omitempty"`

	ElapsedTime time.Duration `json:"elapsed_time,omitempty"`
	Error       error         `json:"error,omitempty"`
}

// Observer receives notifications about coordinator events.
type Observer interface {
	// OnEvent is called when a coordinator event occurs. The context can be
	// used for cancellation and passing request-scoped values.
	OnEvent(ctx context.Context, event Event)
}
