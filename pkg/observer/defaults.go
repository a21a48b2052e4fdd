package observer

import (
	"context"
	"sync"

	"github.com/weftlang/weft/pkg/logging"
)

// ============================================================================
// Default Observer Implementations
// ============================================================================

// NoOpObserver is a no-operation observer that ignores all events.
// This is useful as a default when no observer is configured.
type NoOpObserver struct{}

// OnEvent implements Observer interface (does nothing)
func (o *NoOpObserver) OnEvent(ctx context.Context, event Event) {
}

// LoggingObserver forwards events to a structured logger. Compile boundaries
// log at info, tick boundaries and per-subgraph events at debug, failures at
// error.
type LoggingObserver struct {
	logger *logging.Logger
}

// NewLoggingObserver creates an observer writing through logger.
func NewLoggingObserver(logger *logging.Logger) *LoggingObserver {
	if logger == nil {
		logger = logging.New(logging.DefaultConfig())
	}
	return &LoggingObserver{logger: logger}
}

// OnEvent implements Observer interface
func (o *LoggingObserver) OnEvent(ctx context.Context, event Event) {
	logger := o.logger.WithField("event", string(event.Type))
	if event.CompileID != "" {
		logger = logger.WithCompileID(event.CompileID)
	}
	if event.ElapsedTime > 0 {
		logger = logger.WithField("elapsed", event.ElapsedTime.String())
	}

	switch event.Type {
	case EventSubgraphCompile, EventSubgraphExecute:
		logger.WithExecContext(event.Context).
			WithField("nodes", event.NodeCount).
			Debug(string(event.Type))
	case EventTickStart:
		logger.WithField("frame", event.Frame).Debug(string(event.Type))
	case EventTickEnd:
		if event.Error != nil {
			logger.WithField("frame", event.Frame).WithError(event.Error).Error(string(event.Type))
			return
		}
		logger.WithField("frame", event.Frame).Debug(string(event.Type))
	default:
		if event.Error != nil {
			logger.WithError(event.Error).Error(string(event.Type))
			return
		}
		logger.Info(string(event.Type))
	}
}

// ============================================================================
// Manager
// ============================================================================

// Manager manages a set of observers and broadcasts events to them.
type Manager struct {
	observers []Observer
	mu        sync.RWMutex
}

// NewManager creates a new observer manager with no observers
func NewManager() *Manager {
	return &Manager{}
}

// NewManagerWithObservers creates a manager pre-populated with observers
func NewManagerWithObservers(observers ...Observer) *Manager {
	return &Manager{observers: observers}
}

// Register adds an observer to the manager
func (m *Manager) Register(observer Observer) {
	if observer == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, observer)
}

// Notify broadcasts an event to all registered observers
func (m *Manager) Notify(ctx context.Context, event Event) {
	m.mu.RLock()
	observers := make([]Observer, len(m.observers))
	copy(observers, m.observers)
	m.mu.RUnlock()

	for _, o := range observers {
		o.OnEvent(ctx, event)
	}
}

// HasObservers reports whether any observer is registered
func (m *Manager) HasObservers() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.observers) > 0
}

// Count returns the number of registered observers
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.observers)
}
