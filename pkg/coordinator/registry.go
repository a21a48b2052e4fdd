package coordinator

import (
	"fmt"
	"sync"

	"github.com/weftlang/weft/pkg/types"
)

// OutputLocation records where one exposed output lives: the owning backend
// and the handle it registered.
type OutputLocation struct {
	Instance     string
	Strand       string
	BackendIndex int
	Handle       types.OutputHandle
}

// OutputRegistry maps (instance, strand) pairs to their output locations.
// Entries are written by backends during compile and read during execute
// and lookup; they live until the next compile clears the registry.
type OutputRegistry struct {
	outputs map[string]OutputLocation
	mu      sync.RWMutex
}

// NewOutputRegistry creates an empty registry.
func NewOutputRegistry() *OutputRegistry {
	return &OutputRegistry{
		outputs: make(map[string]OutputLocation),
	}
}

func outputKey(instance, strand string) string {
	return instance + "@" + strand
}

// Register records an output location. Registration is idempotent with
// last-write-wins semantics.
func (r *OutputRegistry) Register(instance, strand string, handle types.OutputHandle, backendIndex int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs[outputKey(instance, strand)] = OutputLocation{
		Instance:     instance,
		Strand:       strand,
		BackendIndex: backendIndex,
		Handle:       handle,
	}
}

// Get returns the location of an exposed output.
func (r *OutputRegistry) Get(instance, strand string) (OutputLocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loc, ok := r.outputs[outputKey(instance, strand)]
	if !ok {
		return OutputLocation{}, fmt.Errorf("%w: %s@%s", types.ErrNotFound, instance, strand)
	}
	return loc, nil
}

// Contains reports whether an output has been exposed.
func (r *OutputRegistry) Contains(instance, strand string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.outputs[outputKey(instance, strand)]
	return ok
}

// All returns every registered location.
func (r *OutputRegistry) All() []OutputLocation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]OutputLocation, 0, len(r.outputs))
	for _, loc := range r.outputs {
		out = append(out, loc)
	}
	return out
}

// Len returns the number of registered outputs.
func (r *OutputRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.outputs)
}

// Clear removes every entry. Recompiling rebuilds the registry from scratch.
func (r *OutputRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs = make(map[string]OutputLocation)
}
