package types

import "errors"

// Sentinel errors for the WEFT core. Call sites wrap these with
// fmt.Errorf("...: %w", err) to add instance and strand detail.
var (
	// Structural errors (fatal at compile time)
	ErrUnknownSink        = errors.New("unknown backend")
	ErrDuplicateInstance  = errors.New("duplicate instance name")
	ErrCircularDependency = errors.New("circular dependency")
	ErrContextCycle       = errors.New("circular dependency between contexts")
	ErrNoBackend          = errors.New("no backend registered for context")
	ErrDuplicateBackend   = errors.New("backend already registered for context")
	ErrBackendIndex       = errors.New("backend index out of bounds")

	// Operational errors (fatal to the current call)
	ErrNotCompiled = errors.New("must call Compile() before Execute()")

	// Lookup errors (recoverable at the calling backend)
	ErrNotFound       = errors.New("output not found")
	ErrSamplerNotData = errors.New("sampler handle is not a data source")
	ErrNoHandle       = errors.New("backend does not support handle access")
)
