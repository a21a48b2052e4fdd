package config

import "errors"

// Sentinel errors for configuration validation
var (
	ErrInvalidResolution     = errors.New("invalid resolution: width and height must be positive")
	ErrInvalidFPS            = errors.New("invalid target FPS: must be positive")
	ErrInvalidSampleRate     = errors.New("invalid sample rate: must be positive")
	ErrInvalidTempo          = errors.New("invalid tempo: must be positive")
	ErrInvalidLoopDuration   = errors.New("invalid loop duration: must be positive")
	ErrInvalidMaxNodes       = errors.New("invalid max nodes: must be non-negative")
	ErrInvalidMaxEdges       = errors.New("invalid max edges: must be non-negative")
	ErrInvalidMaxOutputs     = errors.New("invalid max outputs per node: must be non-negative")
	ErrInvalidMaxProgramSize = errors.New("invalid max program size: must be non-negative")
)
