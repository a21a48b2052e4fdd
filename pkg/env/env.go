// Package env provides the execution environment shared by the core and its
// backends: resolution, clocks, musical timing, and user spindle definitions.
package env

import (
	"time"

	"github.com/weftlang/weft/pkg/ast"
	"github.com/weftlang/weft/pkg/config"
)

// Env carries program-wide settings and clocks. The core reads Spindles
// during node-type classification and passes the Env verbatim to backends on
// every compile and execute call.
type Env struct {
	// display
	ResW int
	ResH int

	// program timing
	Frame        uint64
	AbsFrame     uint64
	StartTime    time.Time // zero until the first tick
	TargetFPS    float64
	LoopDuration float64

	// audio
	SampleRate float64

	// music
	Tempo       float64
	TimesigNum  int
	TimesigDen  int

	// user
	Spindles map[string]ast.SpindleDef

	// now is the clock source; tests may replace it.
	now func() time.Time
}

// New creates an Env with the given resolution and default timing.
func New(width, height int) *Env {
	return FromConfig(config.Default(), width, height)
}

// FromConfig creates an Env seeded from cfg. Width and height override the
// config values when positive.
func FromConfig(cfg *config.Config, width, height int) *Env {
	if width <= 0 {
		width = cfg.Width
	}
	if height <= 0 {
		height = cfg.Height
	}
	return &Env{
		ResW:         width,
		ResH:         height,
		TargetFPS:    cfg.TargetFPS,
		LoopDuration: cfg.LoopDuration,
		SampleRate:   cfg.SampleRate,
		Tempo:        cfg.Tempo,
		TimesigNum:   4,
		TimesigDen:   4,
		Spindles:     make(map[string]ast.SpindleDef),
		now:          time.Now,
	}
}

// SetClock replaces the wall-clock source. Intended for tests.
func (e *Env) SetClock(now func() time.Time) {
	e.now = now
}

// BeginTick advances the frame counters, starting the program clock on the
// first call.
func (e *Env) BeginTick() {
	if e.StartTime.IsZero() {
		e.StartTime = e.clock()()
		return
	}
	e.Frame++
	e.AbsFrame++
}

func (e *Env) clock() func() time.Time {
	if e.now == nil {
		return time.Now
	}
	return e.now
}

// AbsTime returns seconds elapsed since the first tick, 0 before it.
func (e *Env) AbsTime() float64 {
	if e.StartTime.IsZero() {
		return 0
	}
	return e.clock()().Sub(e.StartTime).Seconds()
}

// Time returns the loop-local time in seconds.
func (e *Env) Time() float64 {
	if e.LoopDuration <= 0 {
		return e.AbsTime()
	}
	t := e.AbsTime()
	loops := int(t / e.LoopDuration)
	return t - float64(loops)*e.LoopDuration
}

// CurrentBeat returns the beat count at the loop-local time.
func (e *Env) CurrentBeat() float64 {
	return (e.Time() / 60.0) * e.Tempo
}

// CurrentMeasure returns the measure count at the loop-local time.
func (e *Env) CurrentMeasure() float64 {
	if e.TimesigNum == 0 {
		return 0
	}
	return e.CurrentBeat() / float64(e.TimesigNum)
}

// BeatPhase returns the fraction of the current beat in [0, 1).
func (e *Env) BeatPhase() float64 {
	b := e.CurrentBeat()
	return b - float64(int(b))
}

// MeasurePhase returns the fraction of the current measure in [0, 1).
func (e *Env) MeasurePhase() float64 {
	m := e.CurrentMeasure()
	return m - float64(int(m))
}

// DefineSpindle records a user spindle definition.
func (e *Env) DefineSpindle(def ast.SpindleDef) {
	if e.Spindles == nil {
		e.Spindles = make(map[string]ast.SpindleDef)
	}
	e.Spindles[def.Name] = def
}

// IsSpindle reports whether name is a user-defined spindle.
func (e *Env) IsSpindle(name string) bool {
	_, ok := e.Spindles[name]
	return ok
}
