package env

import (
	"math"
	"testing"
	"time"

	"github.com/weftlang/weft/pkg/ast"
)

func fixedClock(start time.Time, elapsed *time.Duration) func() time.Time {
	return func() time.Time { return start.Add(*elapsed) }
}

func TestBeginTickStartsClock(t *testing.T) {
	e := New(800, 600)
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	elapsed := time.Duration(0)
	e.SetClock(fixedClock(start, &elapsed))

	if e.AbsTime() != 0 {
		t.Error("AbsTime should be 0 before the first tick")
	}

	e.BeginTick()
	if e.StartTime.IsZero() {
		t.Fatal("first tick should set StartTime")
	}
	if e.Frame != 0 {
		t.Errorf("first tick is frame 0, got %d", e.Frame)
	}

	e.BeginTick()
	e.BeginTick()
	if e.Frame != 2 || e.AbsFrame != 2 {
		t.Errorf("frame counters = %d/%d, want 2/2", e.Frame, e.AbsFrame)
	}

	elapsed = 2500 * time.Millisecond
	if got := e.AbsTime(); math.Abs(got-2.5) > 1e-9 {
		t.Errorf("AbsTime() = %v, want 2.5", got)
	}
}

func TestLoopTimeWraps(t *testing.T) {
	e := New(800, 600)
	e.LoopDuration = 10.0
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	elapsed := time.Duration(0)
	e.SetClock(fixedClock(start, &elapsed))
	e.BeginTick()

	elapsed = 23 * time.Second
	if got := e.Time(); math.Abs(got-3.0) > 1e-9 {
		t.Errorf("Time() = %v, want 3.0", got)
	}
}

func TestMusicalClocks(t *testing.T) {
	e := New(800, 600)
	e.Tempo = 120.0 // 2 beats per second
	e.TimesigNum = 4
	e.LoopDuration = 60.0
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	elapsed := time.Duration(0)
	e.SetClock(fixedClock(start, &elapsed))
	e.BeginTick()

	elapsed = 2250 * time.Millisecond // 4.5 beats
	if got := e.CurrentBeat(); math.Abs(got-4.5) > 1e-9 {
		t.Errorf("CurrentBeat() = %v, want 4.5", got)
	}
	if got := e.BeatPhase(); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("BeatPhase() = %v, want 0.5", got)
	}
	if got := e.CurrentMeasure(); math.Abs(got-1.125) > 1e-9 {
		t.Errorf("CurrentMeasure() = %v, want 1.125", got)
	}
}

func TestApplyAssignments(t *testing.T) {
	tests := []struct {
		name   string
		assign ast.Assignment
		check  func(*Env) bool
	}{
		{
			name:   "width from number",
			assign: ast.Assignment{Name: "width", Op: "=", Expr: ast.Num{Value: 1920}},
			check:  func(e *Env) bool { return e.ResW == 1920 },
		},
		{
			name:   "fps from numeric string",
			assign: ast.Assignment{Name: "fps", Op: "=", Expr: ast.Str{Value: "30"}},
			check:  func(e *Env) bool { return e.TargetFPS == 30 },
		},
		{
			name:   "tempo alias bpm",
			assign: ast.Assignment{Name: "bpm", Op: "=", Expr: ast.Num{Value: 90}},
			check:  func(e *Env) bool { return e.Tempo == 90 },
		},
		{
			name:   "unknown name ignored",
			assign: ast.Assignment{Name: "volume", Op: "=", Expr: ast.Num{Value: 11}},
			check:  func(e *Env) bool { return true },
		},
		{
			name:   "negative width ignored",
			assign: ast.Assignment{Name: "width", Op: "=", Expr: ast.Num{Value: -5}},
			check:  func(e *Env) bool { return e.ResW == 800 },
		},
		{
			name:   "non-literal expression ignored",
			assign: ast.Assignment{Name: "width", Op: "=", Expr: ast.Var{Name: "w"}},
			check:  func(e *Env) bool { return e.ResW == 800 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(800, 600)
			e.Apply(tt.assign)
			if !tt.check(e) {
				t.Errorf("Apply(%v) left env in unexpected state", tt.assign)
			}
		})
	}
}

func TestApplyProgram(t *testing.T) {
	e := New(800, 600)
	prog := &ast.Program{Statements: []ast.Stmt{
		ast.Assignment{Name: "height", Op: "=", Expr: ast.Num{Value: 1080}},
		ast.SpindleDef{Name: "wave", Inputs: []string{"f"}, Outputs: []string{"s"}, Body: ast.Num{Value: 0}},
		ast.InstanceBinding{Name: "a", Outputs: []string{"x"}, Expr: ast.Num{Value: 1}},
	}}
	e.ApplyProgram(prog)

	if e.ResH != 1080 {
		t.Errorf("height = %d, want 1080", e.ResH)
	}
	if !e.IsSpindle("wave") {
		t.Error("spindle definition should be recorded")
	}
	if e.IsSpindle("a") {
		t.Error("instance binding is not a spindle")
	}
}
