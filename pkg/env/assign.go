package env

import (
	"github.com/spf13/cast"

	"github.com/weftlang/weft/pkg/ast"
)

// Apply folds one Assignment statement into the environment. Only literal
// values are folded; assignments naming an unknown setting or carrying a
// non-literal expression are ignored, matching the tolerant behavior of the
// tick driver.
func (e *Env) Apply(a ast.Assignment) {
	value := literalValue(a.Expr)
	if value == nil {
		return
	}

	switch a.Name {
	case "width":
		if w, err := cast.ToIntE(value); err == nil && w > 0 {
			e.ResW = w
		}
	case "height":
		if h, err := cast.ToIntE(value); err == nil && h > 0 {
			e.ResH = h
		}
	case "fps", "target_fps":
		if f, err := cast.ToFloat64E(value); err == nil && f > 0 {
			e.TargetFPS = f
		}
	case "loop", "loop_duration":
		if d, err := cast.ToFloat64E(value); err == nil && d > 0 {
			e.LoopDuration = d
		}
	case "sample_rate":
		if r, err := cast.ToFloat64E(value); err == nil && r > 0 {
			e.SampleRate = r
		}
	case "tempo", "bpm":
		if b, err := cast.ToFloat64E(value); err == nil && b > 0 {
			e.Tempo = b
		}
	case "timesig_num":
		if n, err := cast.ToIntE(value); err == nil && n > 0 {
			e.TimesigNum = n
		}
	case "timesig_denom":
		if d, err := cast.ToIntE(value); err == nil && d > 0 {
			e.TimesigDen = d
		}
	}
}

// ApplyProgram folds every Assignment and SpindleDef statement of a program
// into the environment.
func (e *Env) ApplyProgram(prog *ast.Program) {
	for _, stmt := range prog.Statements {
		switch s := stmt.(type) {
		case ast.Assignment:
			e.Apply(s)
		case ast.SpindleDef:
			e.DefineSpindle(s)
		}
	}
}

func literalValue(expr ast.Expr) any {
	switch v := expr.(type) {
	case ast.Num:
		return v.Value
	case ast.Str:
		return v.Value
	default:
		return nil
	}
}
