// Package program decodes WEFT program documents. The surface parser is an
// external collaborator; its output crosses into the core as a JSON document
// that this package validates and decodes into an ast.Program.
package program

import (
	"encoding/json"
	"fmt"

	"github.com/weftlang/weft/pkg/ast"
)

// Document is the JSON payload wrapping a program.
type Document struct {
	ProgramID  string            `json:"program_id,omitempty"`
	Statements []json.RawMessage `json:"statements"`
}

// Decode validates and decodes a program document.
func Decode(data []byte) (*ast.Program, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	return decode(data)
}

// DecodeUnchecked decodes without schema validation. Intended for documents
// produced by the in-process parser rather than untrusted input.
func DecodeUnchecked(data []byte) (*ast.Program, error) {
	return decode(data)
}

func decode(data []byte) (*ast.Program, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	prog := &ast.Program{Statements: make([]ast.Stmt, 0, len(doc.Statements))}
	for i, raw := range doc.Statements {
		stmt, err := decodeStatement(raw)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i, err)
		}
		prog.Statements = append(prog.Statements, stmt)
	}
	return prog, nil
}

// decodeStatement decodes one statement by its kind discriminator.
func decodeStatement(data json.RawMessage) (ast.Stmt, error) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	switch head.Kind {
	case "instance":
		var s struct {
			Name    string          `json:"name"`
			Outputs []string        `json:"outputs"`
			Expr    json.RawMessage `json:"expr"`
		}
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		expr, err := decodeExpr(s.Expr)
		if err != nil {
			return nil, err
		}
		return ast.InstanceBinding{Name: s.Name, Outputs: s.Outputs, Expr: expr}, nil

	case "spindle":
		var s struct {
			Name    string          `json:"name"`
			Inputs  []string        `json:"inputs"`
			Outputs []string        `json:"outputs"`
			Body    json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		body, err := decodeExpr(s.Body)
		if err != nil {
			return nil, err
		}
		return ast.SpindleDef{Name: s.Name, Inputs: s.Inputs, Outputs: s.Outputs, Body: body}, nil

	case "assign":
		var s struct {
			Name     string          `json:"name"`
			Op       string          `json:"op"`
			Expr     json.RawMessage `json:"expr"`
			IsOutput bool            `json:"is_output,omitempty"`
		}
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		expr, err := decodeExpr(s.Expr)
		if err != nil {
			return nil, err
		}
		return ast.Assignment{Name: s.Name, Op: s.Op, Expr: expr, IsOutput: s.IsOutput}, nil

	case "backend":
		var s struct {
			Keyword   string                     `json:"keyword"`
			Args      []json.RawMessage          `json:"args"`
			NamedArgs map[string]json.RawMessage `json:"named_args,omitempty"`
		}
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		stmt := ast.BackendStmt{Keyword: s.Keyword}
		for _, rawArg := range s.Args {
			arg, err := decodeExpr(rawArg)
			if err != nil {
				return nil, err
			}
			stmt.PositionalArgs = append(stmt.PositionalArgs, arg)
		}
		if len(s.NamedArgs) > 0 {
			stmt.NamedArgs = make(map[string]ast.Expr, len(s.NamedArgs))
			for name, rawArg := range s.NamedArgs {
				arg, err := decodeExpr(rawArg)
				if err != nil {
					return nil, err
				}
				stmt.NamedArgs[name] = arg
			}
		}
		return stmt, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatementKind, head.Kind)
	}
}

// decodeExpr decodes one expression by its type discriminator.
func decodeExpr(data json.RawMessage) (ast.Expr, error) {
	if len(data) == 0 {
		return nil, ErrMissingExpression
	}
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	switch head.Type {
	case "num":
		var e struct {
			Value float64 `json:"value"`
		}
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		return ast.Num{Value: e.Value}, nil

	case "str":
		var e struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		return ast.Str{Value: e.Value}, nil

	case "var":
		var e struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		return ast.Var{Name: e.Name}, nil

	case "me":
		var e struct {
			Field string `json:"field"`
		}
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		return ast.Me{Field: e.Field}, nil

	case "binary":
		var e struct {
			Op    string          `json:"op"`
			Left  json.RawMessage `json:"left"`
			Right json.RawMessage `json:"right"`
		}
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		left, err := decodeExpr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(e.Right)
		if err != nil {
			return nil, err
		}
		return ast.Binary{Op: e.Op, Left: left, Right: right}, nil

	case "unary":
		var e struct {
			Op   string          `json:"op"`
			Expr json.RawMessage `json:"expr"`
		}
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		inner, err := decodeExpr(e.Expr)
		if err != nil {
			return nil, err
		}
		return ast.Unary{Op: e.Op, Expr: inner}, nil

	case "call":
		var e struct {
			Callee json.RawMessage   `json:"callee"`
			Args   []json.RawMessage `json:"args"`
		}
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		callee, err := decodeExpr(e.Callee)
		if err != nil {
			return nil, err
		}
		call := ast.Call{Callee: callee}
		for _, rawArg := range e.Args {
			arg, err := decodeExpr(rawArg)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
		}
		return call, nil

	case "if":
		var e struct {
			Cond json.RawMessage `json:"cond"`
			Then json.RawMessage `json:"then"`
			Else json.RawMessage `json:"else"`
		}
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		cond, err := decodeExpr(e.Cond)
		if err != nil {
			return nil, err
		}
		thenExpr, err := decodeExpr(e.Then)
		if err != nil {
			return nil, err
		}
		elseExpr, err := decodeExpr(e.Else)
		if err != nil {
			return nil, err
		}
		return ast.If{Cond: cond, Then: thenExpr, Else: elseExpr}, nil

	case "tuple":
		var e struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		tuple := ast.Tuple{}
		for _, rawItem := range e.Items {
			item, err := decodeExpr(rawItem)
			if err != nil {
				return nil, err
			}
			tuple.Items = append(tuple.Items, item)
		}
		return tuple, nil

	case "index":
		var e struct {
			Base  json.RawMessage `json:"base"`
			Index json.RawMessage `json:"index"`
		}
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		base, err := decodeExpr(e.Base)
		if err != nil {
			return nil, err
		}
		index, err := decodeExpr(e.Index)
		if err != nil {
			return nil, err
		}
		return ast.Index{Base: base, Index: index}, nil

	case "strand_access":
		var e struct {
			Base json.RawMessage `json:"base"`
			Out  json.RawMessage `json:"out"`
		}
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		base, err := decodeExpr(e.Base)
		if err != nil {
			return nil, err
		}
		out, err := decodeExpr(e.Out)
		if err != nil {
			return nil, err
		}
		return ast.StrandAccess{Base: base, Out: out}, nil

	case "strand_remap":
		var e struct {
			Base     json.RawMessage `json:"base"`
			Strand   string          `json:"strand"`
			Mappings []struct {
				Axis  string          `json:"axis"`
				Value json.RawMessage `json:"value"`
			} `json:"mappings"`
		}
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		base, err := decodeExpr(e.Base)
		if err != nil {
			return nil, err
		}
		remap := ast.StrandRemap{Base: base, Strand: e.Strand}
		for _, m := range e.Mappings {
			value, err := decodeExpr(m.Value)
			if err != nil {
				return nil, err
			}
			remap.Mappings = append(remap.Mappings, ast.AxisMapping{Axis: m.Axis, Value: value})
		}
		return remap, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExprType, head.Type)
	}
}
