package ast

// OutputDep identifies one producer strand consumed by an expression.
type OutputDep struct {
	Instance string
	Strand   string
}

// InstanceDeps collects the names of every instance referenced anywhere in
// expr. Only StrandAccess and StrandRemap introduce dependencies; literals,
// plain vars, and me@field contribute nothing.
func InstanceDeps(expr Expr) map[string]struct{} {
	deps := make(map[string]struct{})
	collectInstanceDeps(expr, deps)
	return deps
}

func collectInstanceDeps(expr Expr, deps map[string]struct{}) {
	switch e := expr.(type) {
	case StrandAccess:
		if base, ok := e.Base.(Var); ok {
			deps[base.Name] = struct{}{}
		}
	case StrandRemap:
		if base, ok := e.Base.(Var); ok {
			deps[base.Name] = struct{}{}
		}
		for _, m := range e.Mappings {
			collectInstanceDeps(m.Value, deps)
		}
	case Binary:
		collectInstanceDeps(e.Left, deps)
		collectInstanceDeps(e.Right, deps)
	case Unary:
		collectInstanceDeps(e.Expr, deps)
	case Call:
		for _, arg := range e.Args {
			collectInstanceDeps(arg, deps)
		}
	case If:
		collectInstanceDeps(e.Cond, deps)
		collectInstanceDeps(e.Then, deps)
		collectInstanceDeps(e.Else, deps)
	case Tuple:
		for _, item := range e.Items {
			collectInstanceDeps(item, deps)
		}
	case Index:
		collectInstanceDeps(e.Base, deps)
		collectInstanceDeps(e.Index, deps)
	}
}

// OutputDeps collects the ordered list of (instance, strand) pairs consumed
// by expr, precisely identifying which producer strands feed it.
func OutputDeps(expr Expr) []OutputDep {
	var deps []OutputDep
	collectOutputDeps(expr, &deps)
	return deps
}

func collectOutputDeps(expr Expr, deps *[]OutputDep) {
	switch e := expr.(type) {
	case StrandAccess:
		base, baseOK := e.Base.(Var)
		out, outOK := e.Out.(Var)
		if baseOK && outOK {
			*deps = append(*deps, OutputDep{Instance: base.Name, Strand: out.Name})
		}
	case StrandRemap:
		if base, ok := e.Base.(Var); ok {
			*deps = append(*deps, OutputDep{Instance: base.Name, Strand: e.Strand})
		}
		for _, m := range e.Mappings {
			collectOutputDeps(m.Value, deps)
		}
	case Binary:
		collectOutputDeps(e.Left, deps)
		collectOutputDeps(e.Right, deps)
	case Unary:
		collectOutputDeps(e.Expr, deps)
	case Call:
		for _, arg := range e.Args {
			collectOutputDeps(arg, deps)
		}
	case If:
		collectOutputDeps(e.Cond, deps)
		collectOutputDeps(e.Then, deps)
		collectOutputDeps(e.Else, deps)
	case Tuple:
		for _, item := range e.Items {
			collectOutputDeps(item, deps)
		}
	case Index:
		collectOutputDeps(e.Base, deps)
		collectOutputDeps(e.Index, deps)
	}
}

// CalleeName returns the builtin or spindle name of a Call expression when
// the callee is a plain Var.
func CalleeName(expr Expr) (string, bool) {
	call, ok := expr.(Call)
	if !ok {
		return "", false
	}
	v, ok := call.Callee.(Var)
	if !ok {
		return "", false
	}
	return v.Name, true
}
