// Package ast defines the WEFT program tree consumed by the core.
// The surface-syntax parser is an external collaborator; the core takes a
// Program as given input and never mutates it.
package ast

// Expr is a node in an expression tree. Expressions are immutable after
// construction and are walked read-only by several phases (dependency
// extraction, typing, required-output propagation).
type Expr interface {
	expr()
}

// Stmt is a top-level program statement.
type Stmt interface {
	stmt()
}

// Program is an ordered sequence of statements.
type Program struct {
	Statements []Stmt
}

// ============================================================================
// Expressions
// ============================================================================

// Num is a numeric literal.
type Num struct {
	Value float64
}

// Str is a string literal.
type Str struct {
	Value string
}

// Var is a plain variable reference.
type Var struct {
	Name string
}

// Me references a field of the current instance (me@field).
type Me struct {
	Field string
}

// Binary is a binary operation.
type Binary struct {
	Op    string
	Left  Expr
	Right Expr
}

// Unary is a unary operation.
type Unary struct {
	Op   string
	Expr Expr
}

// Call applies a callee to arguments. A Call whose callee is a Var naming a
// user-defined spindle is classified as a spindle call; any other Call is a
// builtin.
type Call struct {
	Callee Expr
	Args   []Expr
}

// If is a conditional expression.
type If struct {
	Cond Expr
	Then Expr
	Else Expr
}

// Tuple groups expressions; a tuple bound to a bundle instance pairs items
// with the declared outputs in order.
type Tuple struct {
	Items []Expr
}

// Index subscripts a base expression.
type Index struct {
	Base  Expr
	Index Expr
}

// StrandAccess reads one named output of an instance: base@strand.
type StrandAccess struct {
	Base Expr
	Out  Expr
}

// AxisMapping rebinds one coordinate axis in a strand remap.
type AxisMapping struct {
	Axis  string
	Value Expr
}

// StrandRemap reads base@strand with one or more coordinate axes remapped.
type StrandRemap struct {
	Base     Expr
	Strand   string
	Mappings []AxisMapping
}

func (Num) expr()          {}
func (Str) expr()          {}
func (Var) expr()          {}
func (Me) expr()           {}
func (Binary) expr()       {}
func (Unary) expr()        {}
func (Call) expr()         {}
func (If) expr()           {}
func (Tuple) expr()        {}
func (Index) expr()        {}
func (StrandAccess) expr() {}
func (StrandRemap) expr()  {}

// ============================================================================
// Statements
// ============================================================================

// InstanceBinding defines a named instance: name<outputs...> = expr.
// If Expr is a Tuple, its items are paired with Outputs by index: outputs
// beyond the tuple's length get no expression and extra items are unused.
// Any other Expr is shared by every output.
type InstanceBinding struct {
	Name    string
	Outputs []string
	Expr    Expr
}

// SpindleDef declares a user-defined spindle. The core treats the body
// opaquely; the definition only affects node-type classification.
type SpindleDef struct {
	Name    string
	Inputs  []string
	Outputs []string
	Body    Expr
}

// Assignment tunes the environment (width, height, tempo, ...). It is not
// part of the dataflow graph.
type Assignment struct {
	Name     string
	Op       string
	Expr     Expr
	IsOutput bool
}

// BackendStmt is a terminal sink statement: keyword(args...). Positional
// arguments pin the context of every instance they reference.
type BackendStmt struct {
	Keyword        string
	PositionalArgs []Expr
	NamedArgs      map[string]Expr
}

func (InstanceBinding) stmt() {}
func (SpindleDef) stmt()      {}
func (Assignment) stmt()      {}
func (BackendStmt) stmt()     {}
