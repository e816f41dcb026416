// Package analyzer implements the A component of spec §4.A: it turns
// reader Forms into a Node IR, resolving every symbol to a local, a Var,
// or an unresolved-symbol error; expanding macros via the dispatch
// vtable's tree-walk call bridge; desugaring destructuring binding forms;
// and validating recur only appears in tail position of a loop/fn body.
//
// Grounded on the teacher's internal/ast package for the general shape
// of a single tagged Node struct carrying a source Position (rather than
// one Go type per node kind, which the teacher also avoids); the
// closure/upvalue capture bookkeeping in Scope is grounded on
// _examples/other_examples's funvibe-funxy compiler.go, which walks
// nested function scopes recording which enclosing locals a nested fn
// actually touches.
package analyzer

import (
	"github.com/clojurewasm/cljw/internal/env"
	"github.com/clojurewasm/cljw/internal/value"
	"github.com/clojurewasm/cljw/pkg/token"
)

type Kind int

const (
	KindConst Kind = iota
	KindLocal
	KindVarRef
	KindIf
	KindDo
	KindLet
	KindLoop
	KindRecur
	KindFn
	KindDef
	KindQuote
	KindVarSpecial // (var sym)
	KindThrow
	KindTry
	KindNew
	KindSetBang
	KindInvoke
	KindInterop // (.method target args...) or (.-field target)
	KindVector
	KindMapLit
	KindSetLit
	KindWithMeta
	KindMonitorEnter
	KindMonitorExit
	KindDeftype
	KindReify
	KindImport
)

// MethodImpl is one (name [this params...] body...) clause of a
// deftype*/reify* form.
type MethodImpl struct {
	Name     string
	Params   []string
	Variadic bool
	Body     []*Node
}

// Binding is one name/init pair of a let*/loop*/fn-param binding, already
// flattened out of any destructuring pattern.
type Binding struct {
	Name string
	Init *Node
}

// CatchClause is one (catch ClassName e body...) clause of a try node.
type CatchClause struct {
	ClassName string
	Local     string
	Body      []*Node
}

// Node is the single IR type every IR-producing branch of Analyze
// returns. Only the fields relevant to Kind are populated; the others
// are left zero, matching the teacher's tagged-Node convention in
// internal/ast.
type Node struct {
	Kind Kind
	Pos  token.Position

	// KindConst
	Const value.Value

	// KindLocal / KindVarRef
	Name string
	Var  *env.Var

	// KindIf
	Test, Then, Else *Node

	// KindDo / KindTry bodies / KindFn bodies
	Body []*Node

	// KindLet / KindLoop / KindFn params (params reuse Binding.Name only)
	Bindings []Binding
	IsLoop   bool

	// Simultaneous marks a KindLet produced by letfn*: every binding name
	// is defined before any init expression is analyzed, so the fns can
	// reference each other (and themselves) ahead of their own binding.
	Simultaneous bool

	// KindFn
	Arities []*FnArity
	FnName  string // self-reference name for (fn name [...] ...), "" if anonymous

	// KindRecur
	RecurArgs []*Node

	// KindDef
	DefVar  *env.Var
	DefInit *Node

	// KindThrow
	ThrowVal *Node

	// KindTry
	TryBody    []*Node
	Catches    []CatchClause
	FinallyBody []*Node

	// KindNew
	ClassName string
	CtorArgs  []*Node

	// KindSetBang
	Target *Node

	// KindInvoke
	Fn   *Node
	Args []*Node

	// KindInterop
	InteropTarget *Node
	Member        string
	MemberArgs    []*Node
	IsField       bool

	// KindVector / KindSetLit
	Items []*Node

	// KindMapLit
	Keys []*Node
	Vals []*Node

	// KindWithMeta
	MetaForm *Node
	Expr     *Node

	// KindDeftype / KindReify (ClassName reused from KindNew)
	ClassFields []string
	Methods     []MethodImpl
}

// FnArity is one (params...) body clause of a (fn* ([a] ..) ([a b] ..))
// multi-arity form.
type FnArity struct {
	Params   []string
	Variadic bool
	Body     []*Node
}
