package value

// Fn is the runtime representation of spec §3.3's fn_val: a closed set of
// call targets (builtin Go function, AST closure for the tree-walk
// engine, bytecode closure for the VM, multimethod, or protocol function),
// each carrying enough arity information to raise arity_error before a
// mismatched call reaches either engine's dispatch.
//
// The two closure kinds hold only an opaque Proto/opaque captured-frame
// pointer (as `any`) rather than a concrete internal/eval or
// internal/compiler type, so this package never imports either engine —
// internal/dispatch's vtable is what turns a Fn back into a call (spec
// §4.Dispatch).
type FnTag byte

const (
	FnBuiltin FnTag = iota
	FnClosureAST
	FnClosureBytecode
	FnMultimethod
	FnProtocolFn
)

// Arity describes one accepted parameter count: Fixed for an exact count,
// Variadic for "Fixed or more".
type Arity struct {
	Fixed    int
	Variadic bool
}

func (a Arity) Accepts(n int) bool {
	if a.Variadic {
		return n >= a.Fixed
	}
	return n == a.Fixed
}

// BuiltinFunc is the Go-native call shape for FnBuiltin fns; errors are
// reported the same way as evaluated code, via (ExceptionMap, error).
type BuiltinFunc func(args []Value) (Value, error)

type Fn struct {
	Tag   FnTag
	Name  string
	Arities []Arity

	Builtin BuiltinFunc

	// Proto is the opaque closure body: *eval.Lambda for FnClosureAST,
	// *vm.Closure (itself wrapping the compiler.Proto(s) for each arity)
	// for FnClosureBytecode, resolved through internal/dispatch rather
	// than a concrete type import here.
	Proto any
	// Captured is not set by either engine: both closure kinds keep their
	// closed-over frame on the Proto value (eval.Lambda.Captured,
	// vm.Closure.Captured).
	Captured any

	// Multimethod/protocol dispatch state, populated only when Tag is
	// FnMultimethod or FnProtocolFn.
	DispatchFn  *Fn
	Methods     *Map // dispatch-value -> Fn
	DefaultKey  Value
}

func NewBuiltin(name string, builtin BuiltinFunc, arities ...Arity) *Fn {
	return &Fn{Tag: FnBuiltin, Name: name, Builtin: builtin, Arities: arities}
}

// AcceptsArity reports whether n args matches one of fn's declared
// arities; no arities recorded means "unchecked" (always accepts), used
// for builtins that validate their own argument count.
func (f *Fn) AcceptsArity(n int) bool {
	if len(f.Arities) == 0 {
		return true
	}
	for _, a := range f.Arities {
		if a.Accepts(n) {
			return true
		}
	}
	return false
}

func FnValue(f *Fn) Value { return Value{Kind: KindFn, Data: f} }

func (v Value) AsFn() *Fn { return v.Data.(*Fn) }
