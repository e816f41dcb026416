package vm

import "github.com/clojurewasm/cljw/internal/compiler"

// Closure is the bytecode engine's closure body: the Fn.Proto a
// FnClosureBytecode value.Fn carries. Protos holds one entry per fn*
// arity (compiler.compileFn emits sibling Protos for a multi-arity fn,
// starting at the OpMakeClosure operand); Captured is the Frame in
// effect when the closure was created.
type Closure struct {
	Name     string
	Protos   []*compiler.Proto
	Captured *Frame
}

func selectProto(protos []*compiler.Proto, n int) (*compiler.Proto, bool) {
	for _, p := range protos {
		fixed := len(p.ParamNames)
		if p.Variadic {
			fixed--
			if n >= fixed {
				return p, true
			}
		} else if n == fixed {
			return p, true
		}
	}
	return nil, false
}
