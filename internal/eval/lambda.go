package eval

import (
	"fmt"

	"github.com/clojurewasm/cljw/internal/analyzer"
	"github.com/clojurewasm/cljw/internal/value"
)

// Lambda is the tree-walk engine's closure body: the Fn.Proto a
// FnClosureAST value.Fn carries (spec §4.E1). It never leaves this
// package as a concrete type — internal/value and internal/dispatch only
// ever see it behind the `any` Proto/Captured fields.
type Lambda struct {
	Name     string
	Arities  []*analyzer.FnArity
	Captured *Frame
}

func selectArity(arities []*analyzer.FnArity, n int) (*analyzer.FnArity, bool) {
	for _, a := range arities {
		if a.Variadic {
			if n >= len(a.Params)-1 {
				return a, true
			}
		} else if n == len(a.Params) {
			return a, true
		}
	}
	return nil, false
}

func bindArity(frame *Frame, a *analyzer.FnArity, args []value.Value) {
	fixed := len(a.Params)
	if a.Variadic {
		fixed--
	}
	for i := 0; i < fixed; i++ {
		frame.Define(a.Params[i], args[i])
	}
	if a.Variadic {
		rest := value.EmptyList()
		for i := len(args) - 1; i >= fixed; i-- {
			rest = value.Cons(args[i], rest)
		}
		frame.Define(a.Params[fixed], value.ListValue(rest))
	}
}

// CallLambda invokes an AST closure with args, looping on recurSignal
// until the arity body returns an ordinary value or error (spec §4.E1's
// "recur never grows the Go call stack" requirement).
func (ev *Evaluator) CallLambda(l *Lambda, args []value.Value) (value.Value, error) {
	arity, ok := selectArity(l.Arities, len(args))
	if !ok {
		return value.Nil(), fmt.Errorf("%s: no matching arity for %d args", l.Name, len(args))
	}

	frame := NewFrame(l.Captured)
	if l.Name != "" {
		frame.Define(l.Name, value.FnValue(&value.Fn{Tag: value.FnClosureAST, Name: l.Name, Proto: l}))
	}
	bindArity(frame, arity, args)

	for {
		val, err := ev.evalBody(arity.Body, frame)
		if sig, ok := err.(*recurSignal); ok {
			if len(sig.Values) != len(arity.Params) {
				return value.Nil(), fmt.Errorf("%s: recur expected %d args, got %d", l.Name, len(arity.Params), len(sig.Values))
			}
			for i, p := range arity.Params {
				frame.Define(p, sig.Values[i])
			}
			continue
		}
		return val, err
	}
}
