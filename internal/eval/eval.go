// Package eval implements the E1 component of spec §4.E1: a tree-walk
// evaluator operating directly over the analyzer's Node IR. It is both a
// standalone evaluation engine and the macro-expansion oracle wired into
// internal/dispatch.Global.TreewalkCall, and must produce bit-identical
// results to the bytecode VM (spec §8 property 1, "engine equivalence").
//
// Grounded on the teacher's internal/interp/evaluator/visitor_*.go
// per-node-kind dispatch (one method per AST node type, here collapsed
// onto analyzer.Node's single Kind switch) and on
// _examples/other_examples's funvibe-funxy evaluator.go for the
// explicit-signal discipline recur needs: rather than recursing through
// Go's call stack for a loop body, a recurSignal unwinds to the nearest
// loop*/fn call boundary, which rebinds its slots and continues a plain
// Go for loop.
package eval

import (
	"fmt"

	"github.com/clojurewasm/cljw/internal/analyzer"
	"github.com/clojurewasm/cljw/internal/dispatch"
	"github.com/clojurewasm/cljw/internal/env"
	"github.com/clojurewasm/cljw/internal/errors"
	"github.com/clojurewasm/cljw/internal/value"
)

// Evaluator carries the Env every Var lookup and def consults, plus the
// thread identity its dynamic-var bindings are scoped to.
type Evaluator struct {
	Env      *env.Env
	ThreadID env.ThreadID
}

func New(e *env.Env) *Evaluator {
	return &Evaluator{Env: e, ThreadID: 0}
}

// recurSignal is returned as an error from Eval to unwind to the nearest
// loop*/fn call boundary without growing the Go call stack; it is never
// allowed to escape a top-level Eval call (CallLambda/evalLoop always
// intercept it).
type recurSignal struct {
	Values []value.Value
}

func (s *recurSignal) Error() string { return "recur outside loop/fn (internal)" }

// thrownError carries a (throw v) payload as a Go error so it can
// propagate through ordinary error returns until a matching try/catch
// intercepts it (spec §7).
type thrownError struct {
	Value value.Value
	class string
}

func (e *thrownError) Error() string    { return fmt.Sprintf("thrown: %s", e.class) }
func (e *thrownError) ExClass() string  { return e.class }
func (e *thrownError) ExValue() value.Value { return e.Value }

func classify(v value.Value) string {
	if v.Kind == value.KindException {
		if t, ok := v.AsMap().Get(errors.ExKeyType); ok && t.Kind == value.KindString {
			return t.Data.(string)
		}
	}
	if v.Kind == value.KindClassInstance {
		tag := v.AsClassInstance().ClassTag()
		if tag.Kind == value.KindKeyword {
			return tag.AsKeyword().Name
		}
		return tag.String()
	}
	return "Throwable"
}

// exClasser is implemented by both thrownError and *errors.RuntimeError;
// any other Go error is an uncatchable internal failure (spec §7: only
// these two surfaces are user-catchable).
type exClasser interface {
	ExClass() string
}

func (ev *Evaluator) Eval(n *analyzer.Node, frame *Frame) (value.Value, error) {
	switch n.Kind {
	case analyzer.KindConst, analyzer.KindQuote:
		return n.Const, nil

	case analyzer.KindLocal:
		v, ok := frame.Get(n.Name)
		if !ok {
			return value.Nil(), fmt.Errorf("unbound local: %s", n.Name)
		}
		return v, nil

	case analyzer.KindVarRef:
		return n.Var.Get(ev.ThreadID), nil

	case analyzer.KindVarSpecial:
		return value.Value{Kind: value.KindVar, Data: n.Var}, nil

	case analyzer.KindIf:
		test, err := ev.Eval(n.Test, frame)
		if err != nil {
			return value.Nil(), err
		}
		if truthy(test) {
			return ev.Eval(n.Then, frame)
		}
		return ev.Eval(n.Else, frame)

	case analyzer.KindDo:
		return ev.evalBody(n.Body, frame)

	case analyzer.KindLet:
		return ev.evalLet(n, frame)

	case analyzer.KindLoop:
		return ev.evalLoop(n, frame)

	case analyzer.KindRecur:
		vals := make([]value.Value, len(n.RecurArgs))
		for i, a := range n.RecurArgs {
			v, err := ev.Eval(a, frame)
			if err != nil {
				return value.Nil(), err
			}
			vals[i] = v
		}
		return value.Nil(), &recurSignal{Values: vals}

	case analyzer.KindFn:
		l := &Lambda{Name: n.FnName, Arities: n.Arities, Captured: frame}
		return value.FnValue(&value.Fn{Tag: value.FnClosureAST, Name: n.FnName, Proto: l}), nil

	case analyzer.KindDef:
		var v value.Value
		if n.DefInit != nil {
			var err error
			v, err = ev.Eval(n.DefInit, frame)
			if err != nil {
				return value.Nil(), err
			}
			n.DefVar.BindRoot(v)
		}
		return value.Value{Kind: value.KindVar, Data: n.DefVar}, nil

	case analyzer.KindThrow:
		v, err := ev.Eval(n.ThrowVal, frame)
		if err != nil {
			return value.Nil(), err
		}
		return value.Nil(), &thrownError{Value: v, class: classify(v)}

	case analyzer.KindTry:
		return ev.evalTry(n, frame)

	case analyzer.KindNew:
		return ev.evalNew(n, frame)

	case analyzer.KindSetBang:
		return ev.evalSetBang(n, frame)

	case analyzer.KindInvoke:
		return ev.evalInvoke(n, frame)

	case analyzer.KindInterop:
		return ev.evalInterop(n, frame)

	case analyzer.KindVector:
		items := make([]value.Value, len(n.Items))
		for i, it := range n.Items {
			v, err := ev.Eval(it, frame)
			if err != nil {
				return value.Nil(), err
			}
			items[i] = v
		}
		return value.VectorValue(value.NewVector(items...)), nil

	case analyzer.KindMapLit:
		m := value.EmptyMap()
		for i := range n.Keys {
			k, err := ev.Eval(n.Keys[i], frame)
			if err != nil {
				return value.Nil(), err
			}
			v, err := ev.Eval(n.Vals[i], frame)
			if err != nil {
				return value.Nil(), err
			}
			m = m.Assoc(k, v)
		}
		return value.MapValue(m), nil

	case analyzer.KindSetLit:
		s := value.EmptySet()
		for _, it := range n.Items {
			v, err := ev.Eval(it, frame)
			if err != nil {
				return value.Nil(), err
			}
			s = s.Conj(v)
		}
		return value.SetValue(s), nil

	case analyzer.KindWithMeta:
		// No generic metadata slot exists on value.Value (spec §3.1);
		// metadata is evaluated for side effects/validation only and the
		// underlying form's value is returned unchanged.
		if _, err := ev.Eval(n.MetaForm, frame); err != nil {
			return value.Nil(), err
		}
		return ev.Eval(n.Expr, frame)

	case analyzer.KindMonitorEnter, analyzer.KindMonitorExit, analyzer.KindImport:
		return value.Nil(), nil

	case analyzer.KindDeftype:
		return ev.evalDeftype(n, frame)

	case analyzer.KindReify:
		return ev.evalReify(n, frame)

	default:
		return value.Nil(), fmt.Errorf("eval: unhandled node kind %d", n.Kind)
	}
}

func truthy(v value.Value) bool {
	if v.Kind == value.KindNil {
		return false
	}
	if v.Kind == value.KindBool {
		return v.Data.(bool)
	}
	return true
}

func (ev *Evaluator) evalBody(body []*analyzer.Node, frame *Frame) (value.Value, error) {
	var result value.Value
	for _, n := range body {
		v, err := ev.Eval(n, frame)
		if err != nil {
			return value.Nil(), err
		}
		result = v
	}
	return result, nil
}

func (ev *Evaluator) evalLet(n *analyzer.Node, frame *Frame) (value.Value, error) {
	child := NewFrame(frame)
	if n.Simultaneous {
		for _, b := range n.Bindings {
			child.Define(b.Name, value.Nil())
		}
		for _, b := range n.Bindings {
			v, err := ev.Eval(b.Init, child)
			if err != nil {
				return value.Nil(), err
			}
			child.Define(b.Name, v)
		}
	} else {
		for _, b := range n.Bindings {
			v, err := ev.Eval(b.Init, child)
			if err != nil {
				return value.Nil(), err
			}
			child.Define(b.Name, v)
		}
	}
	return ev.evalBody(n.Body, child)
}

func (ev *Evaluator) evalLoop(n *analyzer.Node, frame *Frame) (value.Value, error) {
	child := NewFrame(frame)
	names := make([]string, len(n.Bindings))
	for i, b := range n.Bindings {
		v, err := ev.Eval(b.Init, child)
		if err != nil {
			return value.Nil(), err
		}
		child.Define(b.Name, v)
		names[i] = b.Name
	}

	for {
		val, err := ev.evalBody(n.Body, child)
		if sig, ok := err.(*recurSignal); ok {
			if len(sig.Values) != len(names) {
				return value.Nil(), fmt.Errorf("loop*: recur expected %d args, got %d", len(names), len(sig.Values))
			}
			for i, name := range names {
				child.Define(name, sig.Values[i])
			}
			continue
		}
		return val, err
	}
}

func (ev *Evaluator) evalTry(n *analyzer.Node, frame *Frame) (value.Value, error) {
	val, err := ev.evalBody(n.TryBody, frame)
	if err != nil {
		if ec, ok := err.(exClasser); ok {
		findCatch:
			for _, c := range n.Catches {
				if !errors.Catches(c.ClassName, ec.ExClass()) {
					continue
				}
				var exVal value.Value
				switch e := err.(type) {
				case *thrownError:
					exVal = e.Value
				case *errors.RuntimeError:
					exVal = e.ToExceptionMap()
				}
				child := NewFrame(frame)
				child.Define(c.Local, exVal)
				val, err = ev.evalBody(c.Body, child)
				break findCatch
			}
		}
	}
	if len(n.FinallyBody) > 0 {
		if _, ferr := ev.evalBody(n.FinallyBody, frame); ferr != nil {
			return value.Nil(), ferr
		}
	}
	return val, err
}

func (ev *Evaluator) evalSetBang(n *analyzer.Node, frame *Frame) (value.Value, error) {
	val, err := ev.Eval(n.DefInit, frame)
	if err != nil {
		return value.Nil(), err
	}
	switch n.Target.Kind {
	case analyzer.KindVarRef:
		if !n.Target.Var.Set(ev.ThreadID, val) {
			n.Target.Var.BindRoot(val)
		}
		return val, nil
	default:
		return value.Nil(), errors.NewRuntimeError(errors.KindState, "set! target must be a Var")
	}
}

func (ev *Evaluator) evalInvoke(n *analyzer.Node, frame *Frame) (value.Value, error) {
	fnVal, err := ev.Eval(n.Fn, frame)
	if err != nil {
		return value.Nil(), err
	}
	if fnVal.Kind != value.KindFn {
		return value.Nil(), errors.NewRuntimeError(errors.KindType, fmt.Sprintf("cannot invoke a non-fn value (%s)", fnVal.Kind))
	}
	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := ev.Eval(a, frame)
		if err != nil {
			return value.Nil(), err
		}
		args[i] = v
	}
	fn := fnVal.AsFn()
	if !fn.AcceptsArity(len(args)) {
		return value.Nil(), errors.NewRuntimeError(errors.KindArity, fmt.Sprintf("%s: wrong number of args (%d)", fn.Name, len(args)))
	}
	return dispatch.Call(fn, args)
}

// Call implements dispatch.CallFn for the tree-walk backend: every
// FnClosureAST *value.Fn routes here from dispatch.Call's default case.
func (ev *Evaluator) Call(fn *value.Fn, args []value.Value) (value.Value, error) {
	l, ok := fn.Proto.(*Lambda)
	if !ok {
		return value.Nil(), fmt.Errorf("eval.Call: not an AST closure: %s", fn.Name)
	}
	return ev.CallLambda(l, args)
}
