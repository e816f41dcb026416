package analyzer

import (
	"fmt"

	"github.com/clojurewasm/cljw/internal/dispatch"
	"github.com/clojurewasm/cljw/internal/env"
	"github.com/clojurewasm/cljw/internal/errors"
	"github.com/clojurewasm/cljw/internal/value"
	"github.com/clojurewasm/cljw/pkg/token"
)

// Analyzer holds the Env every symbol/macro resolution consults. One
// Analyzer is created per top-level read/eval/print loop; it carries no
// per-form state across calls to Analyze.
type Analyzer struct {
	Env *env.Env
}

func New(e *env.Env) *Analyzer { return &Analyzer{Env: e} }

// Analyze resolves form into a Node, never in tail position. Top-level
// forms and sub-expressions that aren't a function/loop body's final
// expression all go through this entry point.
func (a *Analyzer) Analyze(form value.Value, scope *Scope) (*Node, error) {
	return a.analyze(form, scope, false)
}

func (a *Analyzer) analyze(form value.Value, scope *Scope, tail bool) (*Node, error) {
	var pos token.Position // Forms carry no position of their own (spec §4.D note); source tracking is best-effort.

	switch form.Kind {
	case value.KindSymbol:
		return a.resolveSymbol(form.AsSymbol(), scope, pos)

	case value.KindList:
		lst := form.AsList()
		if lst.IsEmpty() {
			return &Node{Kind: KindConst, Const: form, Pos: pos}, nil
		}
		return a.analyzeList(lst.ToSlice(), scope, pos, tail)

	case value.KindVector:
		vec := form.AsVector()
		items := make([]*Node, 0, vec.Count())
		var analyzeErr error
		vec.Range(func(_ int, v value.Value) bool {
			n, err := a.analyze(v, scope, false)
			if err != nil {
				analyzeErr = err
				return false
			}
			items = append(items, n)
			return true
		})
		if analyzeErr != nil {
			return nil, analyzeErr
		}
		return &Node{Kind: KindVector, Items: items, Pos: pos}, nil

	case value.KindMap:
		m := form.Data.(*value.Map)
		var keys, vals []*Node
		var analyzeErr error
		m.Range(func(k, v value.Value) bool {
			kn, err := a.analyze(k, scope, false)
			if err != nil {
				analyzeErr = err
				return false
			}
			vn, err := a.analyze(v, scope, false)
			if err != nil {
				analyzeErr = err
				return false
			}
			keys = append(keys, kn)
			vals = append(vals, vn)
			return true
		})
		if analyzeErr != nil {
			return nil, analyzeErr
		}
		return &Node{Kind: KindMapLit, Keys: keys, Vals: vals, Pos: pos}, nil

	case value.KindSet:
		s := form.Data.(*value.Set)
		var items []*Node
		var analyzeErr error
		s.Range(func(v value.Value) bool {
			n, err := a.analyze(v, scope, false)
			if err != nil {
				analyzeErr = err
				return false
			}
			items = append(items, n)
			return true
		})
		if analyzeErr != nil {
			return nil, analyzeErr
		}
		return &Node{Kind: KindSetLit, Items: items, Pos: pos}, nil

	default:
		return &Node{Kind: KindConst, Const: form, Pos: pos}, nil
	}
}

func (a *Analyzer) analyzeList(items []value.Value, scope *Scope, pos token.Position, tail bool) (*Node, error) {
	head := items[0]
	if head.Kind == value.KindSymbol && head.AsSymbol().Ns == "" {
		name := head.AsSymbol().Name
		if !localShadows(scope, name) {
			if handler, ok := specialFormHandlers[name]; ok {
				return handler(a, items, scope, pos, tail)
			}
			if node, handled, err := a.desugarDotShorthand(name, items, scope, pos); handled {
				return node, err
			}
		}
	}

	if head.Kind == value.KindSymbol {
		if v, ok := a.lookupVarForMacro(head.AsSymbol(), scope); ok && v.IsMacro() {
			expanded, err := a.expandMacro(v, items[1:])
			if err != nil {
				return nil, err
			}
			return a.analyze(expanded, scope, tail)
		}
	}

	fnNode, err := a.analyze(head, scope, false)
	if err != nil {
		return nil, err
	}
	args := make([]*Node, 0, len(items)-1)
	for _, it := range items[1:] {
		n, err := a.analyze(it, scope, false)
		if err != nil {
			return nil, err
		}
		args = append(args, n)
	}
	return &Node{Kind: KindInvoke, Fn: fnNode, Args: args, Pos: pos}, nil
}

func localShadows(scope *Scope, name string) bool {
	for s := scope; s != nil; s = s.parent {
		if s.names[name] {
			return true
		}
	}
	return false
}

// resolveSymbol implements spec §4.A's local/var/class/unresolved
// resolution order: a lexical local wins over anything in the Env.
func (a *Analyzer) resolveSymbol(sym *value.Symbol, scope *Scope, pos token.Position) (*Node, error) {
	if sym.Ns == "" && scope.resolve(sym.Name) {
		return &Node{Kind: KindLocal, Name: sym.Name, Pos: pos}, nil
	}
	v, err := a.resolveVar(sym, pos)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindVarRef, Var: v, Name: sym.Name, Pos: pos}, nil
}

func (a *Analyzer) resolveVar(sym *value.Symbol, pos token.Position) (*env.Var, error) {
	current := a.Env.Current()
	if sym.Ns == "" {
		if v, ok := current.Lookup(sym.Name); ok {
			return v, nil
		}
		return nil, errors.NewSourceError(errors.KindResolve, pos, fmt.Sprintf("unable to resolve symbol: %s", sym.Name), "", "")
	}
	targetNs, ok := a.Env.Find(sym.Ns)
	if !ok {
		if aliased, ok2 := current.ResolveAlias(sym.Ns); ok2 {
			targetNs = aliased
		} else {
			return nil, errors.NewSourceError(errors.KindResolve, pos, fmt.Sprintf("no such namespace: %s", sym.Ns), "", "")
		}
	}
	v, ok := targetNs.Lookup(sym.Name)
	if !ok {
		return nil, errors.NewSourceError(errors.KindResolve, pos, fmt.Sprintf("no such var: %s/%s", sym.Ns, sym.Name), "", "")
	}
	return v, nil
}

// lookupVarForMacro resolves sym to a Var without raising resolve_error,
// since a symbol in head position that doesn't resolve might simply be
// an unresolved call the invocation path will itself report on.
func (a *Analyzer) lookupVarForMacro(sym *value.Symbol, scope *Scope) (*env.Var, bool) {
	if sym.Ns == "" && localShadows(scope, sym.Name) {
		return nil, false
	}
	v, err := a.resolveVar(sym, token.Position{})
	if err != nil {
		return nil, false
	}
	return v, true
}

const analysisThread = env.ThreadID(0)

func (a *Analyzer) expandMacro(v *env.Var, argForms []value.Value) (value.Value, error) {
	fnVal := v.Get(analysisThread)
	fn := fnVal.AsFn()
	return dispatch.Call(fn, argForms)
}
