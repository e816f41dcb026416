package analyzer

import (
	"github.com/clojurewasm/cljw/internal/value"
	"github.com/clojurewasm/cljw/pkg/token"
)

// analyzeLetfn implements (letfn* [name1 (fn* ...) name2 (fn* ...) ...]
// body...) per spec §4.A: every name is defined in the child scope
// before any init form is analyzed, so the fns can call each other (and
// themselves) regardless of binding order.
func analyzeLetfn(a *Analyzer, items []value.Value, scope *Scope, pos token.Position, tail bool) (*Node, error) {
	if len(items) < 2 || items[1].Kind != value.KindVector {
		return nil, compileErr(pos, "letfn* requires a binding vector")
	}
	var pairs []value.Value
	items[1].AsVector().Range(func(_ int, v value.Value) bool { pairs = append(pairs, v); return true })
	if len(pairs)%2 != 0 {
		return nil, compileErr(pos, "letfn* binding vector must have an even number of forms")
	}

	child := scope.child()
	names := make([]string, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		if pairs[i].Kind != value.KindSymbol {
			return nil, compileErr(pos, "letfn* binding names must be symbols")
		}
		name := pairs[i].AsSymbol().Name
		child.define(name)
		names = append(names, name)
	}

	bindings := make([]Binding, 0, len(names))
	for i, ni := 0, 0; i < len(pairs); i, ni = i+2, ni+1 {
		initNode, err := a.analyze(pairs[i+1], child, false)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, Binding{Name: names[ni], Init: initNode})
	}

	body, err := a.analyzeBody(items[2:], child, tail)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindLet, Bindings: bindings, Body: body, Simultaneous: true, Pos: pos}, nil
}
