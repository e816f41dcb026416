package analyzer

import (
	"github.com/clojurewasm/cljw/internal/value"
	"github.com/clojurewasm/cljw/pkg/token"
)

// analyzeFn implements (fn* name? ([params...] body...)+) per spec §4.A,
// including the single-arity shorthand (fn* name? [params...] body...),
// parameter destructuring, & rest params, and the self-reference name
// that lets a fn* recurse by name instead of only via recur.
func analyzeFn(a *Analyzer, items []value.Value, scope *Scope, pos token.Position, tail bool) (*Node, error) {
	idx := 1
	fnName := ""
	if idx < len(items) && items[idx].Kind == value.KindSymbol {
		fnName = items[idx].AsSymbol().Name
		idx++
	}

	outer := scope
	if fnName != "" {
		outer = scope.child()
		outer.define(fnName)
	}

	var clauses [][]value.Value
	if idx < len(items) && items[idx].Kind == value.KindVector {
		clauses = [][]value.Value{items[idx:]}
	} else {
		for ; idx < len(items); idx++ {
			if items[idx].Kind != value.KindList {
				return nil, compileErr(pos, "fn* arity clause must be a list")
			}
			clauses = append(clauses, items[idx].AsList().ToSlice())
		}
	}

	arities := make([]*FnArity, 0, len(clauses))
	for _, clause := range clauses {
		arity, err := a.analyzeFnArity(outer, clause, pos)
		if err != nil {
			return nil, err
		}
		arities = append(arities, arity)
	}
	return &Node{Kind: KindFn, Arities: arities, FnName: fnName, Pos: pos}, nil
}

func (a *Analyzer) analyzeFnArity(outer *Scope, clause []value.Value, pos token.Position) (*FnArity, error) {
	if len(clause) == 0 || clause[0].Kind != value.KindVector {
		return nil, compileErr(pos, "fn* requires a parameter vector")
	}
	var rawParams []value.Value
	clause[0].AsVector().Range(func(_ int, v value.Value) bool { rawParams = append(rawParams, v); return true })

	fnScope := outer.fnChild()
	var params []string
	var destructured []Binding
	variadic := false

	i := 0
	for i < len(rawParams) {
		p := rawParams[i]
		if isSymbolNamed(p, "&") {
			i++
			if i >= len(rawParams) {
				return nil, compileErr(pos, "missing rest parameter after &")
			}
			variadic = true
			name, sub, err := a.bindParam(fnScope, rawParams[i], pos)
			if err != nil {
				return nil, err
			}
			params = append(params, name)
			destructured = append(destructured, sub...)
			i++
			continue
		}
		name, sub, err := a.bindParam(fnScope, p, pos)
		if err != nil {
			return nil, err
		}
		params = append(params, name)
		destructured = append(destructured, sub...)
		i++
	}

	fnScope.loopArity = len(params)
	if fnScope.loopArity == 0 {
		fnScope.loopArity = -1
	}

	body, err := a.analyzeBody(clause[1:], fnScope, true)
	if err != nil {
		return nil, err
	}
	if len(destructured) > 0 {
		body = []*Node{{Kind: KindLet, Bindings: destructured, Body: body}}
	}
	return &FnArity{Params: params, Variadic: variadic, Body: body}, nil
}

// bindParam defines a single (possibly destructured) parameter in
// fnScope, returning the flat slot name recur/invoke bind positionally
// and any extra destructuring bindings to wrap the body in.
func (a *Analyzer) bindParam(fnScope *Scope, p value.Value, pos token.Position) (string, []Binding, error) {
	if p.Kind == value.KindSymbol {
		name := p.AsSymbol().Name
		fnScope.define(name)
		return name, nil, nil
	}
	name := newTempName("p")
	fnScope.define(name)
	sub, err := a.destructure(fnScope, p, &Node{Kind: KindLocal, Name: name}, pos)
	if err != nil {
		return "", nil, err
	}
	return name, sub, nil
}
