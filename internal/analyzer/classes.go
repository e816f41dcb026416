package analyzer

import (
	"github.com/clojurewasm/cljw/internal/value"
	"github.com/clojurewasm/cljw/pkg/token"
)

// analyzeDeftype implements (deftype* Name [field1 field2 ...]
// (methodName [this args...] body...) ...) per spec §4.A's reduced
// class model: a ClassInstance (internal/value/interop.go) holding
// field values plus method closures keyed by keyword, with "this"
// passed as an explicit first argument at call time.
func analyzeDeftype(a *Analyzer, items []value.Value, scope *Scope, pos token.Position, tail bool) (*Node, error) {
	if len(items) < 3 || items[1].Kind != value.KindSymbol || items[2].Kind != value.KindVector {
		return nil, compileErr(pos, "deftype* requires a name symbol and a field vector")
	}
	className := items[1].AsSymbol().Name
	var fields []string
	items[2].AsVector().Range(func(_ int, v value.Value) bool {
		if v.Kind == value.KindSymbol {
			fields = append(fields, v.AsSymbol().Name)
		}
		return true
	})

	methods, err := a.analyzeMethodImpls(items[3:], scope, pos)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindDeftype, ClassName: className, ClassFields: fields, Methods: methods, Pos: pos}, nil
}

// analyzeReify implements (reify* :implements [...] (methodName [this
// args...] body...) ...) per spec §4.A. Unlike deftype*, a reify has no
// declared fields; it closes over its enclosing lexical scope like a
// fn*, so method bodies analyze directly in the surrounding scope.
func analyzeReify(a *Analyzer, items []value.Value, scope *Scope, pos token.Position, tail bool) (*Node, error) {
	idx := 1
	// Skip leading keyword-valued option pairs such as :implements [...].
	for idx+1 < len(items) && items[idx].Kind == value.KindKeyword {
		idx += 2
	}
	methods, err := a.analyzeMethodImpls(items[idx:], scope, pos)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindReify, Methods: methods, Pos: pos}, nil
}

func (a *Analyzer) analyzeMethodImpls(clauses []value.Value, outer *Scope, pos token.Position) ([]MethodImpl, error) {
	out := make([]MethodImpl, 0, len(clauses))
	for _, c := range clauses {
		if c.Kind != value.KindList {
			return nil, compileErr(pos, "method implementation must be a list")
		}
		form := c.AsList().ToSlice()
		if len(form) < 2 || form[0].Kind != value.KindSymbol || form[1].Kind != value.KindVector {
			return nil, compileErr(pos, "method implementation requires a name and a parameter vector, starting with this")
		}
		methodName := form[0].AsSymbol().Name

		var rawParams []value.Value
		form[1].AsVector().Range(func(_ int, v value.Value) bool { rawParams = append(rawParams, v); return true })
		if len(rawParams) == 0 || rawParams[0].Kind != value.KindSymbol {
			return nil, compileErr(pos, "method %s must declare a this parameter", methodName)
		}

		methodScope := outer.fnChild()
		params := make([]string, 0, len(rawParams))
		variadic := false
		for i := 0; i < len(rawParams); i++ {
			p := rawParams[i]
			if isSymbolNamed(p, "&") {
				i++
				if i >= len(rawParams) || rawParams[i].Kind != value.KindSymbol {
					return nil, compileErr(pos, "missing rest parameter after & in method %s", methodName)
				}
				variadic = true
				name := rawParams[i].AsSymbol().Name
				methodScope.define(name)
				params = append(params, name)
				continue
			}
			if p.Kind != value.KindSymbol {
				return nil, compileErr(pos, "method %s parameters must be symbols", methodName)
			}
			name := p.AsSymbol().Name
			methodScope.define(name)
			params = append(params, name)
		}
		methodScope.loopArity = len(params) - 1 // this is bound but not a recur slot
		if methodScope.loopArity <= 0 {
			methodScope.loopArity = -1
		}

		body, err := a.analyzeBody(form[2:], methodScope, true)
		if err != nil {
			return nil, err
		}
		out = append(out, MethodImpl{Name: methodName, Params: params, Variadic: variadic, Body: body})
	}
	return out, nil
}
