package analyzer

import (
	"strconv"
	"sync/atomic"

	"github.com/clojurewasm/cljw/internal/value"
	"github.com/clojurewasm/cljw/pkg/token"
)

var tempCounter int64

func newTempName(prefix string) string {
	n := atomic.AddInt64(&tempCounter, 1)
	return prefix + "__" + strconv.FormatInt(n, 10) + "__"
}

func sym(name string) value.Value { return value.SymbolValue("", name) }

func listForm(items ...value.Value) value.Value {
	return value.ListValue(value.NewList(items...))
}

func isKeywordNamed(v value.Value, name string) bool {
	return v.Kind == value.KindKeyword && v.AsKeyword().Ns == "" && v.AsKeyword().Name == name
}

func isSymbolNamed(v value.Value, name string) bool {
	return v.Kind == value.KindSymbol && v.AsSymbol().Ns == "" && v.AsSymbol().Name == name
}

// destructure lowers a let*/loop*/fn-param binding pattern into a flat
// list of analyzed Bindings, implementing spec §4.A's
// vector/map/:as/:or/:keys/:strs/:syms destructuring grammar by emitting
// (nth ...)/(get ...) accessor calls against a generated temp binding.
func (a *Analyzer) destructure(scope *Scope, pattern value.Value, init *Node, pos token.Position) ([]Binding, error) {
	switch pattern.Kind {
	case value.KindSymbol:
		name := pattern.AsSymbol().Name
		if name == "_" {
			name = newTempName("_ignored")
		}
		return []Binding{{Name: name, Init: init}}, nil

	case value.KindVector:
		return a.destructureVector(scope, pattern.AsVector(), init, pos)

	case value.KindMap:
		return a.destructureMap(scope, pattern.Data.(*value.Map), init, pos)

	default:
		return nil, compileErr(pos, "unsupported binding form %v", pattern)
	}
}

func (a *Analyzer) destructureVector(scope *Scope, vec *value.Vector, init *Node, pos token.Position) ([]Binding, error) {
	tempName := newTempName("vec")
	out := []Binding{{Name: tempName, Init: init}}
	scope.define(tempName)
	tempSym := sym(tempName)

	var items []value.Value
	vec.Range(func(_ int, v value.Value) bool { items = append(items, v); return true })

	idx := 0
	for i := 0; i < len(items); i++ {
		el := items[i]
		switch {
		case isSymbolNamed(el, "&"):
			i++
			if i >= len(items) {
				return nil, compileErr(pos, "missing binding form after & in vector destructuring")
			}
			restForm := listForm(sym("drop"), value.Int(int64(idx)), tempSym)
			restNode, err := a.analyze(restForm, scope, false)
			if err != nil {
				return nil, err
			}
			sub, err := a.destructure(scope, items[i], restNode, pos)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)

		case isKeywordNamed(el, "as"):
			i++
			if i >= len(items) || items[i].Kind != value.KindSymbol {
				return nil, compileErr(pos, ":as must be followed by a symbol")
			}
			out = append(out, Binding{Name: items[i].AsSymbol().Name, Init: &Node{Kind: KindLocal, Name: tempName}})

		default:
			nthForm := listForm(sym("nth"), tempSym, value.Int(int64(idx)), value.Nil())
			nthNode, err := a.analyze(nthForm, scope, false)
			if err != nil {
				return nil, err
			}
			sub, err := a.destructure(scope, el, nthNode, pos)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			idx++
		}
	}
	return out, nil
}

func (a *Analyzer) destructureMap(scope *Scope, m *value.Map, init *Node, pos token.Position) ([]Binding, error) {
	tempName := newTempName("map")
	out := []Binding{{Name: tempName, Init: init}}
	scope.define(tempName)
	tempSym := sym(tempName)

	var orDefaults *value.Map
	var asAlias string
	var keysReq, strsReq, symsReq []string
	type explicitEntry struct {
		pattern value.Value
		key     value.Value
	}
	var explicit []explicitEntry

	m.Range(func(k, v value.Value) bool {
		if k.Kind == value.KindKeyword && k.AsKeyword().Ns == "" {
			switch k.AsKeyword().Name {
			case "or":
				orDefaults = v.Data.(*value.Map)
				return true
			case "as":
				if v.Kind == value.KindSymbol {
					asAlias = v.AsSymbol().Name
				}
				return true
			case "keys":
				keysReq = append(keysReq, symbolNames(v)...)
				return true
			case "strs":
				strsReq = append(strsReq, symbolNames(v)...)
				return true
			case "syms":
				symsReq = append(symsReq, symbolNames(v)...)
				return true
			}
		}
		explicit = append(explicit, explicitEntry{pattern: k, key: v})
		return true
	})

	defaultFor := func(name string) value.Value {
		if orDefaults == nil {
			return value.Nil()
		}
		if d, ok := orDefaults.Get(sym(name)); ok {
			return d
		}
		return value.Nil()
	}

	for _, e := range explicit {
		getForm := listForm(sym("get"), tempSym, e.key, value.Nil())
		node, err := a.analyze(getForm, scope, false)
		if err != nil {
			return nil, err
		}
		sub, err := a.destructure(scope, e.pattern, node, pos)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	for _, name := range keysReq {
		getForm := listForm(sym("get"), tempSym, value.KeywordValue("", name), defaultFor(name))
		node, err := a.analyze(getForm, scope, false)
		if err != nil {
			return nil, err
		}
		out = append(out, Binding{Name: name, Init: node})
	}
	for _, name := range strsReq {
		getForm := listForm(sym("get"), tempSym, value.String(name), defaultFor(name))
		node, err := a.analyze(getForm, scope, false)
		if err != nil {
			return nil, err
		}
		out = append(out, Binding{Name: name, Init: node})
	}
	for _, name := range symsReq {
		getForm := listForm(sym("get"), tempSym, sym(name), defaultFor(name))
		node, err := a.analyze(getForm, scope, false)
		if err != nil {
			return nil, err
		}
		out = append(out, Binding{Name: name, Init: node})
	}
	if asAlias != "" {
		out = append(out, Binding{Name: asAlias, Init: &Node{Kind: KindLocal, Name: tempName}})
	}
	return out, nil
}

func symbolNames(v value.Value) []string {
	if v.Kind != value.KindVector {
		return nil
	}
	vec := v.AsVector()
	out := make([]string, 0, vec.Count())
	vec.Range(func(_ int, el value.Value) bool {
		if el.Kind == value.KindSymbol {
			out = append(out, el.AsSymbol().Name)
		}
		return true
	})
	return out
}
