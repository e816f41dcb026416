package reader

import (
	"strconv"
	"strings"

	"github.com/clojurewasm/cljw/internal/value"
)

// specialForms never get namespace-qualified by syntax-quote (spec §4.A
// lists the same set as the analyzer's special-form table).
var specialForms = map[string]bool{
	"if": true, "do": true, "let*": true, "loop*": true, "recur": true,
	"fn*": true, "def": true, "quote": true, "var": true, "throw": true,
	"try": true, "catch": true, "finally": true, "new": true, "set!": true,
	".": true, "monitor-enter": true, "monitor-exit": true, "deftype*": true,
	"reify*": true, "case*": true, "import*": true, "letfn*": true, "&": true,
	"unquote": true, "unquote-splicing": true,
}

// autoGensym implements `x# inside syntax-quote: every occurrence of the
// same base symbol within one ` form resolves to the same generated
// name, so `(let [x# 1] x#) produces a let binding that actually shadows
// its own reference.
func (r *Reader) autoGensym(name string) string {
	if s, ok := r.gensymScope[name]; ok {
		return s
	}
	r.gensymSuffix++
	base := strings.TrimSuffix(name, "#")
	s := base + "__" + strconv.Itoa(r.gensymSuffix) + "__auto__"
	r.gensymScope[name] = s
	return s
}

func wrapQuote(v value.Value) value.Value {
	return value.ListValue(value.NewList(value.SymbolValue("", "quote"), v))
}

func wrapCall(name string, args ...value.Value) value.Value {
	items := append([]value.Value{value.SymbolValue("", name)}, args...)
	return value.ListValue(value.NewList(items...))
}

func isSym(v value.Value, name string) bool {
	if v.Kind != value.KindSymbol {
		return false
	}
	sym := v.AsSymbol()
	return sym.Ns == "" && sym.Name == name
}

// syntaxQuote implements ` (spec §4.D): symbols are resolved to their
// fully-qualified form (or gensym'd, for trailing-#), and collections
// are rewritten into `(concat ...)` expressions so that ~ and ~@ inside
// them splice at evaluation time rather than at read time.
func (r *Reader) syntaxQuote(form value.Value) value.Value {
	switch form.Kind {
	case value.KindSymbol:
		sym := form.AsSymbol()
		if sym.Ns == "" && strings.HasSuffix(sym.Name, "#") && sym.Name != "#" {
			return wrapQuote(value.SymbolValue("", r.autoGensym(sym.Name)))
		}
		if sym.Ns != "" || specialForms[sym.Name] {
			return wrapQuote(form)
		}
		return wrapQuote(value.SymbolValue(r.currentNS(), sym.Name))

	case value.KindList:
		items := form.AsList().ToSlice()
		if len(items) == 2 && isSym(items[0], "unquote") {
			return items[1]
		}
		return wrapCall("seq", wrapCall("concat", r.sqExpandItems(items)...))

	case value.KindVector:
		vec := form.AsVector()
		items := make([]value.Value, 0, vec.Count())
		vec.Range(func(_ int, v value.Value) bool { items = append(items, v); return true })
		return wrapCall("vec", wrapCall("concat", r.sqExpandItems(items)...))

	case value.KindMap:
		m := form.Data.(*value.Map)
		var items []value.Value
		m.Range(func(k, v value.Value) bool { items = append(items, k, v); return true })
		return wrapCall("apply", value.SymbolValue("", "hash-map"), wrapCall("concat", r.sqExpandItems(items)...))

	case value.KindSet:
		s := form.Data.(*value.Set)
		var items []value.Value
		s.Range(func(v value.Value) bool { items = append(items, v); return true })
		return wrapCall("apply", value.SymbolValue("", "hash-set"), wrapCall("concat", r.sqExpandItems(items)...))

	default:
		return wrapQuote(form)
	}
}

// sqExpandItems builds, for each element of a syntax-quoted sequence,
// a form that evaluates to a seq contributing zero or more elements:
// `~@x` contributes x's own elements, `~x` contributes (list x), and
// anything else contributes (list <recursively syntax-quoted x>).
func (r *Reader) sqExpandItems(items []value.Value) []value.Value {
	out := make([]value.Value, 0, len(items))
	for _, it := range items {
		if it.Kind == value.KindList {
			sub := it.AsList().ToSlice()
			if len(sub) == 2 && isSym(sub[0], "unquote-splicing") {
				out = append(out, sub[1])
				continue
			}
			if len(sub) == 2 && isSym(sub[0], "unquote") {
				out = append(out, wrapCall("list", sub[1]))
				continue
			}
		}
		out = append(out, wrapCall("list", r.syntaxQuote(it)))
	}
	return out
}
