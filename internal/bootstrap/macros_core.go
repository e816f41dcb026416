package bootstrap

import (
	"github.com/clojurewasm/cljw/internal/env"
	"github.com/clojurewasm/cljw/internal/value"
)

// registerCoreMacros installs clojure.core's handful of indispensable
// macros directly as native Go builtins rather than as a separate
// defmacro bootstrap phase (spec §4.A lists the analyzer's recognized
// special forms exhaustively and defmacro is not among them; this
// mirrors what a from-scratch Clojure host must do for its very first
// macros, before any self-hosted defmacro could exist to define them).
// Each is an ordinary *value.Fn with its Var's IsMacro flag set, so
// internal/analyzer's existing expandMacro path (dispatch.Call on the
// unevaluated argForms) handles them with no analyzer changes.
func registerCoreMacros(ns *env.Namespace) {
	defmacro := func(name string, fn value.BuiltinFunc) {
		v := ns.Intern(name)
		v.BindRoot(value.FnValue(value.NewBuiltin(name, fn)))
		v.SetMacro(true)
	}

	defmacro("when", func(args []value.Value) (value.Value, error) {
		if len(args) < 1 {
			return value.Nil(), arityErr("when", 1, len(args))
		}
		body := listOf(append([]value.Value{sym("do")}, args[1:]...)...)
		return listOf(sym("if"), args[0], body, value.Nil()), nil
	})

	defmacro("when-not", func(args []value.Value) (value.Value, error) {
		if len(args) < 1 {
			return value.Nil(), arityErr("when-not", 1, len(args))
		}
		body := listOf(append([]value.Value{sym("do")}, args[1:]...)...)
		return listOf(sym("if"), args[0], value.Nil(), body), nil
	})

	defmacro("and", func(args []value.Value) (value.Value, error) {
		return expandAnd(args), nil
	})

	defmacro("or", func(args []value.Value) (value.Value, error) {
		return expandOr(args), nil
	})

	defmacro("cond", func(args []value.Value) (value.Value, error) {
		return expandCond(args), nil
	})

	defmacro("->", func(args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Nil(), arityErr("->", 1, 0)
		}
		acc := args[0]
		for _, form := range args[1:] {
			acc = threadFirst(acc, form)
		}
		return acc, nil
	})

	defmacro("->>", func(args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Nil(), arityErr("->>", 1, 0)
		}
		acc := args[0]
		for _, form := range args[1:] {
			acc = threadLast(acc, form)
		}
		return acc, nil
	})

	defmacro("defn", func(args []value.Value) (value.Value, error) {
		if len(args) < 2 || args[0].Kind != value.KindSymbol {
			return value.Nil(), arityErr("defn", 2, len(args))
		}
		name := args[0]
		fnForm := append([]value.Value{sym("fn*"), name}, args[1:]...)
		return listOf(sym("def"), name, listOf(fnForm...)), nil
	})
}

func sym(name string) value.Value { return value.SymbolValue("", name) }

func listOf(items ...value.Value) value.Value {
	l := value.EmptyList()
	for i := len(items) - 1; i >= 0; i-- {
		l = value.Cons(items[i], l)
	}
	return value.ListValue(l)
}

// threadFirst inserts expr as the second item of form (or wraps a bare
// symbol/non-list form in a one-arg call), the `->` rewrite rule.
func threadFirst(expr, form value.Value) value.Value {
	if form.Kind != value.KindList {
		return listOf(form, expr)
	}
	items := form.AsList().ToSlice()
	out := make([]value.Value, 0, len(items)+1)
	out = append(out, items[0], expr)
	out = append(out, items[1:]...)
	return listOf(out...)
}

// threadLast appends expr as the last item of form, the `->>` rewrite rule.
func threadLast(expr, form value.Value) value.Value {
	if form.Kind != value.KindList {
		return listOf(form, expr)
	}
	items := form.AsList().ToSlice()
	out := make([]value.Value, 0, len(items)+1)
	out = append(out, items...)
	out = append(out, expr)
	return listOf(out...)
}

func expandAnd(args []value.Value) value.Value {
	if len(args) == 0 {
		return value.Bool(true)
	}
	if len(args) == 1 {
		return args[0]
	}
	rest := expandAnd(args[1:])
	g := sym("and__gensym__")
	return listOf(sym("let*"), listOf(g, args[0]), listOf(sym("if"), g, rest, g))
}

func expandOr(args []value.Value) value.Value {
	if len(args) == 0 {
		return value.Nil()
	}
	if len(args) == 1 {
		return args[0]
	}
	rest := expandOr(args[1:])
	g := sym("or__gensym__")
	return listOf(sym("let*"), listOf(g, args[0]), listOf(sym("if"), g, g, rest))
}

func expandCond(clauses []value.Value) value.Value {
	if len(clauses) == 0 {
		return value.Nil()
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	test, then := clauses[0], clauses[1]
	return listOf(sym("if"), test, then, expandCond(clauses[2:]))
}
