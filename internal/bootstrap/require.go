package bootstrap

import (
	"github.com/clojurewasm/cljw/internal/dispatch"
	"github.com/clojurewasm/cljw/internal/env"
	"github.com/clojurewasm/cljw/internal/errors"
	"github.com/clojurewasm/cljw/internal/value"
)

// registerNamespaceBuiltins wires `require`, `use`, and `in-ns` to
// dispatch.Global.LoaderRequire (spec §4.L): ordinary functions, not
// special forms, since their arguments are already-evaluated symbols
// (`(require 'clojure.string)`) rather than forms needing macro-style
// non-evaluation.
func registerNamespaceBuiltins(e *env.Env, ns *env.Namespace) {
	def := func(name string, fn value.BuiltinFunc) {
		ns.Intern(name).BindRoot(value.FnValue(value.NewBuiltin(name, fn)))
	}

	def("require", func(args []value.Value) (value.Value, error) {
		for _, a := range args {
			nsName, err := nsArgName(a)
			if err != nil {
				return value.Nil(), err
			}
			if dispatch.Global.LoaderRequire == nil {
				return value.Nil(), errors.NewRuntimeError(errors.KindState, "require: no loader installed")
			}
			if err := dispatch.Global.LoaderRequire(nsName); err != nil {
				return value.Nil(), errors.NewRuntimeError(errors.KindIO, err.Error())
			}
		}
		return value.Nil(), nil
	})

	def("use", func(args []value.Value) (value.Value, error) {
		for _, a := range args {
			nsName, err := nsArgName(a)
			if err != nil {
				return value.Nil(), err
			}
			if dispatch.Global.LoaderRequire == nil {
				return value.Nil(), errors.NewRuntimeError(errors.KindState, "use: no loader installed")
			}
			if err := dispatch.Global.LoaderRequire(nsName); err != nil {
				return value.Nil(), errors.NewRuntimeError(errors.KindIO, err.Error())
			}
			target, ok := e.Find(nsName)
			if !ok {
				return value.Nil(), errors.NewRuntimeError(errors.KindResolve, "use: namespace vanished after load: "+nsName)
			}
			referAll(target, e.Current())
		}
		return value.Nil(), nil
	})

	def("in-ns", func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return value.Nil(), arityErr("in-ns", 1, len(args))
		}
		nsName, err := nsArgName(args[0])
		if err != nil {
			return value.Nil(), err
		}
		e.SetCurrent(e.FindOrCreate(nsName))
		return value.Nil(), nil
	})
}

// nsArgName accepts either a symbol or a keyword naming a namespace —
// `require`/`use`/`in-ns` are ordinary functions, so callers quote the
// symbol themselves (`(require 'clojure.string)`).
func nsArgName(v value.Value) (string, error) {
	switch v.Kind {
	case value.KindSymbol:
		return v.AsSymbol().String(), nil
	case value.KindKeyword:
		return v.AsKeyword().String()[1:], nil
	default:
		return "", errors.NewRuntimeError(errors.KindType, "expected a namespace symbol")
	}
}
