// Package bootstrap implements spec §4.B's startup sequence: allocate a
// GC and Env, register every native builtin into clojure.core, wire
// internal/dispatch's vtable so both engines and the analyzer's macro
// expander can call each other and the loader, load the core
// Clojure-defined library through the tree-walk engine (the only engine
// available before the bytecode compiler has anything to compile), then
// create the user namespace with clojure.core referred in.
//
// Grounded on the teacher's cmd/dwscript bootstrap sequence (build a
// fresh interpreter, register its standard library, then hand control to
// whichever entry point the CLI selected) and on spec §4.B's ordering:
// the tree-walk evaluator is the only thing live while clojure.core's own
// macros (and, or, ->, defn, ...) are still being defined, since the
// macro expander calls back into whichever engine dispatch.Global names
// — which is why the vtable is installed before the core library loads.
package bootstrap

import (
	"fmt"

	"github.com/clojurewasm/cljw/internal/analyzer"
	"github.com/clojurewasm/cljw/internal/dispatch"
	"github.com/clojurewasm/cljw/internal/env"
	"github.com/clojurewasm/cljw/internal/eval"
	"github.com/clojurewasm/cljw/internal/gc"
	"github.com/clojurewasm/cljw/internal/loader"
	"github.com/clojurewasm/cljw/internal/reader"
	"github.com/clojurewasm/cljw/internal/value"
	"github.com/clojurewasm/cljw/internal/vm"
)

// Runtime bundles everything a CLI entry point (spec §6.2) needs: the
// shared Env, an Analyzer bound to it, and both engines, so eval_string/
// eval_file/compile_to_module/run_module/start_repl_session can each
// pick the pieces they need without re-running Init.
type Runtime struct {
	Env      *env.Env
	Analyzer *analyzer.Analyzer
	Eval     *eval.Evaluator
	VM       *vm.VM
	Loader   *loader.Loader
}

// Init performs the GC/Env setup, builtin registration and core-library
// load steps of spec §4.B's sequence (it does not recompile, serialize or
// restore a bootstrap cache) and returns a Runtime ready to evaluate user
// forms. searchPaths, if given, are scanned (in order,
// after the embedded library table) by the installed Loader for
// filesystem-resident namespaces (spec §4.L).
func Init(searchPaths ...string) (*Runtime, error) {
	g := gc.New()
	gc.RegisterDefaultTracers(g)
	e := env.New(g)
	g.AddRoot(e)

	core := e.FindOrCreate("clojure.core")
	e.SetCurrent(core)

	registerCoreBuiltins(core)
	registerCoreMacros(core)
	registerNamespaceBuiltins(e, core)
	vm.RegisterStringBuiltins(core)

	a := analyzer.New(e)
	ev := eval.New(e)
	m := vm.New(e)
	ld := loader.New(e, a, func(n *analyzer.Node) (value.Value, error) { return ev.Eval(n, nil) }, searchPaths)

	g.SetProtoTracer(protoTracer)

	dispatch.Install(&dispatch.VTable{
		TreewalkCall:  ev.Call,
		BytecodeCall:  m.Call,
		TypeKeyOf:     typeKeyOf,
		Seq:           seqOf,
		First:         firstOf,
		Rest:          restOf,
		LoaderRequire: ld.Require,
		FnProtoTracer: protoTracer,
	})

	if err := loadCoreLibrary(a, ev, core); err != nil {
		return nil, fmt.Errorf("bootstrap: loading clojure.core: %w", err)
	}
	ld.MarkLoaded("clojure.core")

	user := e.FindOrCreate("user")
	referAll(core, user)
	e.SetCurrent(user)

	return &Runtime{Env: e, Analyzer: a, Eval: ev, VM: m, Loader: ld}, nil
}

// referAll makes every Var interned or referred in src visible,
// unqualified, in dst — clojure.core's implicit refer-all into every new
// namespace (spec §4.L "builtins and Clojure-defined vars coexist in one
// namespace").
func referAll(src, dst *env.Namespace) {
	src.Range(func(name string, v *env.Var) bool {
		dst.Refer(name, v)
		return true
	})
}

// loadCoreLibrary evaluates coreLibrarySource form by form through the
// tree-walk engine, the bootstrap-time engine spec §4.B mandates since
// the bytecode compiler has nothing installed to macro-expand with yet.
func loadCoreLibrary(a *analyzer.Analyzer, ev *eval.Evaluator, ns *env.Namespace) error {
	r := reader.New(coreLibrarySource, "clojure/core.clj")
	for {
		form, ok, err := r.Read()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		node, err := a.Analyze(form, nil)
		if err != nil {
			return fmt.Errorf("analyzing core form: %w", err)
		}
		if _, err := ev.Eval(node, nil); err != nil {
			return fmt.Errorf("evaluating core form: %w", err)
		}
	}
}

// protoTracer is the GC's fn-proto tracer (spec §4.R.3, installed via
// gc.SetProtoTracer): it lets the collector walk a surviving closure's
// captured locals without internal/gc ever importing internal/eval or
// internal/vm for their unexported Lambda/Closure/Frame types. Handles
// both closure kinds since a single Tracer slot covers all of KindFn.
func protoTracer(obj any, visit func(value.Value)) {
	fn, ok := obj.(*value.Fn)
	if !ok {
		return
	}
	switch fn.Tag {
	case value.FnClosureAST:
		if l, ok := fn.Proto.(*eval.Lambda); ok && l.Captured != nil {
			l.Captured.Range(visit)
		}
	case value.FnClosureBytecode:
		if c, ok := fn.Proto.(*vm.Closure); ok && c.Captured != nil {
			c.Captured.Range(visit)
		}
	case value.FnMultimethod, value.FnProtocolFn:
		if fn.DispatchFn != nil {
			visit(value.FnValue(fn.DispatchFn))
		}
		if fn.Methods != nil {
			visit(value.MapValue(fn.Methods))
		}
	}
}

func typeKeyOf(v value.Value) value.Value {
	if v.Kind == value.KindClassInstance {
		return v.AsClassInstance().ClassTag()
	}
	return value.KeywordValue("", v.Kind.String())
}

func seqOf(v value.Value) (value.Value, error) {
	return v, nil
}

func firstOf(v value.Value) (value.Value, error) {
	if v.Kind != value.KindList {
		return value.Nil(), nil
	}
	if v.AsList().IsEmpty() {
		return value.Nil(), nil
	}
	return v.AsList().First(), nil
}

func restOf(v value.Value) (value.Value, error) {
	if v.Kind != value.KindList {
		return value.ListValue(value.EmptyList()), nil
	}
	return value.ListValue(v.AsList().Rest()), nil
}
