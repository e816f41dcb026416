// Package dispatch implements spec §4.R.3: the single process-wide
// vtable of function pointers through which the R layer (value, gc, env)
// invokes the higher layers (the tree-walk evaluator, the bytecode VM,
// the loader, interop) without importing any of them. Nothing in
// internal/value, internal/gc, or internal/env imports internal/eval,
// internal/vm, internal/analyzer, or internal/loader directly — every
// such call crosses through this table instead, keeping the dependency
// graph acyclic the way spec §2's layering requires.
//
// There is no teacher analogue for this file (DWScript's interpreter and
// bytecode VM are never required to interoperate bit-for-bit, so it
// never needed a shared call bridge); the shape below is new, built to
// satisfy spec §9's "the two engines must be able to call into each
// other and into E1 as the macro-expansion oracle" requirement.
package dispatch

import (
	"github.com/clojurewasm/cljw/internal/gc"
	"github.com/clojurewasm/cljw/internal/value"
)

// CallFn invokes a value.Fn with args, regardless of which engine
// produced the closure.
type CallFn func(fn *value.Fn, args []value.Value) (value.Value, error)

// SeqFn implements the seq/first/rest protocol (spec §4.R.2: "every
// collection and lazy_seq is walked through this uniform interface").
type SeqFn func(v value.Value) (value.Value, error)

// VTable is the complete set of cross-layer hooks. Fields are filled in
// by internal/bootstrap during startup, in the order spec §4.B
// prescribes, and never mutated afterward.
type VTable struct {
	// TreewalkCall invokes a closure via the tree-walk evaluator (E1).
	// Used as the macro-expansion oracle (spec §4.A) and as the fallback
	// for any *value.Fn with Tag == FnClosureAST.
	TreewalkCall CallFn

	// BytecodeCall invokes a closure via the bytecode VM (E2).
	BytecodeCall CallFn

	// TypeKeyOf returns the dispatch value a multimethod or protocol
	// lookup keys on for v (its class_instance tag, Kind name, or a
	// registered ad-hoc hierarchy entry).
	TypeKeyOf func(v value.Value) value.Value

	// Seq, First, Rest implement the uniform sequence walk spec §4.R.2
	// describes, used by the GC's lazy_seq tracer and by builtins that
	// need to consume an arbitrary seqable without engine-specific code.
	Seq, First, Rest SeqFn

	// LoaderRequire resolves and loads a namespace by name (spec §4.L),
	// invoked from the analyzer when it encounters (require ...) and
	// from the bootstrap sequence for clojure.core itself.
	LoaderRequire func(ns string) error

	// InteropRewrite rewrites a (.method target args...) or
	// (Type/staticMethod args...) form during analysis into whatever
	// node shape the target's interop surface expects (spec §4.A).
	InteropRewrite func(form value.Value) (value.Value, bool, error)

	// MultimethodDispatch resolves the method *value.Fn a multimethod
	// call should invoke, given its dispatch value (spec §3.4).
	MultimethodDispatch func(mm *value.Fn, dispatchVal value.Value) (*value.Fn, bool)

	// FnProtoTracer lets the GC walk the captured-upvalue environment of
	// a closure without internal/gc importing internal/compiler or
	// internal/eval for the Proto/Captured concrete types (spec §4.R.3,
	// "fn-proto tracer" — installed into gc.GC via SetProtoTracer).
	FnProtoTracer gc.Tracer
}

// Global is the process-wide table. It starts zero-valued; calling any
// field before internal/bootstrap.Init populates it is a programming
// error in the same category as a nil pointer dereference.
var Global = &VTable{}

// Install replaces Global wholesale. internal/bootstrap calls this once,
// after every hook has been constructed, so no half-initialized table is
// ever observable by concurrently running code.
func Install(v *VTable) { Global = v }

// Call invokes fn via whichever backend produced it, falling back to the
// builtin path for FnBuiltin closures (spec §4.R.3 "per §2/§9").
func Call(fn *value.Fn, args []value.Value) (value.Value, error) {
	switch fn.Tag {
	case value.FnBuiltin:
		return fn.Builtin(args)
	case value.FnClosureBytecode:
		return Global.BytecodeCall(fn, args)
	default:
		return Global.TreewalkCall(fn, args)
	}
}
