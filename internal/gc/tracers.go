package gc

import "github.com/clojurewasm/cljw/internal/value"

// RegisterDefaultTracers installs the trace functions for every kind
// internal/value itself can fully describe (collections, atoms, lazy
// seqs, class instances); fn_val closures are traced through
// SetProtoTracer instead, since their bodies belong to internal/eval or
// internal/compiler (spec §4.R.3). Call once during bootstrap, after
// RegisterTracer for any engine-specific kinds.
func RegisterDefaultTracers(g *GC) {
	g.RegisterTracer(value.KindList, func(obj any, visit func(value.Value)) {
		l, ok := obj.(*value.List)
		if !ok || l == nil {
			return
		}
		for _, v := range l.ToSlice() {
			visit(v)
		}
	})

	g.RegisterTracer(value.KindVector, func(obj any, visit func(value.Value)) {
		v, ok := obj.(*value.Vector)
		if !ok || v == nil {
			return
		}
		v.Range(func(_ int, val value.Value) bool {
			visit(val)
			return true
		})
	})

	g.RegisterTracer(value.KindMap, func(obj any, visit func(value.Value)) {
		m, ok := obj.(*value.Map)
		if !ok || m == nil {
			return
		}
		m.Range(func(k, val value.Value) bool {
			visit(k)
			visit(val)
			return true
		})
	})

	g.RegisterTracer(value.KindSet, func(obj any, visit func(value.Value)) {
		s, ok := obj.(*value.Set)
		if !ok || s == nil {
			return
		}
		s.Range(func(v value.Value) bool {
			visit(v)
			return true
		})
	})

	g.RegisterTracer(value.KindAtom, func(obj any, visit func(value.Value)) {
		a, ok := obj.(*value.Atom)
		if !ok || a == nil {
			return
		}
		visit(a.Deref())
	})

	g.RegisterTracer(value.KindLazySeq, func(obj any, visit func(value.Value)) {
		l, ok := obj.(*value.LazySeq)
		if !ok || l == nil {
			return
		}
		// Only trace an already-realized seq: forcing one during Mark
		// would let garbage collection run side-effecting code.
		if realized, ok := l.Realized(); ok {
			visit(realized)
		}
	})

	g.RegisterTracer(value.KindClassInstance, func(obj any, visit func(value.Value)) {
		ci, ok := obj.(*value.ClassInstance)
		if !ok || ci == nil {
			return
		}
		ci.Fields.Range(func(_, val value.Value) bool {
			visit(val)
			return true
		})
	})

	g.RegisterTracer(value.KindException, func(obj any, visit func(value.Value)) {
		m, ok := obj.(*value.Map)
		if !ok || m == nil {
			return
		}
		m.Range(func(_, val value.Value) bool {
			visit(val)
			return true
		})
	})
}
