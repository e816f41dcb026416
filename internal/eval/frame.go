package eval

import "github.com/clojurewasm/cljw/internal/value"

// Frame is the tree-walk evaluator's runtime local-variable chain: one
// Frame per let*/loop*/fn call, linked to its lexically enclosing Frame
// so a nested closure can walk outward to find a captured local. This
// mirrors the analyzer's Scope chain one-for-one, but at values instead
// of names-only, and is the "DefiningEnv" a Lambda closes over (spec
// §4.E1).
type Frame struct {
	parent *Frame
	vars   map[string]value.Value
}

func NewFrame(parent *Frame) *Frame {
	return &Frame{parent: parent, vars: make(map[string]value.Value, 4)}
}

func (f *Frame) Define(name string, v value.Value) {
	f.vars[name] = v
}

func (f *Frame) Get(name string) (value.Value, bool) {
	for fr := f; fr != nil; fr = fr.parent {
		if v, ok := fr.vars[name]; ok {
			return v, true
		}
	}
	return value.Nil(), false
}

// Frame deliberately does not implement gc.RootSource: spec §4.R.2's GC
// only ever collects between top-level forms, at which point no Frame
// from the completed form is still reachable from Go's own call stack,
// so the evaluator's working set needs no separate root registration
// the way the long-lived Env does.
//
// A Frame captured by a surviving closure is a different story: once
// that closure is stored in a Var (a GC root) it can outlive every
// top-level form that created it, so its captured chain must still be
// walked at mark time. Range supports exactly that, via the fn-proto
// tracer installed into the GC through dispatch.VTable.FnProtoTracer.
func (f *Frame) Range(visit func(value.Value)) {
	for fr := f; fr != nil; fr = fr.parent {
		for _, v := range fr.vars {
			visit(v)
		}
	}
}
