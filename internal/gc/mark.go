package gc

import "github.com/clojurewasm/cljw/internal/value"

// Mark walks every root source plus pinned temporaries, marking each
// reachable allocation's side-table record. It is the first half of
// Collect and is exported separately so callers (tests, a future
// incremental collector) can inspect reachability without sweeping.
func (g *GC) Mark() {
	visited := make(map[any]bool)
	var visit func(v value.Value)
	visit = func(v value.Value) {
		data := v.Data
		if data == nil {
			return
		}
		if !isComparable(data) {
			return
		}
		rec, tracked := g.allocs[data]
		if tracked {
			if rec.marked {
				return
			}
			rec.marked = true
		} else if visited[data] {
			return
		}
		visited[data] = true

		if tracer := g.tracerFor(v.Kind); tracer != nil {
			tracer(data, visit)
		}
	}

	for _, root := range g.roots {
		root.GCRoots(visit)
	}
	for _, v := range g.pinned {
		visit(v)
	}
}

func (g *GC) tracerFor(kind value.Kind) Tracer {
	if kind == value.KindFn {
		// fn_val values go to a KindFn tracer if one was registered with
		// RegisterTracer; RegisterDefaultTracers registers none, so
		// otherwise every fn_val is traced by the engine-owned proto
		// tracer installed with SetProtoTracer (spec §4.R.3).
		if g.tracers[kind] != nil {
			return g.tracers[kind]
		}
		return g.protoTrace
	}
	if int(kind) >= len(g.tracers) {
		return nil
	}
	return g.tracers[kind]
}

// isComparable reports whether data is safe to use as a side-table map
// key. Every heap kind this package tracks (collection roots, strings,
// closures, protos, chunks) is either a pointer type or a plain
// comparable scalar; anything else (a raw slice, say) is treated as
// untracked and simply walked through without a side-table entry.
func isComparable(data any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	m := map[any]bool{}
	_ = m[data]
	return true
}
