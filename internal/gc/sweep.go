package gc

import "github.com/clojurewasm/cljw/internal/value"

// Sweep iterates the side table; unmarked records are freed, either
// outright or into a bounded per-kind free pool for reuse (spec §4.R.2,
// "Sweep"). Marked records are reset to unmarked for the next cycle.
func (g *GC) Sweep() {
	freed := 0
	var freedBytes uintptr
	for data, rec := range g.allocs {
		if rec.freed {
			// Poisoned by the previous debug-mode cycle: drop it now.
			delete(g.allocs, data)
			continue
		}
		if rec.marked {
			rec.marked = false
			continue
		}
		freedBytes += rec.size
		freed++
		g.offerToPool(rec.kind, data)
		if g.debug {
			rec.freed = true
		} else {
			delete(g.allocs, data)
		}
	}
	g.liveBytes -= freedBytes
	g.lastFreed = freed
}

// Collect runs one full Mark/Sweep cycle and ratchets the trigger
// threshold: it grows proportionally to the post-sweep live set so a
// heap that stays large doesn't collect on every allocation (spec
// §4.R.2, "Trigger... with a ratcheting policy").
func (g *GC) Collect() {
	g.Mark()
	g.Sweep()
	g.collections++

	next := g.liveBytes * 2
	if next < g.minThreshold {
		next = g.minThreshold
	}
	g.threshold = next
}

func (g *GC) offerToPool(kind value.Kind, data any) {
	switch kind {
	case value.KindVector, value.KindMap, value.KindSet, value.KindList:
		// Collection internals (vector nodes, HAMT nodes, cons cells) are
		// shared via structural sharing and may still be referenced by a
		// live persistent value even after one root drops; pooling the
		// top-level handle itself is unsound, so these kinds are freed
		// outright rather than pooled.
		return
	default:
		pool := g.pools[kind]
		if len(pool) >= g.poolCap {
			return
		}
		g.pools[kind] = append(pool, data)
	}
}

// TryReuse pops a pooled allocation of kind, if any, for O(1) reuse by an
// allocator that would otherwise construct a fresh object (spec §4.R.2,
// "free pools (bounded size) for O(1) reuse").
func (g *GC) TryReuse(kind value.Kind) (any, bool) {
	pool := g.pools[kind]
	if len(pool) == 0 {
		return nil, false
	}
	last := pool[len(pool)-1]
	g.pools[kind] = pool[:len(pool)-1]
	return last, true
}
