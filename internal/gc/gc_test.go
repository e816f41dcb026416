package gc

import (
	"testing"

	"github.com/clojurewasm/cljw/internal/value"
)

type fakeRoots struct {
	vals []value.Value
}

func (f *fakeRoots) GCRoots(visit func(value.Value)) {
	for _, v := range f.vals {
		visit(v)
	}
}

func newTestGC() *GC {
	g := New()
	RegisterDefaultTracers(g)
	return g
}

func TestSweepFreesUnreachable(t *testing.T) {
	g := newTestGC()
	roots := &fakeRoots{}
	g.AddRoot(roots)

	kept := value.NewVector(value.Int(1), value.Int(2))
	g.Track(kept, value.KindVector, 64)

	discarded := value.NewVector(value.Int(9))
	g.Track(discarded, value.KindVector, 64)

	roots.vals = []value.Value{value.VectorValue(kept)}

	g.Collect()

	if _, ok := g.allocs[kept]; !ok {
		t.Errorf("reachable vector was swept")
	}
	if _, ok := g.allocs[discarded]; ok {
		t.Errorf("unreachable vector was not swept")
	}
	if g.LastFreedCount() != 1 {
		t.Errorf("LastFreedCount() = %d, want 1", g.LastFreedCount())
	}
}

func TestMarkTracesNestedCollections(t *testing.T) {
	g := newTestGC()
	roots := &fakeRoots{}
	g.AddRoot(roots)

	inner := value.NewVector(value.Int(1))
	g.Track(inner, value.KindVector, 32)

	outer := value.NewMap(value.KeywordValue("", "x"), value.VectorValue(inner))
	g.Track(outer, value.KindMap, 32)

	roots.vals = []value.Value{value.MapValue(outer)}

	g.Mark()

	if !g.allocs[inner].marked {
		t.Errorf("inner vector reachable through outer map should be marked")
	}
	if !g.allocs[outer].marked {
		t.Errorf("outer map should be marked")
	}
}

func TestPinKeepsValueAliveAcrossCollect(t *testing.T) {
	g := newTestGC()
	g.AddRoot(&fakeRoots{})

	temp := value.NewVector(value.Int(1))
	g.Track(temp, value.KindVector, 16)

	pin := g.Pin(value.VectorValue(temp))
	g.Collect()
	if _, ok := g.allocs[temp]; !ok {
		t.Errorf("pinned value should survive Collect")
	}

	pin.Unregister()
	g.Collect()
	if _, ok := g.allocs[temp]; ok {
		t.Errorf("value should be collected once its pin is released")
	}
}

func TestThresholdRatchetsWithLiveSet(t *testing.T) {
	g := newTestGC()
	g.AddRoot(&fakeRoots{})
	before := g.Threshold()

	big := make([]*value.Vector, 0, 100)
	roots := &fakeRoots{}
	for i := 0; i < 100; i++ {
		v := value.NewVector(value.Int(int64(i)))
		g.Track(v, value.KindVector, 1<<16)
		big = append(big, v)
		roots.vals = append(roots.vals, value.VectorValue(v))
	}
	g.roots = []RootSource{roots}

	g.Collect()
	if g.Threshold() <= before {
		t.Errorf("Threshold() did not grow after a large live set: before=%d after=%d", before, g.Threshold())
	}
}

func TestDebugModeDetectsDoubleFree(t *testing.T) {
	g := newTestGC()
	g.SetDebug(true)
	g.AddRoot(&fakeRoots{})

	v := value.NewVector(value.Int(1))
	if err := g.Track(v, value.KindVector, 16); err != nil {
		t.Fatalf("first Track returned error: %v", err)
	}
	g.Collect() // nothing roots v, so it is freed and poisoned

	if err := g.Track(v, value.KindVector, 16); err != ErrDoubleFree {
		t.Errorf("Track on a poisoned identity = %v, want ErrDoubleFree", err)
	}
}
