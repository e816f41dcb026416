package env

import (
	"testing"

	"github.com/clojurewasm/cljw/internal/gc"
	"github.com/clojurewasm/cljw/internal/value"
)

func TestFindOrCreateMaterializesOnce(t *testing.T) {
	e := New(gc.New())
	a := e.FindOrCreate("user.foo")
	b := e.FindOrCreate("user.foo")
	if a != b {
		t.Errorf("FindOrCreate should return the same *Namespace on repeated calls")
	}
}

func TestVarDefAndGet(t *testing.T) {
	e := New(gc.New())
	ns := e.FindOrCreate("user")
	v := ns.Intern("x")
	v.BindRoot(value.Int(42))

	got := v.Get(0)
	if got.AsInt() != 42 {
		t.Errorf("Get() = %v, want 42", got)
	}
}

func TestVarDynamicBindingShadowsRoot(t *testing.T) {
	e := New(gc.New())
	ns := e.FindOrCreate("user")
	v := ns.Intern("*dyn*")
	v.SetDynamic(true)
	v.BindRoot(value.Int(1))

	tid := e.NewThreadID()
	v.Push(tid, value.Int(2))
	if got := v.Get(tid); got.AsInt() != 2 {
		t.Errorf("Get() under binding = %v, want 2", got)
	}
	v.Pop(tid)
	if got := v.Get(tid); got.AsInt() != 1 {
		t.Errorf("Get() after Pop = %v, want root 1", got)
	}
}

func TestVarDynamicBindingIsPerThread(t *testing.T) {
	e := New(gc.New())
	ns := e.FindOrCreate("user")
	v := ns.Intern("*dyn*")
	v.SetDynamic(true)
	v.BindRoot(value.Int(0))

	t1 := e.NewThreadID()
	t2 := e.NewThreadID()
	v.Push(t1, value.Int(100))

	if got := v.Get(t1); got.AsInt() != 100 {
		t.Errorf("thread 1 Get() = %v, want 100", got)
	}
	if got := v.Get(t2); got.AsInt() != 0 {
		t.Errorf("thread 2 Get() = %v, want root 0 (unaffected by thread 1's binding)", got)
	}
}

func TestNamespaceReferMakesVarVisibleUnderLocalName(t *testing.T) {
	e := New(gc.New())
	core := e.FindOrCreate("clojure.core")
	v := core.Intern("map")

	user := e.FindOrCreate("user")
	user.Refer("map", v)

	got, ok := user.Lookup("map")
	if !ok || got != v {
		t.Errorf("Refer should make clojure.core/map visible as user/map")
	}
}

func TestEnvGCRootsReachesVarValues(t *testing.T) {
	g := gc.New()
	gc.RegisterDefaultTracers(g)
	e := New(g)
	g.AddRoot(e)

	ns := e.FindOrCreate("user")
	v := ns.Intern("kept")
	vec := value.NewVector(value.Int(1), value.Int(2))
	g.Track(vec, value.KindVector, 32)
	v.BindRoot(value.VectorValue(vec))

	orphan := value.NewVector(value.Int(9))
	g.Track(orphan, value.KindVector, 32)

	g.Collect()

	if !g.Tracked(vec) {
		t.Errorf("vector reachable through an interned var's root should survive Collect")
	}
	if g.Tracked(orphan) {
		t.Errorf("vector referenced by no root should be swept")
	}
}
