package value

import "testing"

func TestHashConsistentWithEqual(t *testing.T) {
	pairs := []struct{ a, b Value }{
		{Int(1), Float(1.0)},
		{String("abc"), String("abc")},
		{SymbolValue("user", "x"), SymbolValue("user", "x")},
		{VectorValue(NewVector(Int(1), Int(2))), VectorValue(NewVector(Int(1), Int(2)))},
	}
	for _, p := range pairs {
		if !Equal(p.a, p.b) {
			t.Fatalf("test setup broken: %v should Equal %v", p.a, p.b)
		}
		if Hash(p.a) != Hash(p.b) {
			t.Errorf("Hash(%v) = %d, Hash(%v) = %d, want equal hashes for Equal values",
				p.a, Hash(p.a), p.b, Hash(p.b))
		}
	}
}

func TestHashMapOrderIndependent(t *testing.T) {
	a := NewMap(Int(1), Int(10), Int(2), Int(20))
	b := NewMap(Int(2), Int(20), Int(1), Int(10))
	if Hash(MapValue(a)) != Hash(MapValue(b)) {
		t.Errorf("maps built in different insertion order should hash equal when their entries are equal")
	}
}

func TestHashSetOrderIndependent(t *testing.T) {
	a := NewSet(Int(1), Int(2), Int(3))
	b := NewSet(Int(3), Int(1), Int(2))
	if Hash(SetValue(a)) != Hash(SetValue(b)) {
		t.Errorf("sets with the same members should hash equal regardless of insertion order")
	}
}
