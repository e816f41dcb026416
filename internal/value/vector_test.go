package value

import "testing"

func TestVectorConjAndGet(t *testing.T) {
	v := EmptyVector()
	for i := 0; i < 100; i++ {
		v = v.Conj(Int(int64(i)))
	}
	if v.Count() != 100 {
		t.Fatalf("Count() = %d, want 100", v.Count())
	}
	for i := 0; i < 100; i++ {
		got, ok := v.Get(i)
		if !ok || got.AsInt() != int64(i) {
			t.Errorf("Get(%d) = %v, %v, want %d, true", i, got, ok, i)
		}
	}
	if _, ok := v.Get(100); ok {
		t.Errorf("Get(100) on 100-element vector should be out of range")
	}
}

func TestVectorAssocSharesUntouchedPath(t *testing.T) {
	v := NewVector(Int(0), Int(1), Int(2), Int(3))
	v2 := v.Assoc(1, Int(99))

	got0, _ := v.Get(1)
	if got0.AsInt() != 1 {
		t.Errorf("original vector mutated: Get(1) = %v, want 1", got0)
	}
	got1, _ := v2.Get(1)
	if got1.AsInt() != 99 {
		t.Errorf("new vector Get(1) = %v, want 99", got1)
	}
	for _, i := range []int{0, 2, 3} {
		a, _ := v.Get(i)
		b, _ := v2.Get(i)
		if !Equal(a, b) {
			t.Errorf("index %d diverged between v and v2: %v vs %v", i, a, b)
		}
	}
}

func TestVectorAssocAtCountAppends(t *testing.T) {
	v := NewVector(Int(1), Int(2))
	v2 := v.Assoc(2, Int(3))
	if v2.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", v2.Count())
	}
	got, _ := v2.Get(2)
	if got.AsInt() != 3 {
		t.Errorf("Get(2) = %v, want 3", got)
	}
}

func TestVectorPop(t *testing.T) {
	v := EmptyVector()
	const n = 1000
	for i := 0; i < n; i++ {
		v = v.Conj(Int(int64(i)))
	}
	for i := n - 1; i >= 0; i-- {
		if v.Count() != i+1 {
			t.Fatalf("Count() = %d, want %d at pop step %d", v.Count(), i+1, i)
		}
		last, ok := v.Get(i)
		if !ok || last.AsInt() != int64(i) {
			t.Fatalf("Get(%d) = %v, %v before pop, want %d, true", i, last, ok, i)
		}
		v = v.Pop()
	}
	if v.Count() != 0 {
		t.Errorf("Count() after popping everything = %d, want 0", v.Count())
	}
}

func TestVectorRangeStopsEarly(t *testing.T) {
	v := NewVector(Int(1), Int(2), Int(3), Int(4))
	var seen []int64
	v.Range(func(i int, val Value) bool {
		seen = append(seen, val.AsInt())
		return i < 1
	})
	if len(seen) != 2 {
		t.Fatalf("Range visited %d elements, want 2", len(seen))
	}
}
