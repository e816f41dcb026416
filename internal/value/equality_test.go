package value

import "testing"

func TestEqualNumericCrossKind(t *testing.T) {
	if !Equal(Int(1), Float(1.0)) {
		t.Errorf("Equal(1, 1.0) = false, want true")
	}
	if Equal(Int(1), Float(1.5)) {
		t.Errorf("Equal(1, 1.5) = true, want false")
	}
}

func TestEqualStringsAndChars(t *testing.T) {
	if !Equal(String("abc"), String("abc")) {
		t.Errorf("Equal(\"abc\", \"abc\") = false, want true")
	}
	if Equal(String("abc"), String("abd")) {
		t.Errorf("Equal(\"abc\", \"abd\") = true, want false")
	}
	if !Equal(Char('a'), Char('a')) {
		t.Errorf("Equal(\\a, \\a) = false, want true")
	}
}

func TestEqualInternedSymbolsByIdentity(t *testing.T) {
	a := SymbolValue("user", "x")
	b := SymbolValue("user", "x")
	if !Equal(a, b) {
		t.Errorf("two interned symbols with the same ns/name should be equal")
	}
	if a.AsSymbol() != b.AsSymbol() {
		t.Errorf("interned symbols should share one pointer")
	}
}

func TestEqualListsStructural(t *testing.T) {
	a := NewList(Int(1), Int(2), Int(3))
	b := NewList(Int(1), Int(2), Int(3))
	if !Equal(ListValue(a), ListValue(b)) {
		t.Errorf("structurally equal lists should be Equal")
	}
	c := NewList(Int(1), Int(2))
	if Equal(ListValue(a), ListValue(c)) {
		t.Errorf("lists of different length should not be Equal")
	}
}

func TestEqualVectorsStructural(t *testing.T) {
	a := NewVector(Int(1), Int(2), Int(3))
	b := NewVector(Int(1), Int(2), Int(3))
	if !Equal(VectorValue(a), VectorValue(b)) {
		t.Errorf("structurally equal vectors should be Equal")
	}
}

func TestEqualMapsIgnoreRepresentationBoundary(t *testing.T) {
	small := NewMap(Int(0), Int(0), Int(1), Int(10))
	big := EmptyMap()
	for i := 0; i < mapThreshold+3; i++ {
		big = big.Assoc(Int(int64(i)), Int(int64(i*10)))
	}
	trimmed := big
	for i := 2; i < mapThreshold+3; i++ {
		trimmed = trimmed.Without(Int(int64(i)))
	}
	if !Equal(MapValue(small), MapValue(trimmed)) {
		t.Errorf("maps with equal entries should be Equal regardless of small/HAMT representation")
	}
}

func TestEqualSets(t *testing.T) {
	a := NewSet(Int(1), Int(2), Int(3))
	b := NewSet(Int(3), Int(2), Int(1))
	if !Equal(SetValue(a), SetValue(b)) {
		t.Errorf("sets with the same members in different insertion order should be Equal")
	}
}

func TestEqualNilOnlyEqualsNil(t *testing.T) {
	if Equal(Nil(), Bool(false)) {
		t.Errorf("nil should not Equal false")
	}
	if !Equal(Nil(), Nil()) {
		t.Errorf("nil should Equal nil")
	}
}
