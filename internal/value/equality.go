package value

// Equal implements spec §3.1's value equality: code-point equality for
// strings, numeric equality across int/float (1 == 1.0), structural
// (element-wise) equality for list/vector/map/set regardless of which
// concrete collection kind is on each side, and pointer (identity)
// equality for interned symbols and keywords. Both internal/eval and
// internal/vm call this single function so neither engine can drift from
// the other's notion of equality (spec §8 property 1).
func Equal(a, b Value) bool {
	if a.Kind == KindNil || b.Kind == KindNil {
		return a.Kind == b.Kind
	}
	if isNumeric(a.Kind) && isNumeric(b.Kind) {
		return numericEqual(a, b)
	}
	if a.Kind == KindVector && b.Kind == KindList {
		a, b = b, a
	}
	if a.Kind == KindList && b.Kind == KindVector {
		items, vec := a.AsList().ToSlice(), b.AsVector()
		if len(items) != vec.Count() {
			return false
		}
		for i, it := range items {
			if other, _ := vec.Get(i); !Equal(it, other) {
				return false
			}
		}
		return true
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindBool:
		return a.AsBool() == b.AsBool()
	case KindChar:
		return a.AsChar() == b.AsChar()
	case KindString:
		return a.AsString() == b.AsString()
	case KindSymbol:
		return a.AsSymbol() == b.AsSymbol()
	case KindKeyword:
		return a.AsKeyword() == b.AsKeyword()
	case KindList:
		return listEqual(a.AsList(), b.AsList())
	case KindVector:
		return seqEqual(a, b)
	case KindMap:
		return mapEqual(a.AsMap(), b.AsMap())
	case KindSet:
		return setEqual(a.AsSet(), b.AsSet())
	default:
		return a.Data == b.Data
	}
}

func isNumeric(k Kind) bool { return k == KindInt || k == KindFloat }

func numericEqual(a, b Value) bool {
	if a.Kind == KindInt && b.Kind == KindInt {
		return a.AsInt() == b.AsInt()
	}
	af := toFloat(a)
	bf := toFloat(b)
	return af == bf
}

func toFloat(v Value) float64 {
	if v.Kind == KindInt {
		return float64(v.AsInt())
	}
	return v.AsFloat()
}

func listEqual(a, b *List) bool {
	for {
		aEmpty, bEmpty := a.IsEmpty(), b.IsEmpty()
		if aEmpty || bEmpty {
			return aEmpty == bEmpty
		}
		if !Equal(a.First(), b.First()) {
			return false
		}
		a, b = a.Rest(), b.Rest()
	}
}

// seqEqual compares two vectors element by element; a list against a
// vector is compared in Equal itself.
func seqEqual(a, b Value) bool {
	av, bv := a.AsVector(), b.AsVector()
	if av.Count() != bv.Count() {
		return false
	}
	equal := true
	av.Range(func(i int, val Value) bool {
		other, _ := bv.Get(i)
		if !Equal(val, other) {
			equal = false
			return false
		}
		return true
	})
	return equal
}

func mapEqual(a, b *Map) bool {
	if a.Count() != b.Count() {
		return false
	}
	equal := true
	a.Range(func(k, v Value) bool {
		other, ok := b.Get(k)
		if !ok || !Equal(v, other) {
			equal = false
			return false
		}
		return true
	})
	return equal
}

func setEqual(a, b *Set) bool {
	if a.Count() != b.Count() {
		return false
	}
	equal := true
	a.Range(func(v Value) bool {
		if !b.Contains(v) {
			equal = false
			return false
		}
		return true
	})
	return equal
}
