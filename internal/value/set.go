package value

// Set is a map-backed persistent set (spec §3.2): membership is the
// Map's key set, values are discarded. Reusing Map gives Set the same
// small-array/HAMT promotion boundary and iteration-order rule as maps
// for free, rather than a second trie implementation.
type Set struct {
	m *Map
}

var emptySet = &Set{m: emptyMap}

func EmptySet() *Set { return emptySet }

func SetValue(s *Set) Value {
	if s == nil {
		s = emptySet
	}
	return Value{Kind: KindSet, Data: s}
}

func NewSet(items ...Value) *Set {
	s := emptySet
	for _, it := range items {
		s = s.Conj(it)
	}
	return s
}

func (s *Set) Count() int { return s.m.Count() }

func (s *Set) Contains(v Value) bool {
	_, ok := s.m.Get(v)
	return ok
}

// Conj returns a new Set with v added, a no-op (returns s) if already
// present so that the identity membership test (spec §8 property 3)
// holds on idempotent conj.
func (s *Set) Conj(v Value) *Set {
	if s.Contains(v) {
		return s
	}
	return &Set{m: s.m.Assoc(v, v)}
}

func (s *Set) Disj(v Value) *Set {
	if !s.Contains(v) {
		return s
	}
	return &Set{m: s.m.Without(v)}
}

func (s *Set) Range(f func(v Value) bool) {
	s.m.Range(func(k, _ Value) bool {
		return f(k)
	})
}

func (v Value) AsSet() *Set { return v.Data.(*Set) }
