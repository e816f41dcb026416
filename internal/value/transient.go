package value

import "errors"

// ErrTransientUsedAfterPersistent is returned by any transient operation
// once persistent! has been called on it (spec §3.2, §8 property 4: a
// transient must raise state_error on reuse). internal/errors wraps this
// into an exception_map with kind "state_error"; this package only needs
// the plain sentinel since it has no notion of exception_map itself.
var ErrTransientUsedAfterPersistent = errors.New("transient used after persistent!")

// TransientVector is the builder behind conj!/assoc!/pop! (spec §3.2):
// each call replaces t.v with the result of the matching persistent
// Vector operation, so it allocates just as that operation does; nothing
// is edited in place. Once persistent! runs, edited is set and every
// further call fails with ErrTransientUsedAfterPersistent.
type TransientVector struct {
	v       *Vector
	edited  bool
}

func (v *Vector) AsTransient() *TransientVector {
	return &TransientVector{v: v}
}

func (t *TransientVector) ConjBang(val Value) (*TransientVector, error) {
	if t.edited {
		return nil, ErrTransientUsedAfterPersistent
	}
	t.v = t.v.Conj(val)
	return t, nil
}

func (t *TransientVector) AssocBang(i int, val Value) (*TransientVector, error) {
	if t.edited {
		return nil, ErrTransientUsedAfterPersistent
	}
	t.v = t.v.Assoc(i, val)
	return t, nil
}

func (t *TransientVector) PopBang() (*TransientVector, error) {
	if t.edited {
		return nil, ErrTransientUsedAfterPersistent
	}
	t.v = t.v.Pop()
	return t, nil
}

func (t *TransientVector) Count() (int, error) {
	if t.edited {
		return 0, ErrTransientUsedAfterPersistent
	}
	return t.v.Count(), nil
}

// Persistent seals t: it returns the accumulated Vector and marks t
// unusable for any further bang-suffixed operation.
func (t *TransientVector) Persistent() (*Vector, error) {
	if t.edited {
		return nil, ErrTransientUsedAfterPersistent
	}
	t.edited = true
	return t.v, nil
}

// TransientMap mirrors TransientVector for maps (assoc!/dissoc!).
type TransientMap struct {
	m      *Map
	edited bool
}

func (m *Map) AsTransient() *TransientMap {
	return &TransientMap{m: m}
}

func (t *TransientMap) AssocBang(key, val Value) (*TransientMap, error) {
	if t.edited {
		return nil, ErrTransientUsedAfterPersistent
	}
	t.m = t.m.Assoc(key, val)
	return t, nil
}

func (t *TransientMap) DissocBang(key Value) (*TransientMap, error) {
	if t.edited {
		return nil, ErrTransientUsedAfterPersistent
	}
	t.m = t.m.Without(key)
	return t, nil
}

func (t *TransientMap) Persistent() (*Map, error) {
	if t.edited {
		return nil, ErrTransientUsedAfterPersistent
	}
	t.edited = true
	return t.m, nil
}

// TransientSet mirrors TransientVector for sets (conj!/disj!).
type TransientSet struct {
	s      *Set
	edited bool
}

func (s *Set) AsTransient() *TransientSet {
	return &TransientSet{s: s}
}

func (t *TransientSet) ConjBang(val Value) (*TransientSet, error) {
	if t.edited {
		return nil, ErrTransientUsedAfterPersistent
	}
	t.s = t.s.Conj(val)
	return t, nil
}

func (t *TransientSet) DisjBang(val Value) (*TransientSet, error) {
	if t.edited {
		return nil, ErrTransientUsedAfterPersistent
	}
	t.s = t.s.Disj(val)
	return t, nil
}

func (t *TransientSet) Persistent() (*Set, error) {
	if t.edited {
		return nil, ErrTransientUsedAfterPersistent
	}
	t.edited = true
	return t.s, nil
}
