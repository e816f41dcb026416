package analyzer

// Scope is a single lexical frame: the let*/loop*/fn params in effect at
// a point in the tree, chained to its enclosing frame. fnBoundary marks
// where a nested fn* begins, so recur-target resolution (which must stop
// at the nearest fn or loop) and captured-variable bookkeeping both know
// where to stop walking.
type Scope struct {
	parent     *Scope
	names      map[string]bool
	fnBoundary bool
	loopArity  int // number of recur-bindable slots, 0 if this isn't a recur target

	// captured accumulates the names of enclosing locals a fn* boundary
	// actually references, filled in by resolve. The compiler addresses
	// locals by name and does not read it.
	captured map[string]bool
}

func newScope(parent *Scope) *Scope {
	return &Scope{parent: parent, names: map[string]bool{}}
}

func (s *Scope) child() *Scope { return newScope(s) }

func (s *Scope) fnChild() *Scope {
	c := newScope(s)
	c.fnBoundary = true
	c.captured = map[string]bool{}
	return c
}

func (s *Scope) define(name string) { s.names[name] = true }

// resolve reports whether name is a local in s or an enclosing frame,
// recording it as captured on every fn* boundary crossed along the way.
func (s *Scope) resolve(name string) bool {
	var crossed []*Scope
	for sc := s; sc != nil; sc = sc.parent {
		if sc.names[name] {
			for _, b := range crossed {
				b.captured[name] = true
			}
			return true
		}
		if sc.fnBoundary && sc.captured != nil {
			crossed = append(crossed, sc)
		}
	}
	return false
}

// nearestLoop returns the nearest enclosing recur target (fn* arity body
// or loop*), or nil if recur would have no target.
func (s *Scope) nearestLoop() *Scope {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.loopArity != 0 {
			return sc
		}
	}
	return nil
}
