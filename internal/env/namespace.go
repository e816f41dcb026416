package env

import (
	"sync"

	"github.com/clojurewasm/cljw/internal/value"
)

// Namespace is a named mapping from local symbol name to Var (own
// interns and referred aliases) plus a mapping from alias name to
// Namespace, per spec §3.4. Grounded on the teacher's FunctionRegistry
// shape (normalized-name map plus a second qualified-name map), here
// split into "vars owned/referred by this namespace" and "namespace
// aliases" instead of unit-qualified function overloads.
type Namespace struct {
	mu sync.RWMutex

	Name string

	// vars holds symbols interned directly in this namespace (via def)
	// plus names pulled in via refer.
	vars map[string]*Var

	// aliases maps a short alias (from `(require '[clojure.string :as str])`)
	// to the aliased Namespace.
	aliases map[string]*Namespace

	Meta *value.Map
}

func NewNamespace(name string) *Namespace {
	return &Namespace{
		Name:    name,
		vars:    make(map[string]*Var),
		aliases: make(map[string]*Namespace),
		Meta:    value.EmptyMap(),
	}
}

// Intern returns the Var for name, creating it (unbound) on first use —
// spec §3.4's "vars intern on first def" applies to the def operation
// itself; Intern alone only reserves the slot so forward references
// within a single file resolve.
func (ns *Namespace) Intern(name string) *Var {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if v, ok := ns.vars[name]; ok {
		return v
	}
	v := NewVar(ns.Name, name)
	ns.vars[name] = v
	return v
}

// Lookup finds a Var already interned or referred under name, without
// creating one.
func (ns *Namespace) Lookup(name string) (*Var, bool) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	v, ok := ns.vars[name]
	return v, ok
}

// Refer makes the Var v (typically owned by another namespace) visible in
// ns under localName
// (the `refer`/`:use` mechanism feeding clojure.core's implicit refer-all
// and explicit `:refer [...]` clauses).
func (ns *Namespace) Refer(localName string, v *Var) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.vars[localName] = v
}

func (ns *Namespace) AddAlias(alias string, target *Namespace) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.aliases[alias] = target
}

func (ns *Namespace) ResolveAlias(alias string) (*Namespace, bool) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	target, ok := ns.aliases[alias]
	return target, ok
}

// Range visits every (name, Var) pair owned or referred by ns.
func (ns *Namespace) Range(f func(name string, v *Var) bool) {
	ns.mu.RLock()
	snapshot := make(map[string]*Var, len(ns.vars))
	for k, v := range ns.vars {
		snapshot[k] = v
	}
	ns.mu.RUnlock()
	for k, v := range snapshot {
		if !f(k, v) {
			return
		}
	}
}
