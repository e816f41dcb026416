// Package env implements spec §3.4: Env (namespaces, current-namespace
// pointer, allocator/GC, thread-local dynamic-binding stacks), Namespace
// (symbol/alias registries), and Var (root value plus optional dynamic
// bindings).
//
// Grounded on the teacher's internal/interp/types/function_registry.go:
// a name-keyed registry supporting both unqualified and qualified
// ("Unit.Function") lookup, generalized here to namespace-qualified Vars
// with dynamic thread-local bindings instead of Pascal unit-qualified
// function overloads.
package env

import (
	"sync"

	"github.com/clojurewasm/cljw/internal/value"
)

// Var holds a root value, optional per-goroutine dynamic bindings, and
// metadata (doc, arglists, file/line, added), per spec §3.4. Creation:
// vars intern on first def. Mutation: only via BindRoot (def), AlterRoot
// (alter-var-root), Push/Pop (dynamic binding), or Set (set! on a
// thread-bound var).
type Var struct {
	mu sync.RWMutex

	Ns   string
	Name string

	root    value.Value
	bound   bool
	dynamic bool
	macro   bool

	Meta *value.Map

	bindings   map[int64][]value.Value // goroutine/thread id -> binding stack
	bindingsMu sync.Mutex
}

func NewVar(ns, name string) *Var {
	return &Var{
		Ns:       ns,
		Name:     name,
		root:     value.Nil(),
		Meta:     value.EmptyMap(),
		bindings: make(map[int64][]value.Value),
	}
}

func (v *Var) String() string {
	if v.Ns == "" {
		return "#'" + v.Name
	}
	return "#'" + v.Ns + "/" + v.Name
}

func (v *Var) IsBound() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.bound
}

func (v *Var) IsDynamic() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.dynamic
}

func (v *Var) SetDynamic(dynamic bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dynamic = dynamic
}

func (v *Var) IsMacro() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.macro
}

func (v *Var) SetMacro(macro bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.macro = macro
}

// BindRoot sets the var's root value (the `def` operation).
func (v *Var) BindRoot(val value.Value) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.root = val
	v.bound = true
}

// AlterRoot applies f to the current root and stores the result
// (alter-var-root), returning the new value.
func (v *Var) AlterRoot(f func(value.Value) value.Value) value.Value {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.root = f(v.root)
	v.bound = true
	return v.root
}

// Get returns the topmost thread-local binding if one exists for this
// goroutine, else the root value (spec §3.4, "get returns the topmost
// bound value or the root").
func (v *Var) Get(threadID int64) value.Value {
	v.bindingsMu.Lock()
	stack := v.bindings[threadID]
	v.bindingsMu.Unlock()
	if len(stack) > 0 {
		return stack[len(stack)-1]
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.root
}

// Push introduces a new dynamic binding visible only to threadID until
// the matching Pop (the `binding` special form).
func (v *Var) Push(threadID int64, val value.Value) {
	v.bindingsMu.Lock()
	defer v.bindingsMu.Unlock()
	v.bindings[threadID] = append(v.bindings[threadID], val)
}

// Pop removes the topmost dynamic binding for threadID. Popping with no
// outstanding binding is a caller error (unbalanced binding/unbinding);
// it is a silent no-op here since the analyzer/compiler guarantees
// balanced push/pop emission.
func (v *Var) Pop(threadID int64) {
	v.bindingsMu.Lock()
	defer v.bindingsMu.Unlock()
	stack := v.bindings[threadID]
	if len(stack) == 0 {
		return
	}
	v.bindings[threadID] = stack[:len(stack)-1]
}

// Set mutates the topmost dynamic binding in place (set! on a
// thread-bound var); it is an error to call this with no outstanding
// binding, surfaced by the caller as a state_error.
func (v *Var) Set(threadID int64, val value.Value) bool {
	v.bindingsMu.Lock()
	defer v.bindingsMu.Unlock()
	stack := v.bindings[threadID]
	if len(stack) == 0 {
		return false
	}
	stack[len(stack)-1] = val
	return true
}
