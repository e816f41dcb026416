package value

import (
	"sync"
	"unsafe"
)

// Symbol and Keyword are interned by (ns, name) per spec §4.R.1: two
// interned symbols with equal ns/name compare pointer-identical, and their
// hash is derived from the interned pointer (identity hash), not recomputed
// from the strings each time.
type Symbol struct {
	Ns   string
	Name string
}

func (s *Symbol) String() string {
	if s.Ns == "" {
		return s.Name
	}
	return s.Ns + "/" + s.Name
}

type Keyword struct {
	Ns   string
	Name string
}

func (k *Keyword) String() string {
	if k.Ns == "" {
		return ":" + k.Name
	}
	return ":" + k.Ns + "/" + k.Name
}

// internTable holds the process-wide, non-collected intern pools for
// symbols and keywords (spec §3.6: "Interned symbols and keywords live in a
// separate, non-collected intern table").
type internTable struct {
	mu       sync.RWMutex
	symbols  map[[2]string]*Symbol
	keywords map[[2]string]*Keyword
}

var globalInterns = &internTable{
	symbols:  make(map[[2]string]*Symbol),
	keywords: make(map[[2]string]*Keyword),
}

// InternSymbol returns the canonical *Symbol for (ns, name), creating it on
// first use. Repeated calls with the same pair return the same pointer.
func InternSymbol(ns, name string) *Symbol {
	key := [2]string{ns, name}
	globalInterns.mu.RLock()
	if s, ok := globalInterns.symbols[key]; ok {
		globalInterns.mu.RUnlock()
		return s
	}
	globalInterns.mu.RUnlock()

	globalInterns.mu.Lock()
	defer globalInterns.mu.Unlock()
	if s, ok := globalInterns.symbols[key]; ok {
		return s
	}
	s := &Symbol{Ns: ns, Name: name}
	globalInterns.symbols[key] = s
	return s
}

func InternKeyword(ns, name string) *Keyword {
	key := [2]string{ns, name}
	globalInterns.mu.RLock()
	if k, ok := globalInterns.keywords[key]; ok {
		globalInterns.mu.RUnlock()
		return k
	}
	globalInterns.mu.RUnlock()

	globalInterns.mu.Lock()
	defer globalInterns.mu.Unlock()
	if k, ok := globalInterns.keywords[key]; ok {
		return k
	}
	k := &Keyword{Ns: ns, Name: name}
	globalInterns.keywords[key] = k
	return k
}

func SymbolValue(ns, name string) Value {
	return Value{Kind: KindSymbol, Data: InternSymbol(ns, name)}
}

func KeywordValue(ns, name string) Value {
	return Value{Kind: KindKeyword, Data: InternKeyword(ns, name)}
}

func (v Value) AsSymbol() *Symbol   { return v.Data.(*Symbol) }
func (v Value) AsKeyword() *Keyword { return v.Data.(*Keyword) }

// identityHash derives a stable, deterministic hash from an interned
// pointer's address. Two interned symbols/keywords with equal (ns, name)
// share a pointer and therefore share this hash (spec §3.1, §8 property 5).
func identityHash(ptr any) uint64 {
	var addr uint64
	switch p := ptr.(type) {
	case *Symbol:
		addr = uint64(uintptr(unsafe.Pointer(p)))
	case *Keyword:
		addr = uint64(uintptr(unsafe.Pointer(p)))
	}
	return splitmix64(addr)
}

func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}
