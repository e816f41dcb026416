// Package value implements the R component of spec §3: the polymorphic
// tagged Value, symbol/keyword interning, and the persistent collections
// (vector, map, set) shared by both evaluation engines.
//
// Grounded on the teacher's internal/bytecode/bytecode.go, which represents
// every runtime value as a tagged `Value{Data any; Type ValueType}` pair
// with a parallel `ValueTypeNames` table for printing/debugging — the same
// shape, generalized here to spec §3.1's closed variant set. The HAMT
// (internal/value/map.go) takes its 32-way, population-count branching from
// _examples/other_examples's rogpeppe-generic/ctrie (w=5, exp2=32).
package value

import "fmt"

// Kind is the closed tag set of spec §3.1. Every new kind requires a
// handler in the printer, equality, hash, GC tracer, and both engines —
// see internal/gc's per-kind tracer table for the enforcement point.
type Kind byte

const (
	KindNil Kind = iota
	KindBool
	KindChar
	KindInt
	KindFloat
	KindString
	KindSymbol
	KindKeyword
	KindList
	KindVector
	KindMap
	KindSet
	KindLazySeq
	KindFn
	KindAtom
	KindVar
	KindException
	KindClassInstance
	KindRegex
	KindUUID
	KindDate
	KindHandle
)

var kindNames = [...]string{
	KindNil:           "nil",
	KindBool:          "boolean",
	KindChar:          "char",
	KindInt:           "integer",
	KindFloat:         "float",
	KindString:        "string",
	KindSymbol:        "symbol",
	KindKeyword:       "keyword",
	KindList:          "list",
	KindVector:        "vector",
	KindMap:           "map",
	KindSet:           "set",
	KindLazySeq:       "lazy_seq",
	KindFn:            "fn_val",
	KindAtom:          "atom",
	KindVar:           "var_ref",
	KindException:     "exception_map",
	KindClassInstance: "class_instance",
	KindRegex:         "regex",
	KindUUID:          "uuid",
	KindDate:          "date",
	KindHandle:        "handle",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Value is the single runtime representation shared by the reader,
// analyzer, tree-walk evaluator, and bytecode VM (spec §3.1).
type Value struct {
	Data any
	Kind Kind
}

func Nil() Value             { return Value{Kind: KindNil} }
func Bool(b bool) Value      { return Value{Kind: KindBool, Data: b} }
func Char(r rune) Value      { return Value{Kind: KindChar, Data: r} }
func Int(i int64) Value      { return Value{Kind: KindInt, Data: i} }
func Float(f float64) Value  { return Value{Kind: KindFloat, Data: f} }
func String(s string) Value  { return Value{Kind: KindString, Data: s} }

func (v Value) IsNil() bool { return v.Kind == KindNil }

// Truthy implements spec §3.1: nil and false are the only falsy values.
func (v Value) Truthy() bool {
	if v.Kind == KindNil {
		return false
	}
	if v.Kind == KindBool {
		return v.Data.(bool)
	}
	return true
}

func (v Value) AsBool() bool    { return v.Data.(bool) }
func (v Value) AsChar() rune    { return v.Data.(rune) }
func (v Value) AsInt() int64    { return v.Data.(int64) }
func (v Value) AsFloat() float64 {
	return v.Data.(float64)
}
func (v Value) AsString() string { return v.Data.(string) }

func (v Value) String() string {
	return Print(v, PrintOpts{Readable: false})
}

func (v Value) GoString() string {
	return fmt.Sprintf("Value{Kind: %s, Data: %#v}", v.Kind, v.Data)
}
