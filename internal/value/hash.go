package value

import (
	"hash/maphash"
	"math"
)

// hashSeed is chosen once per process by maphash.MakeSeed, so string
// hashes (and with them the iteration order of HAMT-backed maps and sets)
// are stable within one run but differ from one run to the next.
var hashSeed = maphash.MakeSeed()

// Hash implements spec §3.1: hash must be consistent with Equal (equal
// values hash equal) and stable across the tree-walk and bytecode
// engines, since both route assoc/get through this one function. No
// suitable collection-hashing library exists in the example pack for
// this construction (the need is a user-defined composite hash over an
// open Kind-dispatch, not a general hash-table library), so it is built
// directly on hash/maphash, the lowest-level corpus-sanctioned hashing
// primitive (DESIGN.md).
func Hash(v Value) uint64 {
	switch v.Kind {
	case KindNil:
		return 0
	case KindBool:
		if v.AsBool() {
			return 1
		}
		return 2
	case KindChar:
		return hashUint64(uint64(v.AsChar()))
	case KindInt:
		return hashInt(v.AsInt())
	case KindFloat:
		f := v.AsFloat()
		if f == math.Trunc(f) && !math.IsInf(f, 0) {
			return hashInt(int64(f))
		}
		return hashUint64(math.Float64bits(f))
	case KindString:
		return hashString(v.AsString())
	case KindSymbol:
		return identityHash(v.AsSymbol())
	case KindKeyword:
		return identityHash(v.AsKeyword())
	case KindList:
		return hashSeq(v.AsList().ToSlice())
	case KindVector:
		return hashVector(v.AsVector())
	case KindMap:
		return hashMap(v.AsMap())
	case KindSet:
		return hashSet(v.AsSet())
	default:
		return hashString(v.Kind.String())
	}
}

// hashInt gives int(n) and float(n) the same hash when numerically equal,
// matching Equal's cross-kind numeric comparison.
func hashInt(i int64) uint64 {
	return hashUint64(uint64(i))
}

func hashUint64(x uint64) uint64 {
	return splitmix64(x)
}

func hashString(s string) uint64 {
	var h maphash.Hash
	h.SetSeed(hashSeed)
	h.WriteString(s)
	return h.Sum64()
}

// hashSeq combines element hashes order-sensitively, for list/vector.
func hashSeq(items []Value) uint64 {
	acc := uint64(1)
	for _, it := range items {
		acc = acc*31 + Hash(it)
	}
	return splitmix64(acc)
}

func hashVector(vec *Vector) uint64 {
	acc := uint64(1)
	vec.Range(func(i int, val Value) bool {
		acc = acc*31 + Hash(val)
		return true
	})
	return splitmix64(acc)
}

// hashMap and hashSet combine entry hashes order-insensitively (XOR), so
// the hash does not depend on the small-map/HAMT representation boundary.
func hashMap(m *Map) uint64 {
	acc := uint64(0)
	m.Range(func(k, v Value) bool {
		acc ^= splitmix64(Hash(k)*31 + Hash(v))
		return true
	})
	return acc
}

func hashSet(s *Set) uint64 {
	acc := uint64(0)
	s.Range(func(v Value) bool {
		acc ^= Hash(v)
		return true
	})
	return acc
}
