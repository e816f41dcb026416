package value

import (
	"strconv"
	"strings"
)

// PrintOpts controls Print's output, mirroring the dynamic vars
// *print-length* and *print-level* (spec §3.1/§7: collections truncate to
// "..." past Length elements and print as "#" past Level nesting,
// matching real Clojure).
// Length/Level <= 0 mean unlimited. Readable selects pr-str form (strings
// quoted and escaped, chars as \c) over str form (strings/chars literal).
type PrintOpts struct {
	Readable bool
	Length   int
	Level    int
}

// Print renders v per opts. This has no analog in the teacher's deleted
// Pascal-AST printer (pkg/printer wrote typed-AST source text, not
// runtime values) or elsewhere in the pack, so it is hand-built directly
// on strings.Builder — justified in DESIGN.md as a case where the
// reader/printer format itself (Lisp syntax) is the domain logic, not a
// generic concern a library could take over.
func Print(v Value, opts PrintOpts) string {
	var b strings.Builder
	printValue(&b, v, opts, 0)
	return b.String()
}

func printValue(b *strings.Builder, v Value, opts PrintOpts, depth int) {
	if opts.Level > 0 && depth >= opts.Level && isCollectionKind(v.Kind) {
		b.WriteString("#")
		return
	}
	switch v.Kind {
	case KindNil:
		b.WriteString("nil")
	case KindBool:
		if v.AsBool() {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindChar:
		printChar(b, v.AsChar(), opts.Readable)
	case KindInt:
		b.WriteString(strconv.FormatInt(v.AsInt(), 10))
	case KindFloat:
		printFloat(b, v.AsFloat())
	case KindString:
		printString(b, v.AsString(), opts.Readable)
	case KindSymbol:
		b.WriteString(v.AsSymbol().String())
	case KindKeyword:
		b.WriteString(v.AsKeyword().String())
	case KindList:
		printList(b, v.AsList(), opts, depth)
	case KindVector:
		printVector(b, v.AsVector(), opts, depth)
	case KindMap:
		printMap(b, v.AsMap(), opts, depth)
	case KindSet:
		printSet(b, v.AsSet(), opts, depth)
	case KindFn:
		b.WriteString("#object[clojure.lang.Fn]")
	case KindAtom:
		b.WriteString("#object[clojure.lang.Atom]")
	case KindVar:
		b.WriteString("#'")
		b.WriteString(v.Data.(interface{ String() string }).String())
	case KindException:
		printMap(b, v.Data.(*Map), opts, depth)
	case KindRegex:
		b.WriteString("#\"")
		b.WriteString(v.AsRegex().Source)
		b.WriteString("\"")
	case KindUUID:
		b.WriteString("#uuid \"")
		b.WriteString(v.AsUUID().String())
		b.WriteString("\"")
	case KindDate:
		b.WriteString("#inst \"")
		b.WriteString(v.AsDate().T.UTC().Format("2006-01-02T15:04:05.000Z"))
		b.WriteString("\"")
	case KindClassInstance:
		printMap(b, v.AsClassInstance().Fields, opts, depth)
	case KindHandle:
		b.WriteString("#object[")
		b.WriteString(v.AsHandle().Tag)
		b.WriteString("]")
	default:
		b.WriteString(v.Kind.String())
	}
}

func isCollectionKind(k Kind) bool {
	switch k {
	case KindList, KindVector, KindMap, KindSet:
		return true
	}
	return false
}

func printChar(b *strings.Builder, r rune, readable bool) {
	if !readable {
		b.WriteRune(r)
		return
	}
	b.WriteString("\\")
	switch r {
	case ' ':
		b.WriteString("space")
	case '\n':
		b.WriteString("newline")
	case '\t':
		b.WriteString("tab")
	case '\r':
		b.WriteString("return")
	case 0:
		b.WriteString("null")
	case 0x08:
		b.WriteString("backspace")
	case 0x0C:
		b.WriteString("formfeed")
	default:
		b.WriteRune(r)
	}
}

func printFloat(b *strings.Builder, f float64) {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	b.WriteString(s)
}

func printString(b *strings.Builder, s string, readable bool) {
	if !readable {
		b.WriteString(s)
		return
	}
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString("\\\"")
		case '\\':
			b.WriteString("\\\\")
		case '\n':
			b.WriteString("\\n")
		case '\t':
			b.WriteString("\\t")
		case '\r':
			b.WriteString("\\r")
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}

func printList(b *strings.Builder, l *List, opts PrintOpts, depth int) {
	b.WriteByte('(')
	items := l.ToSlice()
	printElems(b, len(items), func(i int) Value { return items[i] }, opts, depth)
	b.WriteByte(')')
}

func printVector(b *strings.Builder, vec *Vector, opts PrintOpts, depth int) {
	b.WriteByte('[')
	printElems(b, vec.Count(), func(i int) Value { v, _ := vec.Get(i); return v }, opts, depth)
	b.WriteByte(']')
}

func printElems(b *strings.Builder, n int, get func(int) Value, opts PrintOpts, depth int) {
	limit := n
	truncated := false
	if opts.Length > 0 && n > opts.Length {
		limit = opts.Length
		truncated = true
	}
	for i := 0; i < limit; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		printValue(b, get(i), opts, depth+1)
	}
	if truncated {
		if limit > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("...")
	}
}

func printMap(b *strings.Builder, m *Map, opts PrintOpts, depth int) {
	b.WriteByte('{')
	i := 0
	limit := m.Count()
	truncated := opts.Length > 0 && limit > opts.Length
	if truncated {
		limit = opts.Length
	}
	m.Range(func(k, v Value) bool {
		if i >= limit {
			return false
		}
		if i > 0 {
			b.WriteString(", ")
		}
		printValue(b, k, opts, depth+1)
		b.WriteByte(' ')
		printValue(b, v, opts, depth+1)
		i++
		return true
	})
	if truncated {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("...")
	}
	b.WriteByte('}')
}

func printSet(b *strings.Builder, s *Set, opts PrintOpts, depth int) {
	b.WriteString("#{")
	i := 0
	limit := s.Count()
	truncated := opts.Length > 0 && limit > opts.Length
	if truncated {
		limit = opts.Length
	}
	s.Range(func(v Value) bool {
		if i >= limit {
			return false
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		printValue(b, v, opts, depth+1)
		i++
		return true
	})
	if truncated {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("...")
	}
	b.WriteByte('}')
}
