package reader

import (
	"strings"
	"time"

	"github.com/clojurewasm/cljw/internal/value"
	"github.com/clojurewasm/cljw/pkg/token"
)

// TagReaders holds user-registered #tag data readers (spec §4.D), keyed
// by tag name. inst and uuid are handled directly since they're part of
// the reader's own grammar; anything else not found here falls back to a
// value.Handle carrying the tag name, rather than erroring outright, so
// a single unregistered tag doesn't abort reading an entire file.
var TagReaders = map[string]func(value.Value) (value.Value, error){}

func (r *Reader) readTagged(tok token.Token) ([]value.Value, error) {
	data, err := r.readOneForm(tok.Pos)
	if err != nil {
		return nil, err
	}
	switch tok.Literal {
	case "inst":
		s := data.AsString()
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, r.errorf(tok.Pos, "invalid #inst literal %q: %v", s, err)
		}
		return one(value.DateValue(value.Date{T: t})), nil
	case "uuid":
		s := data.AsString()
		u, err := value.ParseUUID(s)
		if err != nil {
			return nil, r.errorf(tok.Pos, "invalid #uuid literal %q: %v", s, err)
		}
		return one(value.UUIDValue(u)), nil
	}
	if fn, ok := TagReaders[tok.Literal]; ok {
		v, err := fn(data)
		if err != nil {
			return nil, r.errorf(tok.Pos, "#%s reader failed: %v", tok.Literal, err)
		}
		return one(v), nil
	}
	return one(value.HandleValue(&value.Handle{Tag: tok.Literal, Ref: data})), nil
}

func (r *Reader) readNSMap(tok token.Token) ([]value.Value, error) {
	autoResolved := strings.Count(tok.Literal, ":") >= 2
	var ns string
	if autoResolved {
		ns = r.currentNS()
	} else {
		nsTok := r.lx.NextToken()
		if nsTok.Kind != token.SYMBOL {
			return nil, r.errorf(tok.Pos, "expected a namespace symbol after #:")
		}
		ns = nsTok.Literal
	}
	brace := r.lx.NextToken()
	if brace.Kind != token.LBRACE {
		return nil, r.errorf(tok.Pos, "expected { after #:%s", ns)
	}
	items, err := r.readSeqUntil(brace.Pos, token.RBRACE, "}")
	if err != nil {
		return nil, err
	}
	for i := 0; i+1 < len(items); i += 2 {
		if items[i].Kind == value.KindKeyword {
			kw := items[i].AsKeyword()
			if kw.Ns == "" {
				items[i] = value.KeywordValue(ns, kw.Name)
			}
		}
	}
	m, err := pairsToMap(items)
	if err != nil {
		return nil, r.errorf(tok.Pos, "%s", err.Error())
	}
	return one(value.Value{Kind: value.KindMap, Data: m}), nil
}

// readerFeature is the feature keyword cljw answers to in #?/#?@ reader
// conditionals (spec §4.D); :default is tried when :cljw has no branch.
const readerFeature = "cljw"

func (r *Reader) readReaderConditional(pos token.Position, splicing bool) ([]value.Value, error) {
	lp := r.lx.NextToken()
	if lp.Kind != token.LPAREN {
		return nil, r.errorf(pos, "expected ( after #?")
	}
	items, err := r.readSeqUntil(lp.Pos, token.RPAREN, ")")
	if err != nil {
		return nil, err
	}
	if len(items)%2 != 0 {
		return nil, r.errorf(pos, "reader conditional requires an even number of feature/form pairs")
	}

	var selected value.Value
	var defaultForm value.Value
	found, hasDefault := false, false
	for i := 0; i+1 < len(items); i += 2 {
		if items[i].Kind != value.KindKeyword {
			continue
		}
		kw := items[i].AsKeyword()
		switch kw.Name {
		case readerFeature:
			selected, found = items[i+1], true
		case "default":
			defaultForm, hasDefault = items[i+1], true
		}
		if found {
			break
		}
	}
	if !found && hasDefault {
		selected, found = defaultForm, true
	}
	if !found {
		return nil, nil
	}
	if !splicing {
		return one(selected), nil
	}
	switch selected.Kind {
	case value.KindList:
		return selected.AsList().ToSlice(), nil
	case value.KindVector:
		vec := selected.AsVector()
		out := make([]value.Value, 0, vec.Count())
		vec.Range(func(_ int, v value.Value) bool { out = append(out, v); return true })
		return out, nil
	default:
		return one(selected), nil
	}
}

// attachMeta implements ^meta form. The R layer has no universal metadata
// slot on value.Value, so reader-level metadata is preserved as a
// (with-meta form meta) call the analyzer resolves at analysis time
// rather than being merged into the value itself at read time.
func (r *Reader) attachMeta(meta, target value.Value) value.Value {
	if meta.Kind == value.KindKeyword || meta.Kind == value.KindSymbol {
		// ^:foo bar / ^Type bar shorthand: desugar to a map.
		m := value.EmptyMap()
		if meta.Kind == value.KindKeyword {
			m = m.Assoc(meta, value.Bool(true))
		} else {
			m = m.Assoc(value.KeywordValue("", "tag"), meta)
		}
		meta = value.Value{Kind: value.KindMap, Data: m}
	}
	return value.ListValue(value.NewList(value.SymbolValue("", "with-meta"), target, meta))
}

// readFnLit desugars #(...) into (fn* [params...] body), substituting
// %, %1..%N, %& with freshly generated local symbols the way Clojure's
// own reader does (spec §4.D): the names %1.. are not kept verbatim so
// nested #(...) forms can never collide.
func (r *Reader) readFnLit(pos token.Position) (value.Value, error) {
	items, err := r.readSeqUntil(pos, token.RPAREN, ")")
	if err != nil {
		return value.Nil(), err
	}
	body := value.ListValue(value.NewList(items...))

	state := &fnLitState{repl: map[string]value.Value{}}
	rewritten := rewriteFnLitBody(body, state)

	params := make([]value.Value, state.maxArg)
	for i := 1; i <= state.maxArg; i++ {
		params[i-1] = state.paramFor(argKey(i))
	}
	paramVec := value.NewVector(params...)
	if state.hasRest {
		paramVec = paramVec.Conj(value.SymbolValue("", "&")).Conj(state.paramFor("&"))
	}
	return value.ListValue(value.NewList(
		value.SymbolValue("", "fn*"),
		value.VectorValue(paramVec),
		rewritten,
	)), nil
}

type fnLitState struct {
	repl    map[string]value.Value
	maxArg  int
	hasRest bool
	counter int
}

func argKey(n int) string { return "%" + itoa(n) }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// paramFor returns the (possibly freshly created) local symbol that
// stands in for a %-placeholder key ("%1", "%2", "&").
func (s *fnLitState) paramFor(key string) value.Value {
	if sym, ok := s.repl[key]; ok {
		return sym
	}
	s.counter++
	sym := value.SymbolValue("", "p"+itoa(s.counter)+"__"+key+"#")
	s.repl[key] = sym
	return sym
}

func rewriteFnLitBody(v value.Value, state *fnLitState) value.Value {
	switch v.Kind {
	case value.KindSymbol:
		sym := v.AsSymbol()
		if sym.Ns != "" || len(sym.Name) == 0 || sym.Name[0] != '%' {
			return v
		}
		switch {
		case sym.Name == "%":
			if state.maxArg < 1 {
				state.maxArg = 1
			}
			return state.paramFor("%1")
		case sym.Name == "%&":
			state.hasRest = true
			return state.paramFor("&")
		default:
			n, ok := parsePositiveInt(sym.Name[1:])
			if !ok {
				return v
			}
			if n > state.maxArg {
				state.maxArg = n
			}
			return state.paramFor(argKey(n))
		}
	case value.KindList:
		items := v.AsList().ToSlice()
		out := make([]value.Value, len(items))
		for i, it := range items {
			out[i] = rewriteFnLitBody(it, state)
		}
		return value.ListValue(value.NewList(out...))
	case value.KindVector:
		vec := v.AsVector()
		out := make([]value.Value, 0, vec.Count())
		vec.Range(func(_ int, it value.Value) bool {
			out = append(out, rewriteFnLitBody(it, state))
			return true
		})
		return value.VectorValue(value.NewVector(out...))
	case value.KindMap:
		m := v.Data.(*value.Map)
		out := value.EmptyMap()
		m.Range(func(k, val value.Value) bool {
			out = out.Assoc(rewriteFnLitBody(k, state), rewriteFnLitBody(val, state))
			return true
		})
		return value.Value{Kind: value.KindMap, Data: out}
	case value.KindSet:
		s := v.Data.(*value.Set)
		out := value.EmptySet()
		s.Range(func(it value.Value) bool {
			out = out.Conj(rewriteFnLitBody(it, state))
			return true
		})
		return value.Value{Kind: value.KindSet, Data: out}
	default:
		return v
	}
}

func parsePositiveInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
