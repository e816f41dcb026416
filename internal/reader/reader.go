// Package reader implements the D component of spec §4.D: a Form reader
// sitting directly on top of internal/lexer's token stream. It has no
// grammar of its own beyond "balance brackets and dispatch reader
// macros" — every production is a value.Value, so downstream stages
// (analyzer, compiler, tree-walk evaluator) never see a parse tree that
// isn't already runtime data, matching Clojure's read/eval symmetry.
//
// Grounded on the teacher's internal/parser package for the overall
// shape (a single-pass recursive-descent reader returning an
// *errors.SourceError diagnostic instead of panicking), adapted from
// grammar-driven parsing to bracket-form reading since Clojure forms
// have no operator precedence to resolve.
package reader

import (
	"fmt"

	"github.com/clojurewasm/cljw/internal/errors"
	"github.com/clojurewasm/cljw/internal/lexer"
	"github.com/clojurewasm/cljw/internal/value"
	"github.com/clojurewasm/cljw/pkg/token"
)

// Reader turns a token stream into a sequence of Forms (value.Value).
type Reader struct {
	lx     *lexer.Lexer
	file   string
	source string

	// CurrentNS is consulted by syntax-quote to qualify bare symbols with
	// the reader's notion of *ns*. Defaults to "user" when nil, so the
	// reader is usable standalone without a live Env.
	CurrentNS func() string

	gensymSuffix int
	gensymScope  map[string]string
}

func New(source, file string) *Reader {
	return &Reader{lx: lexer.New(source), file: file, source: source}
}

func (r *Reader) currentNS() string {
	if r.CurrentNS != nil {
		return r.CurrentNS()
	}
	return "user"
}

func (r *Reader) errorf(pos token.Position, format string, args ...any) error {
	return errors.NewSourceError(errors.KindReader, pos, fmt.Sprintf(format, args...), r.source, r.file)
}

// ReadAll reads every top-level form until EOF.
func (r *Reader) ReadAll() ([]value.Value, error) {
	var forms []value.Value
	for {
		tok := r.lx.Peek(0)
		if tok.Kind == token.EOF {
			return forms, nil
		}
		items, err := r.readDispatch()
		if err != nil {
			return forms, err
		}
		forms = append(forms, items...)
	}
}

// Read reads a single top-level form. ok is false at EOF.
func (r *Reader) Read() (form value.Value, ok bool, err error) {
	for {
		tok := r.lx.Peek(0)
		if tok.Kind == token.EOF {
			return value.Nil(), false, nil
		}
		items, err := r.readDispatch()
		if err != nil {
			return value.Nil(), false, err
		}
		if len(items) == 0 {
			continue // #_ discarded the only thing at this position
		}
		return items[0], true, nil
	}
}

// readDispatch reads exactly one reader-macro's worth of input, which may
// yield zero forms (#_discard), one form (the common case), or several
// forms (a splicing reader conditional #?@).
func (r *Reader) readDispatch() ([]value.Value, error) {
	tok := r.lx.NextToken()
	switch tok.Kind {
	case token.EOF:
		return nil, r.errorf(tok.Pos, "unexpected EOF")

	case token.LPAREN:
		v, err := r.readSeqUntil(tok.Pos, token.RPAREN, ")")
		if err != nil {
			return nil, err
		}
		return one(value.ListValue(value.NewList(v...))), nil

	case token.LBRACKET:
		v, err := r.readSeqUntil(tok.Pos, token.RBRACKET, "]")
		if err != nil {
			return nil, err
		}
		return one(value.VectorValue(value.NewVector(v...))), nil

	case token.LBRACE:
		v, err := r.readSeqUntil(tok.Pos, token.RBRACE, "}")
		if err != nil {
			return nil, err
		}
		m, err := pairsToMap(v)
		if err != nil {
			return nil, r.errorf(tok.Pos, "%s", err.Error())
		}
		return one(value.Value{Kind: value.KindMap, Data: m}), nil

	case token.RPAREN, token.RBRACKET, token.RBRACE:
		return nil, r.errorf(tok.Pos, "unmatched %q", tok.Literal)

	case token.NIL:
		return one(value.Nil()), nil
	case token.TRUE:
		return one(value.Bool(true)), nil
	case token.FALSE:
		return one(value.Bool(false)), nil

	case token.INT:
		v, err := parseInt(tok.Literal)
		if err != nil {
			return nil, r.errorf(tok.Pos, "invalid integer literal %q: %v", tok.Literal, err)
		}
		return one(v), nil
	case token.FLOAT:
		v, err := parseFloat(tok.Literal)
		if err != nil {
			return nil, r.errorf(tok.Pos, "invalid float literal %q: %v", tok.Literal, err)
		}
		return one(v), nil
	case token.RATIO:
		v, err := parseRatio(tok.Literal)
		if err != nil {
			return nil, r.errorf(tok.Pos, "invalid ratio literal %q: %v", tok.Literal, err)
		}
		return one(v), nil

	case token.STRING:
		s, err := unescapeString(tok.Literal)
		if err != nil {
			return nil, r.errorf(tok.Pos, "invalid string literal: %v", err)
		}
		return one(value.String(s)), nil

	case token.CHARACTER:
		c, err := parseChar(tok.Literal)
		if err != nil {
			return nil, r.errorf(tok.Pos, "invalid character literal %q: %v", tok.Literal, err)
		}
		return one(value.Char(c)), nil

	case token.KEYWORD:
		return one(parseKeyword(tok.Literal, r.currentNS())), nil

	case token.SYMBOL:
		return one(parseSymbol(tok.Literal)), nil

	case token.SYMBOLIC:
		switch tok.Literal {
		case "##Inf":
			return one(value.Float(posInf)), nil
		case "##-Inf":
			return one(value.Float(negInf)), nil
		case "##NaN":
			return one(value.Float(nan)), nil
		}
		return nil, r.errorf(tok.Pos, "unknown symbolic literal %q", tok.Literal)

	case token.QUOTE:
		form, err := r.readOneForm(tok.Pos)
		if err != nil {
			return nil, err
		}
		return one(wrapSym("quote", form)), nil

	case token.SYNTAX_QUOTE:
		form, err := r.readOneForm(tok.Pos)
		if err != nil {
			return nil, err
		}
		r.gensymScope = map[string]string{}
		return one(r.syntaxQuote(form)), nil

	case token.UNQUOTE:
		form, err := r.readOneForm(tok.Pos)
		if err != nil {
			return nil, err
		}
		return one(wrapSym("unquote", form)), nil

	case token.UNQUOTE_SPLICING:
		form, err := r.readOneForm(tok.Pos)
		if err != nil {
			return nil, err
		}
		return one(wrapSym("unquote-splicing", form)), nil

	case token.DEREF:
		form, err := r.readOneForm(tok.Pos)
		if err != nil {
			return nil, err
		}
		return one(wrapSym("deref", form)), nil

	case token.VAR_QUOTE:
		form, err := r.readOneForm(tok.Pos)
		if err != nil {
			return nil, err
		}
		return one(wrapSym("var", form)), nil

	case token.META:
		metaForm, err := r.readOneForm(tok.Pos)
		if err != nil {
			return nil, err
		}
		target, err := r.readOneForm(tok.Pos)
		if err != nil {
			return nil, err
		}
		return one(r.attachMeta(metaForm, target)), nil

	case token.DISCARD:
		if _, err := r.readOneForm(tok.Pos); err != nil {
			return nil, err
		}
		return nil, nil

	case token.FN_LIT:
		form, err := r.readFnLit(tok.Pos)
		if err != nil {
			return nil, err
		}
		return one(form), nil

	case token.SET_LIT:
		v, err := r.readSeqUntil(tok.Pos, token.RBRACE, "}")
		if err != nil {
			return nil, err
		}
		return one(value.Value{Kind: value.KindSet, Data: value.NewSet(v...)}), nil

	case token.REGEX:
		s, err := unescapeString(tok.Literal)
		if err != nil {
			return nil, r.errorf(tok.Pos, "invalid regex literal: %v", err)
		}
		re, err := value.NewRegex(s)
		if err != nil {
			return nil, r.errorf(tok.Pos, "invalid regex %q: %v", s, err)
		}
		return one(value.Value{Kind: value.KindRegex, Data: re}), nil

	case token.READER_COND:
		return r.readReaderConditional(tok.Pos, false)
	case token.READER_COND_SPL:
		return r.readReaderConditional(tok.Pos, true)

	case token.NS_MAP:
		return r.readNSMap(tok)

	case token.TAG:
		return r.readTagged(tok)

	default:
		return nil, r.errorf(tok.Pos, "unexpected token %s", tok.Kind)
	}
}

// readOneForm reads exactly one form, erroring at EOF with the macro's
// own starting position for a more useful diagnostic.
func (r *Reader) readOneForm(macroPos token.Position) (value.Value, error) {
	if r.lx.Peek(0).Kind == token.EOF {
		return value.Nil(), r.errorf(macroPos, "unexpected EOF reading form for reader macro")
	}
	items, err := r.readDispatch()
	if err != nil {
		return value.Nil(), err
	}
	for len(items) == 0 {
		if r.lx.Peek(0).Kind == token.EOF {
			return value.Nil(), r.errorf(macroPos, "unexpected EOF reading form for reader macro")
		}
		items, err = r.readDispatch()
		if err != nil {
			return value.Nil(), err
		}
	}
	return items[0], nil
}

// readSeqUntil reads forms until the matching close token, flattening
// any multi-form splices (#?@) encountered along the way.
func (r *Reader) readSeqUntil(openPos token.Position, closeKind token.Kind, closeLit string) ([]value.Value, error) {
	var out []value.Value
	for {
		tok := r.lx.Peek(0)
		if tok.Kind == token.EOF {
			return nil, r.errorf(openPos, "unexpected EOF, expected %q to close form opened here", closeLit)
		}
		if tok.Kind == closeKind {
			r.lx.NextToken()
			return out, nil
		}
		items, err := r.readDispatch()
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
}

func one(v value.Value) []value.Value { return []value.Value{v} }

func wrapSym(name string, arg value.Value) value.Value {
	return value.ListValue(value.NewList(value.SymbolValue("", name), arg))
}

// pairsToMap builds a persistent Map from an alternating key/value slice,
// as produced by {...} and #:ns{...} reads.
func pairsToMap(items []value.Value) (*value.Map, error) {
	if len(items)%2 != 0 {
		return nil, fmt.Errorf("map literal must contain an even number of forms")
	}
	m := value.EmptyMap()
	for i := 0; i < len(items); i += 2 {
		m = m.Assoc(items[i], items[i+1])
	}
	return m, nil
}

