package reader

import (
	"testing"

	"github.com/clojurewasm/cljw/internal/value"
)

func mustRead(t *testing.T, src string) value.Value {
	t.Helper()
	r := New(src, "test")
	v, ok, err := r.Read()
	if err != nil {
		t.Fatalf("Read(%q) error: %v", src, err)
	}
	if !ok {
		t.Fatalf("Read(%q) returned no form", src)
	}
	return v
}

func TestReadLiterals(t *testing.T) {
	tests := []struct {
		src  string
		kind value.Kind
	}{
		{"nil", value.KindNil},
		{"true", value.KindBool},
		{"42", value.KindInt},
		{"3.14", value.KindFloat},
		{`"hi"`, value.KindString},
		{"\\a", value.KindChar},
		{":kw", value.KindKeyword},
		{"sym", value.KindSymbol},
		{"(1 2 3)", value.KindList},
		{"[1 2 3]", value.KindVector},
		{"{:a 1}", value.KindMap},
		{"#{1 2 3}", value.KindSet},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got := mustRead(t, tt.src)
			if got.Kind != tt.kind {
				t.Errorf("Read(%q).Kind = %v, want %v", tt.src, got.Kind, tt.kind)
			}
		})
	}
}

func TestReadQuoteShorthand(t *testing.T) {
	got := mustRead(t, "'foo")
	lst := got.AsList()
	if lst.Count() != 2 || !isSym(lst.First(), "quote") {
		t.Errorf("'foo should read as (quote foo), got %v", got)
	}
}

func TestReadFnLiteral(t *testing.T) {
	got := mustRead(t, "#(+ % %2)")
	lst := got.AsList()
	if lst.Count() != 3 || !isSym(lst.First(), "fn*") {
		t.Fatalf("#(...) should read as (fn* [...] ...), got %v", got)
	}
	params := lst.Rest().First()
	if params.Kind != value.KindVector || params.AsVector().Count() != 2 {
		t.Errorf("expected 2 generated params, got %v", params)
	}
}

func TestReadDiscard(t *testing.T) {
	r := New("#_ignored kept", "test")
	got, ok, err := r.Read()
	if err != nil || !ok {
		t.Fatalf("Read() after #_ error=%v ok=%v", err, ok)
	}
	if got.Kind != value.KindSymbol || got.AsSymbol().Name != "kept" {
		t.Errorf("expected 'kept' symbol after discard, got %v", got)
	}
}

func TestSyntaxQuoteUnquoteSplicing(t *testing.T) {
	got := mustRead(t, "`(a ~@b c)")
	lst := got.AsList()
	if lst.Count() != 2 || !isSym(lst.First(), "seq") {
		t.Fatalf("syntax-quoted list should wrap in (seq (concat ...)), got %v", got)
	}
}

func TestReadSetLiteral(t *testing.T) {
	got := mustRead(t, "#{1 2 3}")
	if got.Kind != value.KindSet {
		t.Fatalf("expected a set, got %v", got.Kind)
	}
	s := got.Data.(*value.Set)
	if s.Count() != 3 {
		t.Errorf("Count() = %d, want 3", s.Count())
	}
}

func TestReadAllMultipleForms(t *testing.T) {
	r := New("1 2 3", "test")
	forms, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	if len(forms) != 3 {
		t.Fatalf("ReadAll() returned %d forms, want 3", len(forms))
	}
}

func TestUnterminatedListIsReaderError(t *testing.T) {
	r := New("(1 2", "test")
	_, _, err := r.Read()
	if err == nil {
		t.Fatalf("expected a reader_error for an unterminated list")
	}
}
