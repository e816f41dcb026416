package errors

import (
	"strings"
	"testing"

	"github.com/clojurewasm/cljw/pkg/token"
)

func TestSourceErrorFormatIncludesCaret(t *testing.T) {
	pos := token.Position{Line: 2, Column: 5}
	err := NewSourceError(KindReader, pos, "unexpected EOF", "(foo\n(bar", "core.clj")

	got := err.Format(false)
	if !strings.Contains(got, "reader_error") {
		t.Errorf("Format() should mention the error kind, got %q", got)
	}
	if !strings.Contains(got, "core.clj:2:5") {
		t.Errorf("Format() should mention file:line:column, got %q", got)
	}
	if !strings.Contains(got, "(bar") {
		t.Errorf("Format() should include the offending source line, got %q", got)
	}
	if !strings.Contains(got, "^") {
		t.Errorf("Format() should include a caret, got %q", got)
	}
}

func TestCatchesMatchesExactAndAncestor(t *testing.T) {
	if !Catches("ArithmeticException", "ArithmeticException") {
		t.Errorf("Catches should match identical class names")
	}
	if !Catches("RuntimeException", "ArithmeticException") {
		t.Errorf("Catches should match a declared ancestor")
	}
	if !Catches("Throwable", "ArithmeticException") {
		t.Errorf("Catches should match the root ancestor")
	}
	if Catches("ArithmeticException", "ClassCastException") {
		t.Errorf("Catches should not match unrelated sibling classes")
	}
}

func TestRuntimeErrorToExceptionMapShape(t *testing.T) {
	err := NewRuntimeError(KindArithmetic, "Divide by zero")
	ex := err.ToExceptionMap()
	m := ex.AsMap()

	msg, ok := m.Get(ExKeyMessage)
	if !ok || msg.AsString() != "Divide by zero" {
		t.Errorf("exception_map message = %v, want \"Divide by zero\"", msg)
	}
	typ, ok := m.Get(ExKeyType)
	if !ok || typ.AsString() != "ArithmeticException" {
		t.Errorf("exception_map __ex_type = %v, want \"ArithmeticException\"", typ)
	}
}
