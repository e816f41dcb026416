// Package errors implements spec §7: the closed error-kind set, the
// exception_map shape runtime errors take once they cross into user
// code, and source-context formatting for the non-catchable reader/
// analyzer/compiler errors.
//
// Grounded on the teacher's internal/errors/errors.go, which formats a
// *CompilerError with a file:line:column header, the offending source
// line, and a caret pointing at the column — that presentation is kept
// verbatim here (renamed SourceError, repositioned on pkg/token.Position)
// since it has nothing DWScript-specific about it; only the underlying
// error taxonomy changes, from Pascal compiler diagnostics to spec §7's
// closed Kind set.
package errors

import (
	"fmt"
	"strings"

	"github.com/clojurewasm/cljw/internal/value"
	"github.com/clojurewasm/cljw/pkg/token"
)

// Kind is spec §7's closed, user-visible error-kind set.
type Kind string

const (
	KindArity       Kind = "arity_error"
	KindType        Kind = "type_error"
	KindValue       Kind = "value_error"
	KindArithmetic  Kind = "arithmetic_error"
	KindIndex       Kind = "index_error"
	KindKey         Kind = "key_error"
	KindState       Kind = "state_error"
	KindIO          Kind = "io_error"
	KindReader      Kind = "reader_error"
	KindCompile     Kind = "compile_error"
	KindResolve     Kind = "resolve_error"
	KindStackOverflow Kind = "stack_overflow"
	KindInternal    Kind = "internal_error"
)

// SourceError is a reader/analyzer/compiler diagnostic: raised
// synchronously with a source location, not catchable via try (spec §7,
// "not catchable... abort evaluation of the enclosing top-level form").
type SourceError struct {
	Kind    Kind
	Message string
	Source  string
	File    string
	Pos     token.Position
}

func NewSourceError(kind Kind, pos token.Position, message, source, file string) *SourceError {
	return &SourceError{Kind: kind, Pos: pos, Message: message, Source: source, File: file}
}

func (e *SourceError) Error() string {
	return e.Format(false)
}

// Format renders the error with a file:line:column header, the offending
// source line, and a caret under the column. If color is true, ANSI
// codes highlight the message and caret.
func (e *SourceError) Format(color bool) string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(fmt.Sprintf("%s in %s:%d:%d\n", e.Kind, e.File, e.Pos.Line, e.Pos.Column))
	} else {
		sb.WriteString(fmt.Sprintf("%s at line %d:%d\n", e.Kind, e.Pos.Line, e.Pos.Column))
	}

	if line := e.sourceLine(e.Pos.Line); line != "" {
		lineNumStr := fmt.Sprintf("%4d | ", e.Pos.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(line)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+e.Pos.Column-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m")
	}
	return sb.String()
}

func (e *SourceError) sourceLine(lineNum int) string {
	if e.Source == "" {
		return ""
	}
	lines := strings.Split(e.Source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// FormatErrors renders a batch of SourceErrors, numbering them when
// there is more than one — used when the reader/analyzer accumulates
// multiple diagnostics for a single top-level form before aborting it.
func FormatErrors(errs []*SourceError, color bool) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return errs[0].Format(color)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d error(s):\n\n", len(errs)))
	for i, e := range errs {
		sb.WriteString(fmt.Sprintf("[%d of %d]\n", i+1, len(errs)))
		sb.WriteString(e.Format(color))
		if i < len(errs)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

// exHierarchy is the small ancestor table spec §7 describes:
// Throwable -> Error/Exception -> RuntimeException -> specific subtypes.
// Catch matches if the declared class equals or is an ancestor of the
// thrown value's __ex_type.
var exHierarchy = map[string]string{
	"ArithmeticException":     "RuntimeException",
	"IndexOutOfBoundsException": "RuntimeException",
	"ClassCastException":      "RuntimeException",
	"IllegalArgumentException": "RuntimeException",
	"IllegalStateException":   "RuntimeException",
	"NullPointerException":    "RuntimeException",
	"ExceptionInfo":           "RuntimeException",
	"RuntimeException":        "Exception",
	"Exception":               "Throwable",
	"Error":                   "Throwable",
}

// Catches implements spec §8 property 8: declared catches thrown iff
// they are equal or declared is a registered ancestor of thrown.
func Catches(declared, thrown string) bool {
	for t := thrown; t != ""; t = exHierarchy[t] {
		if t == declared {
			return true
		}
	}
	return false
}

// Keys used inside an exception_map's backing *value.Map (spec §7,
// "carrying {__ex_info, message, data, cause, __ex_type}").
var (
	ExKeyInfo    = value.KeywordValue("", "__ex_info")
	ExKeyMessage = value.KeywordValue("", "message")
	ExKeyData    = value.KeywordValue("", "data")
	ExKeyCause   = value.KeywordValue("", "cause")
	ExKeyType    = value.KeywordValue("", "__ex_type")
)

// NewExceptionMap builds the exception_map Value a thrown runtime error
// becomes once it crosses from a Go error into engine-visible state.
func NewExceptionMap(exType, message string, data value.Value, cause value.Value) value.Value {
	m := value.EmptyMap()
	m = m.Assoc(ExKeyType, value.String(exType))
	m = m.Assoc(ExKeyMessage, value.String(message))
	m = m.Assoc(ExKeyData, data)
	m = m.Assoc(ExKeyCause, cause)
	m = m.Assoc(ExKeyInfo, value.Bool(true))
	return value.Value{Kind: value.KindException, Data: m}
}

// kindExClass maps an internal Kind to the Java-style exception class
// name exHierarchy and user try/catch forms key on; kinds with no closer
// ancestor than RuntimeException (key_error, io_error, resolve_error, and
// any kind missing from this table) fall back to that directly.
var kindExClass = map[Kind]string{
	KindArity:         "IllegalArgumentException",
	KindType:          "ClassCastException",
	KindValue:         "IllegalArgumentException",
	KindArithmetic:    "ArithmeticException",
	KindIndex:         "IndexOutOfBoundsException",
	KindKey:           "RuntimeException",
	KindState:         "IllegalStateException",
	KindIO:            "RuntimeException",
	KindResolve:       "RuntimeException",
	KindInternal:      "Error",
}

// RuntimeError wraps a Go error raised by a builtin or engine primitive
// with the Kind it should surface as once converted to an exception_map.
type RuntimeError struct {
	Kind    Kind
	Message string
}

func (e *RuntimeError) Error() string { return e.Message }

func NewRuntimeError(kind Kind, message string) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: message}
}

// ExClass returns the Java-style exception class name this error's Kind
// surfaces as for try/catch matching.
func (e *RuntimeError) ExClass() string {
	if cls, ok := kindExClass[e.Kind]; ok {
		return cls
	}
	return "RuntimeException"
}

// ToExceptionMap converts a RuntimeError into the exception_map shape
// both engines propagate via frame unwinding.
func (e *RuntimeError) ToExceptionMap() value.Value {
	return NewExceptionMap(e.ExClass(), e.Message, value.Nil(), value.Nil())
}
