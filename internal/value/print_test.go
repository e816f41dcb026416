package value

import "testing"

func TestPrintSimpleValues(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		opts  PrintOpts
		want  string
	}{
		{"nil", Nil(), PrintOpts{}, "nil"},
		{"true", Bool(true), PrintOpts{}, "true"},
		{"int", Int(42), PrintOpts{}, "42"},
		{"float", Float(1.5), PrintOpts{}, "1.5"},
		{"float with no fraction", Float(2.0), PrintOpts{}, "2.0"},
		{"keyword", KeywordValue("", "foo"), PrintOpts{}, ":foo"},
		{"namespaced keyword", KeywordValue("a.b", "foo"), PrintOpts{}, ":a.b/foo"},
		{"symbol", SymbolValue("", "foo"), PrintOpts{}, "foo"},
		{"string str form", String("hi"), PrintOpts{Readable: false}, "hi"},
		{"string pr-str form", String("hi"), PrintOpts{Readable: true}, "\"hi\""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Print(tc.value, tc.opts)
			if got != tc.want {
				t.Errorf("Print(%v) = %q, want %q", tc.value, got, tc.want)
			}
		})
	}
}

func TestPrintStringEscaping(t *testing.T) {
	got := Print(String("a\"b\\c\nd"), PrintOpts{Readable: true})
	want := `"a\"b\\c\nd"`
	if got != want {
		t.Errorf("Print(readable string) = %q, want %q", got, want)
	}
}

func TestPrintCollections(t *testing.T) {
	v := NewVector(Int(1), Int(2), Int(3))
	if got := Print(VectorValue(v), PrintOpts{}); got != "[1 2 3]" {
		t.Errorf("Print(vector) = %q, want %q", got, "[1 2 3]")
	}

	l := NewList(Int(1), Int(2))
	if got := Print(ListValue(l), PrintOpts{}); got != "(1 2)" {
		t.Errorf("Print(list) = %q, want %q", got, "(1 2)")
	}

	s := NewSet(Int(1))
	if got := Print(SetValue(s), PrintOpts{}); got != "#{1}" {
		t.Errorf("Print(set) = %q, want %q", got, "#{1}")
	}
}

func TestPrintLengthTruncation(t *testing.T) {
	v := NewVector(Int(1), Int(2), Int(3), Int(4), Int(5))
	got := Print(VectorValue(v), PrintOpts{Length: 2})
	want := "[1 2 ...]"
	if got != want {
		t.Errorf("Print with Length=2 = %q, want %q", got, want)
	}
}

func TestPrintLevelTruncation(t *testing.T) {
	inner := VectorValue(NewVector(Int(1)))
	outer := NewVector(inner)
	got := Print(VectorValue(outer), PrintOpts{Level: 1})
	want := "[#]"
	if got != want {
		t.Errorf("Print with Level=1 = %q, want %q", got, want)
	}
}
