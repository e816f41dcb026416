package cmd

import (
	"testing"

	"github.com/clojurewasm/cljw/internal/module"
	"github.com/clojurewasm/cljw/internal/value"
)

func TestCompileAllForms_RoundTripThroughModule(t *testing.T) {
	rt := newTestRuntime(t)
	source := "(def x 7) (* x 6)"

	proto, err := compileAllForms(rt.Analyzer, source, "<test>")
	if err != nil {
		t.Fatalf("compileAllForms failed: %v", err)
	}

	data, err := module.Encode(proto)
	if err != nil {
		t.Fatalf("module.Encode failed: %v", err)
	}

	result, err := runModule(rt, data)
	if err != nil {
		t.Fatalf("runModule failed: %v", err)
	}
	if result.Kind != value.KindInt || result.AsInt() != 42 {
		t.Errorf("expected 42, got %v", value.Print(result, value.PrintOpts{Readable: true}))
	}
}

func TestCompileAllForms_MatchesTreeWalkResult(t *testing.T) {
	source := "(defn square [n] (* n n)) (square 9)"

	treeRt := newTestRuntime(t)
	want, err := evalAllForms(treeRt, source, "<test>")
	if err != nil {
		t.Fatalf("evalAllForms failed: %v", err)
	}

	bytecodeRt := newTestRuntime(t)
	proto, err := compileAllForms(bytecodeRt.Analyzer, source, "<test>")
	if err != nil {
		t.Fatalf("compileAllForms failed: %v", err)
	}
	data, err := module.Encode(proto)
	if err != nil {
		t.Fatalf("module.Encode failed: %v", err)
	}
	got, err := runModule(bytecodeRt, data)
	if err != nil {
		t.Fatalf("runModule failed: %v", err)
	}

	if got.Kind != want.Kind || got.AsInt() != want.AsInt() {
		t.Errorf("tree-walk and bytecode engines disagree: want %v, got %v",
			value.Print(want, value.PrintOpts{Readable: true}),
			value.Print(got, value.PrintOpts{Readable: true}))
	}
}

func TestCompileAllForms_PropagatesAnalysisErrors(t *testing.T) {
	rt := newTestRuntime(t)
	if _, err := compileAllForms(rt.Analyzer, "(undefined-symbol)", "<test>"); err == nil {
		t.Fatal("expected an error for an unresolved symbol, got nil")
	}
}
