package cmd

import (
	"strings"
	"testing"
)

func TestDisassemble_ListsMnemonicsAndConstAnnotations(t *testing.T) {
	rt := newTestRuntime(t)
	proto, err := compileAllForms(rt.Analyzer, "(+ 1 2)", "<test>")
	if err != nil {
		t.Fatalf("compileAllForms failed: %v", err)
	}

	out := Disassemble(proto)
	if !strings.Contains(out, "CONST") {
		t.Errorf("expected a CONST mnemonic in disassembly, got %q", out)
	}
	if !strings.Contains(out, "; 1") && !strings.Contains(out, "; 2") {
		t.Errorf("expected a const-value annotation, got %q", out)
	}
}

func TestDisassemble_WalksChildProtos(t *testing.T) {
	rt := newTestRuntime(t)
	proto, err := compileAllForms(rt.Analyzer, "(defn square [n] (* n n))", "<test>")
	if err != nil {
		t.Fatalf("compileAllForms failed: %v", err)
	}

	out := Disassemble(proto)
	if strings.Count(out, "==") < 4 {
		t.Errorf("expected at least two proto headers (root + closure), got %q", out)
	}
}
