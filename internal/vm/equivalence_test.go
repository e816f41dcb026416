package vm

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/clojurewasm/cljw/internal/analyzer"
	"github.com/clojurewasm/cljw/internal/compiler"
	"github.com/clojurewasm/cljw/internal/dispatch"
	"github.com/clojurewasm/cljw/internal/env"
	"github.com/clojurewasm/cljw/internal/eval"
	"github.com/clojurewasm/cljw/internal/gc"
	"github.com/clojurewasm/cljw/internal/reader"
	"github.com/clojurewasm/cljw/internal/value"
)

// These tests verify spec §8 property 1, "engine equivalence": every
// form below must evaluate to the printed-identical result whether run
// by internal/eval's tree-walker or this package's bytecode VM. Each test
// snapshots the tree-walk result and checks the VM result against it with
// value.Equal; a failed check is the signal something has drifted.
func newEquivalenceRig(t *testing.T) (*env.Env, *analyzer.Analyzer, *eval.Evaluator, *VM) {
	t.Helper()
	e := env.New(gc.New())
	ns := e.Current()

	ns.Intern("+").BindRoot(value.FnValue(value.NewBuiltin("+", func(args []value.Value) (value.Value, error) {
		var sum int64
		for _, a := range args {
			sum += a.AsInt()
		}
		return value.Int(sum), nil
	})))
	ns.Intern("=").BindRoot(value.FnValue(value.NewBuiltin("=", func(args []value.Value) (value.Value, error) {
		return value.Bool(value.Equal(args[0], args[1])), nil
	})))
	for _, name := range []string{"nth", "get", "drop"} {
		ns.Intern(name).BindRoot(value.FnValue(value.NewBuiltin(name, func(args []value.Value) (value.Value, error) {
			return value.Nil(), nil
		})))
	}

	ev := eval.New(e)
	m := New(e)
	// TreewalkCall and BytecodeCall both install here since equivalence
	// tests evaluate the SAME Node through each engine independently,
	// never mixing them within one call (dispatch.Call's Tag switch only
	// ever sees one Fn kind per test).
	dispatch.Install(&dispatch.VTable{TreewalkCall: ev.Call, BytecodeCall: m.Call})
	return e, analyzer.New(e), ev, m
}

func runBoth(t *testing.T, src string) (treewalk, bytecode value.Value) {
	t.Helper()
	_, a, ev, m := newEquivalenceRig(t)

	r := reader.New(src, "test")
	form, ok, err := r.Read()
	if err != nil || !ok {
		t.Fatalf("read(%q): ok=%v err=%v", src, ok, err)
	}
	node, err := a.Analyze(form, nil)
	if err != nil {
		t.Fatalf("analyze(%q): %v", src, err)
	}

	tv, err := ev.Eval(node, nil)
	if err != nil {
		t.Fatalf("tree-walk eval(%q): %v", src, err)
	}

	proto, err := compiler.Compile(node)
	if err != nil {
		t.Fatalf("compile(%q): %v", src, err)
	}
	bv, err := m.Run(proto, NewFrame(nil))
	if err != nil {
		t.Fatalf("vm run(%q): %v", src, err)
	}
	return tv, bv
}

func TestEngineEquivalenceArithmetic(t *testing.T) {
	tv, bv := runBoth(t, "(+ 1 2 3)")
	snaps.MatchSnapshot(t, value.Print(tv, value.PrintOpts{Readable: true}))
	if !value.Equal(tv, bv) {
		t.Fatalf("tree-walk and vm disagree: %v vs %v", tv, bv)
	}
}

func TestEngineEquivalenceIf(t *testing.T) {
	tv, bv := runBoth(t, "(if (= 1 1) :yes :no)")
	snaps.MatchSnapshot(t, value.Print(tv, value.PrintOpts{Readable: true}))
	if !value.Equal(tv, bv) {
		t.Fatalf("tree-walk and vm disagree: %v vs %v", tv, bv)
	}
}

func TestEngineEquivalenceFnInvoke(t *testing.T) {
	tv, bv := runBoth(t, "((fn* [x y] (+ x y)) 2 3)")
	snaps.MatchSnapshot(t, value.Print(tv, value.PrintOpts{Readable: true}))
	if !value.Equal(tv, bv) {
		t.Fatalf("tree-walk and vm disagree: %v vs %v", tv, bv)
	}
}

func TestEngineEquivalenceLoopRecur(t *testing.T) {
	tv, bv := runBoth(t, `
		(loop* [i 0 acc 0]
		  (if (= i 5)
		    acc
		    (recur (+ i 1) (+ acc i))))
	`)
	snaps.MatchSnapshot(t, value.Print(tv, value.PrintOpts{Readable: true}))
	if !value.Equal(tv, bv) {
		t.Fatalf("tree-walk and vm disagree: %v vs %v", tv, bv)
	}
}

func TestEngineEquivalenceVectorLiteral(t *testing.T) {
	tv, bv := runBoth(t, "[1 2 3]")
	snaps.MatchSnapshot(t, value.Print(tv, value.PrintOpts{Readable: true}))
	if !value.Equal(tv, bv) {
		t.Fatalf("tree-walk and vm disagree: %v vs %v", tv, bv)
	}
}
