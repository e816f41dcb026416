package eval

import (
	"testing"

	"github.com/clojurewasm/cljw/internal/analyzer"
	"github.com/clojurewasm/cljw/internal/dispatch"
	"github.com/clojurewasm/cljw/internal/env"
	"github.com/clojurewasm/cljw/internal/gc"
	"github.com/clojurewasm/cljw/internal/reader"
	"github.com/clojurewasm/cljw/internal/value"
)

func newTestRig(t *testing.T) (*env.Env, *analyzer.Analyzer, *Evaluator) {
	t.Helper()
	e := env.New(gc.New())
	ns := e.Current()

	plus := ns.Intern("+")
	plus.BindRoot(value.FnValue(value.NewBuiltin("+", func(args []value.Value) (value.Value, error) {
		var sum int64
		for _, a := range args {
			sum += a.AsInt()
		}
		return value.Int(sum), nil
	})))

	eq := ns.Intern("=")
	eq.BindRoot(value.FnValue(value.NewBuiltin("=", func(args []value.Value) (value.Value, error) {
		return value.Bool(value.Equal(args[0], args[1])), nil
	})))

	for _, name := range []string{"nth", "get", "drop"} {
		ns.Intern(name).BindRoot(value.FnValue(value.NewBuiltin(name, func(args []value.Value) (value.Value, error) {
			return value.Nil(), nil
		})))
	}

	ev := New(e)
	dispatch.Install(&dispatch.VTable{TreewalkCall: ev.Call})
	return e, analyzer.New(e), ev
}

func evalSrc(t *testing.T, e *env.Env, a *analyzer.Analyzer, ev *Evaluator, src string) value.Value {
	t.Helper()
	r := reader.New(src, "test")
	form, ok, err := r.Read()
	if err != nil || !ok {
		t.Fatalf("read(%q): ok=%v err=%v", src, ok, err)
	}
	node, err := a.Analyze(form, nil)
	if err != nil {
		t.Fatalf("analyze(%q): %v", src, err)
	}
	v, err := ev.Eval(node, nil)
	if err != nil {
		t.Fatalf("eval(%q): %v", src, err)
	}
	return v
}

func TestEvalConst(t *testing.T) {
	_, a, ev := newTestRig(t)
	v := evalSrc(t, nil, a, ev, "42")
	if v.AsInt() != 42 {
		t.Fatalf("expected 42, got %v", v)
	}
}

func TestEvalIf(t *testing.T) {
	_, a, ev := newTestRig(t)
	v := evalSrc(t, nil, a, ev, "(if true 1 2)")
	if v.AsInt() != 1 {
		t.Fatalf("expected 1, got %v", v)
	}
}

func TestEvalInvokeBuiltin(t *testing.T) {
	_, a, ev := newTestRig(t)
	v := evalSrc(t, nil, a, ev, "(+ 1 2 3)")
	if v.AsInt() != 6 {
		t.Fatalf("expected 6, got %v", v)
	}
}

func TestEvalFnClosureAndInvoke(t *testing.T) {
	_, a, ev := newTestRig(t)
	v := evalSrc(t, nil, a, ev, "((fn* [x y] (+ x y)) 2 3)")
	if v.AsInt() != 5 {
		t.Fatalf("expected 5, got %v", v)
	}
}

func TestEvalLoopRecur(t *testing.T) {
	_, a, ev := newTestRig(t)
	v := evalSrc(t, nil, a, ev, `
		(loop* [i 0 acc 0]
		  (if (= i 5)
		    acc
		    (recur (+ i 1) (+ acc i))))
	`)
	if v.AsInt() != 10 {
		t.Fatalf("expected 10, got %v", v)
	}
}

func TestEvalSelfRecursiveFn(t *testing.T) {
	_, a, ev := newTestRig(t)
	v := evalSrc(t, nil, a, ev, `
		((fn* count-to [n acc]
		   (if (= n 0)
		     acc
		     (recur (+ n -1) (+ acc 1))))
		 3 0)
	`)
	if v.AsInt() != 3 {
		t.Fatalf("expected 3, got %v", v)
	}
}

func TestEvalDefAndVarRef(t *testing.T) {
	e, a, ev := newTestRig(t)
	evalSrc(t, e, a, ev, "(def answer 42)")
	v := evalSrc(t, e, a, ev, "answer")
	if v.AsInt() != 42 {
		t.Fatalf("expected 42, got %v", v)
	}
}

func TestEvalTryCatchThrowable(t *testing.T) {
	_, a, ev := newTestRig(t)
	v := evalSrc(t, nil, a, ev, `
		(try
		  (throw :boom)
		  (catch Throwable e 99))
	`)
	if v.AsInt() != 99 {
		t.Fatalf("expected 99, got %v", v)
	}
}

func TestEvalTryFinallyRuns(t *testing.T) {
	e, a, ev := newTestRig(t)
	evalSrc(t, e, a, ev, "(def finally-ran 0)")
	evalSrc(t, e, a, ev, `
		(try
		  1
		  (finally (def finally-ran 1)))
	`)
	v := evalSrc(t, e, a, ev, "finally-ran")
	if v.AsInt() != 1 {
		t.Fatalf("expected finally to have run, got %v", v)
	}
}

func TestEvalDeftypeNewAndInterop(t *testing.T) {
	e, a, ev := newTestRig(t)
	evalSrc(t, e, a, ev, "(deftype* Point [x y] (getx [this] (.-x this)))")
	v := evalSrc(t, e, a, ev, "(.getx (new Point 7 8))")
	if v.AsInt() != 7 {
		t.Fatalf("expected 7, got %v", v)
	}
}

func TestEvalDeftypeFieldAccess(t *testing.T) {
	e, a, ev := newTestRig(t)
	evalSrc(t, e, a, ev, "(deftype* Pair [a b])")
	v := evalSrc(t, e, a, ev, "(.-b (new Pair 1 2))")
	if v.AsInt() != 2 {
		t.Fatalf("expected 2, got %v", v)
	}
}

func TestEvalVectorMapSetLiterals(t *testing.T) {
	_, a, ev := newTestRig(t)
	v := evalSrc(t, nil, a, ev, "[1 2 3]")
	if v.Kind != value.KindVector || v.AsVector().Count() != 3 {
		t.Fatalf("unexpected vector: %+v", v)
	}
	v = evalSrc(t, nil, a, ev, "{:a 1}")
	if v.Kind != value.KindMap {
		t.Fatalf("unexpected map: %+v", v)
	}
	v = evalSrc(t, nil, a, ev, "#{1 2}")
	if v.Kind != value.KindSet || v.AsSet().Count() != 2 {
		t.Fatalf("unexpected set: %+v", v)
	}
}

func TestEvalCaseLowering(t *testing.T) {
	_, a, ev := newTestRig(t)
	v := evalSrc(t, nil, a, ev, `(case* 2 1 :one 2 :two :other)`)
	if v.Kind != value.KindKeyword || v.AsKeyword().Name != "two" {
		t.Fatalf("expected :two, got %v", v)
	}
}

func TestEvalLetfnMutualRecursion(t *testing.T) {
	_, a, ev := newTestRig(t)
	v := evalSrc(t, nil, a, ev, `
		(letfn* [even? (fn* [n] (if (= n 0) true (odd? (+ n -1))))
		         odd?  (fn* [n] (if (= n 0) false (even? (+ n -1))))]
		  (even? 4))
	`)
	if v.Kind != value.KindBool || !v.Data.(bool) {
		t.Fatalf("expected true, got %v", v)
	}
}
