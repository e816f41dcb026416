package vm

import (
	"testing"

	"github.com/clojurewasm/cljw/internal/analyzer"
	"github.com/clojurewasm/cljw/internal/compiler"
	"github.com/clojurewasm/cljw/internal/dispatch"
	"github.com/clojurewasm/cljw/internal/env"
	"github.com/clojurewasm/cljw/internal/gc"
	"github.com/clojurewasm/cljw/internal/reader"
	"github.com/clojurewasm/cljw/internal/value"
)

func newTestVM(t *testing.T) (*env.Env, *analyzer.Analyzer, *VM) {
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

	m := New(e)
	dispatch.Install(&dispatch.VTable{BytecodeCall: m.Call, TreewalkCall: m.Call})
	return e, analyzer.New(e), m
}

func runVM(t *testing.T, e *env.Env, a *analyzer.Analyzer, m *VM, src string) value.Value {
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
	proto, err := compiler.Compile(node)
	if err != nil {
		t.Fatalf("compile(%q): %v", src, err)
	}
	v, err := m.Run(proto, NewFrame(nil))
	if err != nil {
		t.Fatalf("run(%q): %v", src, err)
	}
	return v
}

func TestVMConstAndArithmetic(t *testing.T) {
	e, a, m := newTestVM(t)
	v := runVM(t, e, a, m, "(+ 1 2 3)")
	if v.AsInt() != 6 {
		t.Fatalf("expected 6, got %v", v)
	}
}

func TestVMIf(t *testing.T) {
	e, a, m := newTestVM(t)
	v := runVM(t, e, a, m, "(if (= 1 2) :a :b)")
	if v.Kind != value.KindKeyword || v.AsKeyword().Name != "b" {
		t.Fatalf("expected :b, got %v", v)
	}
}

func TestVMFnClosureAndInvoke(t *testing.T) {
	e, a, m := newTestVM(t)
	v := runVM(t, e, a, m, "((fn* [x y] (+ x y)) 2 3)")
	if v.AsInt() != 5 {
		t.Fatalf("expected 5, got %v", v)
	}
}

func TestVMLoopRecur(t *testing.T) {
	e, a, m := newTestVM(t)
	v := runVM(t, e, a, m, `
		(loop* [i 0 acc 0]
		  (if (= i 5)
		    acc
		    (recur (+ i 1) (+ acc i))))
	`)
	if v.AsInt() != 10 {
		t.Fatalf("expected 10, got %v", v)
	}
}

func TestVMSelfRecursiveFn(t *testing.T) {
	e, a, m := newTestVM(t)
	v := runVM(t, e, a, m, `
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

func TestVMSiblingLetsDoNotAliasClosureLocals(t *testing.T) {
	e, a, m := newTestVM(t)
	v := runVM(t, e, a, m, `
		(let* [f (let* [x 1] (fn* [] x))]
		  (let* [x 2]
		    (f)))
	`)
	if v.AsInt() != 1 {
		t.Fatalf("expected the closure to keep its own binding of x (1), got %v", v)
	}
}

func TestVMTryCatchThrowable(t *testing.T) {
	e, a, m := newTestVM(t)
	v := runVM(t, e, a, m, `
		(try
		  (throw :boom)
		  (catch Throwable e 99))
	`)
	if v.AsInt() != 99 {
		t.Fatalf("expected 99, got %v", v)
	}
}

func TestVMTryFinallyRuns(t *testing.T) {
	e, a, m := newTestVM(t)
	runVM(t, e, a, m, "(def finally-ran 0)")
	runVM(t, e, a, m, `
		(try
		  1
		  (finally (def finally-ran 1)))
	`)
	v := runVM(t, e, a, m, "finally-ran")
	if v.AsInt() != 1 {
		t.Fatalf("expected finally to have run, got %v", v)
	}
}

func TestVMDeftypeNewAndInterop(t *testing.T) {
	e, a, m := newTestVM(t)
	runVM(t, e, a, m, "(deftype* Point [x y] (getx [this] (.-x this)))")
	v := runVM(t, e, a, m, "(.getx (new Point 7 8))")
	if v.AsInt() != 7 {
		t.Fatalf("expected 7, got %v", v)
	}
}

func TestVMVectorMapSetLiterals(t *testing.T) {
	e, a, m := newTestVM(t)
	v := runVM(t, e, a, m, "[1 2 3]")
	if v.Kind != value.KindVector || v.AsVector().Count() != 3 {
		t.Fatalf("unexpected vector: %+v", v)
	}
	v = runVM(t, e, a, m, "{:a 1}")
	if v.Kind != value.KindMap {
		t.Fatalf("unexpected map: %+v", v)
	}
	v = runVM(t, e, a, m, "#{1 2}")
	if v.Kind != value.KindSet || v.AsSet().Count() != 2 {
		t.Fatalf("unexpected set: %+v", v)
	}
}
