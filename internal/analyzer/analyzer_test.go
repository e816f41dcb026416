package analyzer

import (
	"testing"

	"github.com/clojurewasm/cljw/internal/env"
	"github.com/clojurewasm/cljw/internal/gc"
	"github.com/clojurewasm/cljw/internal/reader"
	"github.com/clojurewasm/cljw/internal/value"
)

// newTestAnalyzer builds an Analyzer over a fresh Env with the handful
// of vars destructuring/case lowering emits calls to already interned,
// so tests don't need a real core library loaded.
func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	e := env.New(gc.New())
	ns := e.Current()
	for _, name := range []string{"nth", "get", "drop", "=", "+", "-", "vector", "conj", "str"} {
		ns.Intern(name)
	}
	return New(e)
}

func parseForm(t *testing.T, src string) value.Value {
	t.Helper()
	r := reader.New(src, "test")
	v, ok, err := r.Read()
	if err != nil {
		t.Fatalf("parse(%q) error: %v", src, err)
	}
	if !ok {
		t.Fatalf("parse(%q) produced no form", src)
	}
	return v
}

func mustAnalyze(t *testing.T, a *Analyzer, src string) *Node {
	t.Helper()
	form := parseForm(t, src)
	n, err := a.Analyze(form, newScope(nil))
	if err != nil {
		t.Fatalf("Analyze(%q) error: %v", src, err)
	}
	return n
}

func TestAnalyzeConstAndLocal(t *testing.T) {
	a := newTestAnalyzer(t)
	n := mustAnalyze(t, a, "42")
	if n.Kind != KindConst {
		t.Fatalf("expected KindConst, got %v", n.Kind)
	}
}

func TestAnalyzeIf(t *testing.T) {
	a := newTestAnalyzer(t)
	n := mustAnalyze(t, a, "(if true 1 2)")
	if n.Kind != KindIf {
		t.Fatalf("expected KindIf, got %v", n.Kind)
	}
	if n.Then.Const.Data.(int64) != 1 || n.Else.Const.Data.(int64) != 2 {
		t.Fatalf("unexpected then/else: %+v / %+v", n.Then, n.Else)
	}
}

func TestAnalyzeIfArityError(t *testing.T) {
	a := newTestAnalyzer(t)
	_, err := a.Analyze(parseForm(t, "(if true)"), newScope(nil))
	if err == nil {
		t.Fatal("expected an error for (if true)")
	}
}

func TestAnalyzeFnAndInvoke(t *testing.T) {
	a := newTestAnalyzer(t)
	n := mustAnalyze(t, a, "(fn* [x y] (+ x y))")
	if n.Kind != KindFn || len(n.Arities) != 1 {
		t.Fatalf("expected single-arity KindFn, got %+v", n)
	}
	arity := n.Arities[0]
	if len(arity.Params) != 2 || arity.Variadic {
		t.Fatalf("unexpected params: %+v", arity)
	}
}

func TestAnalyzeFnVariadic(t *testing.T) {
	a := newTestAnalyzer(t)
	n := mustAnalyze(t, a, "(fn* [x & rest] rest)")
	arity := n.Arities[0]
	if !arity.Variadic || len(arity.Params) != 2 {
		t.Fatalf("expected variadic 2-param arity, got %+v", arity)
	}
}

func TestAnalyzeLetDestructuring(t *testing.T) {
	a := newTestAnalyzer(t)
	n := mustAnalyze(t, a, "(let* [[a b] [1 2]] a)")
	if n.Kind != KindLet {
		t.Fatalf("expected KindLet, got %v", n.Kind)
	}
	if len(n.Bindings) < 3 {
		t.Fatalf("expected temp + a + b bindings, got %d: %+v", len(n.Bindings), n.Bindings)
	}
}

func TestAnalyzeMapDestructuringKeys(t *testing.T) {
	a := newTestAnalyzer(t)
	n := mustAnalyze(t, a, "(let* [{:keys [x y]} {}] x)")
	if n.Kind != KindLet {
		t.Fatalf("expected KindLet, got %v", n.Kind)
	}
	found := map[string]bool{}
	for _, b := range n.Bindings {
		found[b.Name] = true
	}
	if !found["x"] || !found["y"] {
		t.Fatalf("expected x and y bound, got %+v", n.Bindings)
	}
}

func TestAnalyzeRecurRequiresLoop(t *testing.T) {
	a := newTestAnalyzer(t)
	_, err := a.Analyze(parseForm(t, "(recur 1)"), newScope(nil))
	if err == nil {
		t.Fatal("expected error for recur outside loop/fn")
	}
}

func TestAnalyzeRecurArityMismatch(t *testing.T) {
	a := newTestAnalyzer(t)
	_, err := a.Analyze(parseForm(t, "(loop* [x 1] (recur 1 2))"), newScope(nil))
	if err == nil {
		t.Fatal("expected arity error for recur with wrong arg count")
	}
}

func TestAnalyzeRecurInLoop(t *testing.T) {
	a := newTestAnalyzer(t)
	n := mustAnalyze(t, a, "(loop* [x 0] (recur x))")
	if n.Kind != KindLoop {
		t.Fatalf("expected KindLoop, got %v", n.Kind)
	}
}

func TestAnalyzeDef(t *testing.T) {
	a := newTestAnalyzer(t)
	n := mustAnalyze(t, a, "(def answer 42)")
	if n.Kind != KindDef || n.Name != "answer" {
		t.Fatalf("unexpected def node: %+v", n)
	}
}

func TestAnalyzeQuoteDoesNotResolve(t *testing.T) {
	a := newTestAnalyzer(t)
	n := mustAnalyze(t, a, "(quote undefined-symbol)")
	if n.Kind != KindQuote {
		t.Fatalf("expected KindQuote, got %v", n.Kind)
	}
}

func TestAnalyzeUnresolvedSymbolErrors(t *testing.T) {
	a := newTestAnalyzer(t)
	_, err := a.Analyze(parseForm(t, "totally-undefined"), newScope(nil))
	if err == nil {
		t.Fatal("expected resolve error for an unbound symbol")
	}
}

func TestAnalyzeDotShorthand(t *testing.T) {
	a := newTestAnalyzer(t)
	n := mustAnalyze(t, a, "(.toString 42)")
	if n.Kind != KindInterop || n.Member != "toString" || n.IsField {
		t.Fatalf("unexpected interop node: %+v", n)
	}
}

func TestAnalyzeFieldShorthand(t *testing.T) {
	a := newTestAnalyzer(t)
	n := mustAnalyze(t, a, "(.-x 42)")
	if n.Kind != KindInterop || n.Member != "x" || !n.IsField {
		t.Fatalf("unexpected interop field node: %+v", n)
	}
}

func TestAnalyzeDotSpecialForm(t *testing.T) {
	a := newTestAnalyzer(t)
	n := mustAnalyze(t, a, "(. 42 (toString))")
	if n.Kind != KindInterop || n.Member != "toString" {
		t.Fatalf("unexpected interop node: %+v", n)
	}
}

func TestAnalyzeTry(t *testing.T) {
	a := newTestAnalyzer(t)
	n := mustAnalyze(t, a, "(try 1 (catch Exception e 2) (finally 3))")
	if n.Kind != KindTry {
		t.Fatalf("expected KindTry, got %v", n.Kind)
	}
	if len(n.Catches) != 1 || n.Catches[0].ClassName != "Exception" || n.Catches[0].Local != "e" {
		t.Fatalf("unexpected catch clauses: %+v", n.Catches)
	}
	if len(n.FinallyBody) != 1 {
		t.Fatalf("expected one finally form, got %+v", n.FinallyBody)
	}
}

func TestAnalyzeCaseLowersToIfChain(t *testing.T) {
	a := newTestAnalyzer(t)
	n := mustAnalyze(t, a, `(case* 1 1 :one 2 :two :other)`)
	if n.Kind != KindLet {
		t.Fatalf("expected KindLet wrapping the if-chain, got %v", n.Kind)
	}
	if len(n.Body) != 1 || n.Body[0].Kind != KindIf {
		t.Fatalf("expected an if-chain body, got %+v", n.Body)
	}
}

func TestAnalyzeDeftype(t *testing.T) {
	a := newTestAnalyzer(t)
	n := mustAnalyze(t, a, "(deftype* Point [x y] (sum [this] 1))")
	if n.Kind != KindDeftype || n.ClassName != "Point" {
		t.Fatalf("unexpected deftype node: %+v", n)
	}
	if len(n.ClassFields) != 2 || len(n.Methods) != 1 {
		t.Fatalf("expected 2 fields and 1 method, got %+v", n)
	}
	if n.Methods[0].Name != "sum" || len(n.Methods[0].Params) != 1 || n.Methods[0].Params[0] != "this" {
		t.Fatalf("unexpected method shape: %+v", n.Methods[0])
	}
}

func TestAnalyzeReify(t *testing.T) {
	a := newTestAnalyzer(t)
	n := mustAnalyze(t, a, "(reify* :implements [] (greet [this] 1))")
	if n.Kind != KindReify || len(n.Methods) != 1 {
		t.Fatalf("unexpected reify node: %+v", n)
	}
}

func TestAnalyzeLetfnMutualRecursion(t *testing.T) {
	a := newTestAnalyzer(t)
	n := mustAnalyze(t, a, "(letfn* [even? (fn* [n] (odd? n)) odd? (fn* [n] (even? n))] (even? 0))")
	if n.Kind != KindLet || !n.Simultaneous {
		t.Fatalf("expected a Simultaneous KindLet, got %+v", n)
	}
	if len(n.Bindings) != 2 {
		t.Fatalf("expected 2 bindings, got %+v", n.Bindings)
	}
}

func TestAnalyzeImportIsNoop(t *testing.T) {
	a := newTestAnalyzer(t)
	n := mustAnalyze(t, a, "(import* java.util.Date)")
	if n.Kind != KindConst || n.Const.Kind != value.KindNil {
		t.Fatalf("expected a no-op const nil, got %+v", n)
	}
}

func TestAnalyzeSetBang(t *testing.T) {
	a := newTestAnalyzer(t)
	n := mustAnalyze(t, a, "(set! nth 1)")
	if n.Kind != KindSetBang {
		t.Fatalf("expected KindSetBang, got %v", n.Kind)
	}
}

func TestAnalyzeWithMeta(t *testing.T) {
	a := newTestAnalyzer(t)
	n := mustAnalyze(t, a, "^:dynamic nth")
	if n.Kind != KindWithMeta {
		t.Fatalf("expected KindWithMeta, got %v", n.Kind)
	}
}
