package analyzer

import (
	"fmt"

	"github.com/clojurewasm/cljw/internal/errors"
	"github.com/clojurewasm/cljw/internal/value"
	"github.com/clojurewasm/cljw/pkg/token"
)

type specialFormFn func(a *Analyzer, items []value.Value, scope *Scope, pos token.Position, tail bool) (*Node, error)

// specialFormHandlers covers every special form spec §4.A names. A
// symbol in head position only dispatches here when it isn't shadowed
// by a lexical local (analyzeList checks that first).
var specialFormHandlers map[string]specialFormFn

func init() {
	specialFormHandlers = map[string]specialFormFn{
	"if":            analyzeIf,
	"do":            analyzeDo,
	"let*":          analyzeLetOrLoop(false),
	"loop*":         analyzeLetOrLoop(true),
	"recur":         analyzeRecur,
	"fn*":           analyzeFn,
	"def":           analyzeDef,
	"quote":         analyzeQuote,
	"var":           analyzeVarSpecial,
	"throw":         analyzeThrow,
	"try":           analyzeTry,
	"new":           analyzeNew,
	"set!":          analyzeSetBang,
	".":             analyzeDot,
	"with-meta":     analyzeWithMeta,
	"monitor-enter":  analyzeMonitorEnter,
	"monitor-exit":   analyzeMonitorExit,
	"deftype*":      analyzeDeftype,
	"reify*":        analyzeReify,
	"case*":         analyzeCase,
	"import*":       analyzeImport,
	"letfn*":        analyzeLetfn,
	}
}

func compileErr(pos token.Position, format string, args ...any) error {
	return errors.NewSourceError(errors.KindCompile, pos, fmt.Sprintf(format, args...), "", "")
}

func analyzeIf(a *Analyzer, items []value.Value, scope *Scope, pos token.Position, tail bool) (*Node, error) {
	if len(items) < 3 || len(items) > 4 {
		return nil, compileErr(pos, "if requires 2 or 3 forms, got %d", len(items)-1)
	}
	test, err := a.analyze(items[1], scope, false)
	if err != nil {
		return nil, err
	}
	then, err := a.analyze(items[2], scope, tail)
	if err != nil {
		return nil, err
	}
	elseN := &Node{Kind: KindConst, Const: value.Nil()}
	if len(items) == 4 {
		elseN, err = a.analyze(items[3], scope, tail)
		if err != nil {
			return nil, err
		}
	}
	return &Node{Kind: KindIf, Test: test, Then: then, Else: elseN, Pos: pos}, nil
}

func (a *Analyzer) analyzeBody(forms []value.Value, scope *Scope, tail bool) ([]*Node, error) {
	if len(forms) == 0 {
		return []*Node{{Kind: KindConst, Const: value.Nil()}}, nil
	}
	out := make([]*Node, len(forms))
	for i, f := range forms {
		isLast := i == len(forms)-1
		n, err := a.analyze(f, scope, isLast && tail)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func analyzeDo(a *Analyzer, items []value.Value, scope *Scope, pos token.Position, tail bool) (*Node, error) {
	body, err := a.analyzeBody(items[1:], scope, tail)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindDo, Body: body, Pos: pos}, nil
}

func analyzeLetOrLoop(isLoop bool) specialFormFn {
	return func(a *Analyzer, items []value.Value, scope *Scope, pos token.Position, tail bool) (*Node, error) {
		if len(items) < 2 || items[1].Kind != value.KindVector {
			return nil, compileErr(pos, "let*/loop* requires a binding vector")
		}
		bindVec := items[1].AsVector()
		var pairs []value.Value
		bindVec.Range(func(_ int, v value.Value) bool { pairs = append(pairs, v); return true })
		if len(pairs)%2 != 0 {
			return nil, compileErr(pos, "binding vector must have an even number of forms")
		}

		child := scope.child()
		var bindings []Binding
		for i := 0; i < len(pairs); i += 2 {
			initNode, err := a.analyze(pairs[i+1], child, false)
			if err != nil {
				return nil, err
			}
			flat, err := a.destructure(child, pairs[i], initNode, pos)
			if err != nil {
				return nil, err
			}
			for _, b := range flat {
				child.define(b.Name)
			}
			bindings = append(bindings, flat...)
		}
		if isLoop {
			child.loopArity = len(bindings)
			if child.loopArity == 0 {
				child.loopArity = -1 // loop with no bindings is still a valid recur target
			}
		}
		body, err := a.analyzeBody(items[2:], child, tail || isLoop)
		if err != nil {
			return nil, err
		}
		kind := KindLet
		if isLoop {
			kind = KindLoop
		}
		return &Node{Kind: kind, Bindings: bindings, Body: body, IsLoop: isLoop, Pos: pos}, nil
	}
}

func analyzeRecur(a *Analyzer, items []value.Value, scope *Scope, pos token.Position, tail bool) (*Node, error) {
	target := scope.nearestLoop()
	if target == nil {
		return nil, compileErr(pos, "can only recur from tail position of a loop or fn")
	}
	if !tail {
		return nil, compileErr(pos, "recur must be in tail position")
	}
	want := target.loopArity
	if want < 0 {
		want = 0
	}
	if len(items)-1 != want {
		return nil, errors.NewSourceError(errors.KindArity, pos, fmt.Sprintf("recur expected %d args, got %d", want, len(items)-1), "", "")
	}
	args := make([]*Node, len(items)-1)
	for i, it := range items[1:] {
		n, err := a.analyze(it, scope, false)
		if err != nil {
			return nil, err
		}
		args[i] = n
	}
	return &Node{Kind: KindRecur, RecurArgs: args, Pos: pos}, nil
}

func analyzeDef(a *Analyzer, items []value.Value, scope *Scope, pos token.Position, tail bool) (*Node, error) {
	if len(items) < 2 || items[1].Kind != value.KindSymbol {
		return nil, compileErr(pos, "def requires a symbol name")
	}
	sym := items[1].AsSymbol()
	ns := a.Env.Current()
	v := ns.Intern(sym.Name)

	var initNode *Node
	if len(items) >= 3 {
		n, err := a.analyze(items[2], scope, false)
		if err != nil {
			return nil, err
		}
		initNode = n
	}
	return &Node{Kind: KindDef, DefVar: v, DefInit: initNode, Name: sym.Name, Pos: pos}, nil
}

func analyzeQuote(a *Analyzer, items []value.Value, scope *Scope, pos token.Position, tail bool) (*Node, error) {
	if len(items) != 2 {
		return nil, compileErr(pos, "quote requires exactly one form")
	}
	return &Node{Kind: KindQuote, Const: items[1], Pos: pos}, nil
}

func analyzeVarSpecial(a *Analyzer, items []value.Value, scope *Scope, pos token.Position, tail bool) (*Node, error) {
	if len(items) != 2 || items[1].Kind != value.KindSymbol {
		return nil, compileErr(pos, "var requires a symbol")
	}
	v, err := a.resolveVar(items[1].AsSymbol(), pos)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindVarSpecial, Var: v, Pos: pos}, nil
}

func analyzeThrow(a *Analyzer, items []value.Value, scope *Scope, pos token.Position, tail bool) (*Node, error) {
	if len(items) != 2 {
		return nil, compileErr(pos, "throw requires exactly one form")
	}
	n, err := a.analyze(items[1], scope, false)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindThrow, ThrowVal: n, Pos: pos}, nil
}

func analyzeNew(a *Analyzer, items []value.Value, scope *Scope, pos token.Position, tail bool) (*Node, error) {
	if len(items) < 2 || items[1].Kind != value.KindSymbol {
		return nil, compileErr(pos, "new requires a class symbol")
	}
	args, err := analyzeArgs(a, items[2:], scope)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindNew, ClassName: items[1].AsSymbol().String(), CtorArgs: args, Pos: pos}, nil
}

func analyzeSetBang(a *Analyzer, items []value.Value, scope *Scope, pos token.Position, tail bool) (*Node, error) {
	if len(items) != 3 {
		return nil, compileErr(pos, "set! requires a target and a value")
	}
	target, err := a.analyze(items[1], scope, false)
	if err != nil {
		return nil, err
	}
	val, err := a.analyze(items[2], scope, false)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindSetBang, Target: target, DefInit: val, Pos: pos}, nil
}

func analyzeWithMeta(a *Analyzer, items []value.Value, scope *Scope, pos token.Position, tail bool) (*Node, error) {
	if len(items) != 3 {
		return nil, compileErr(pos, "with-meta requires a form and a meta map")
	}
	expr, err := a.analyze(items[1], scope, tail)
	if err != nil {
		return nil, err
	}
	meta, err := a.analyze(items[2], scope, false)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindWithMeta, Expr: expr, MetaForm: meta, Pos: pos}, nil
}

func analyzeMonitorEnter(a *Analyzer, items []value.Value, scope *Scope, pos token.Position, tail bool) (*Node, error) {
	n, err := a.analyze(items[1], scope, false)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindMonitorEnter, Target: n, Pos: pos}, nil
}

func analyzeMonitorExit(a *Analyzer, items []value.Value, scope *Scope, pos token.Position, tail bool) (*Node, error) {
	n, err := a.analyze(items[1], scope, false)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindMonitorExit, Target: n, Pos: pos}, nil
}

func analyzeImport(a *Analyzer, items []value.Value, scope *Scope, pos token.Position, tail bool) (*Node, error) {
	// No real host-class loading exists in this engine; import* is
	// accepted for source compatibility and analyzes to a no-op.
	return &Node{Kind: KindConst, Const: value.Nil(), Pos: pos}, nil
}

func analyzeArgs(a *Analyzer, forms []value.Value, scope *Scope) ([]*Node, error) {
	out := make([]*Node, len(forms))
	for i, f := range forms {
		n, err := a.analyze(f, scope, false)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
