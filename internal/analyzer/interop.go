package analyzer

import (
	"strings"

	"github.com/clojurewasm/cljw/internal/value"
	"github.com/clojurewasm/cljw/pkg/token"
)

// analyzeDot implements the (. target member args...) / (. target
// (member args...)) special form (spec §4.A); dotted shorthand like
// (.toString x) and (.-field x) is desugared in analyzeList before
// falling through to the ordinary invocation path.
func analyzeDot(a *Analyzer, items []value.Value, scope *Scope, pos token.Position, tail bool) (*Node, error) {
	if len(items) < 3 {
		return nil, compileErr(pos, ". requires a target and a member")
	}
	targetNode, err := a.analyze(items[1], scope, false)
	if err != nil {
		return nil, err
	}

	var memberName string
	var argForms []value.Value
	switch items[2].Kind {
	case value.KindList:
		ml := items[2].AsList().ToSlice()
		if len(ml) == 0 || ml[0].Kind != value.KindSymbol {
			return nil, compileErr(pos, "(. target (member args...)) requires a member symbol")
		}
		memberName = ml[0].AsSymbol().Name
		argForms = ml[1:]
	case value.KindSymbol:
		memberName = items[2].AsSymbol().Name
		argForms = items[3:]
	default:
		return nil, compileErr(pos, "member must be a symbol or a call form")
	}

	isField := strings.HasPrefix(memberName, "-")
	memberName = strings.TrimPrefix(memberName, "-")
	args, err := analyzeArgs(a, argForms, scope)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindInterop, InteropTarget: targetNode, Member: memberName, MemberArgs: args, IsField: isField, Pos: pos}, nil
}

// desugarDotShorthand recognizes (.method target args...) / (.-field
// target) head-position sugar, rewriting it to the same KindInterop
// node analyzeDot produces.
func (a *Analyzer) desugarDotShorthand(name string, items []value.Value, scope *Scope, pos token.Position) (*Node, bool, error) {
	if len(name) < 2 || name[0] != '.' || name == "." {
		return nil, false, nil
	}
	if len(items) < 2 {
		return nil, true, compileErr(pos, "%s requires a target", name)
	}
	isField := strings.HasPrefix(name, ".-")
	member := strings.TrimPrefix(strings.TrimPrefix(name, ".-"), ".")
	targetNode, err := a.analyze(items[1], scope, false)
	if err != nil {
		return nil, true, err
	}
	args, err := analyzeArgs(a, items[2:], scope)
	if err != nil {
		return nil, true, err
	}
	return &Node{Kind: KindInterop, InteropTarget: targetNode, Member: member, MemberArgs: args, IsField: isField, Pos: pos}, true, nil
}

// analyzeTry implements (try body... (catch Class e body...)* (finally
// body...)?) per spec §4.A/§7. recur is not permitted to cross a try
// boundary in this implementation (a deliberate simplification: the
// body, catch, and finally clauses all analyze in non-tail position).
func analyzeTry(a *Analyzer, items []value.Value, scope *Scope, pos token.Position, tail bool) (*Node, error) {
	var tryForms []value.Value
	var catches []CatchClause
	var finallyForms []*Node

	i := 1
	for ; i < len(items); i++ {
		if isClauseHeaded(items[i], "catch") || isClauseHeaded(items[i], "finally") {
			break
		}
		tryForms = append(tryForms, items[i])
	}
	for ; i < len(items); i++ {
		clause := items[i].AsList().ToSlice()
		switch clause[0].AsSymbol().Name {
		case "catch":
			if len(clause) < 3 || clause[1].Kind != value.KindSymbol || clause[2].Kind != value.KindSymbol {
				return nil, compileErr(pos, "catch requires a class symbol and a binding symbol")
			}
			className := clause[1].AsSymbol().Name
			localName := clause[2].AsSymbol().Name
			child := scope.child()
			child.define(localName)
			body, err := a.analyzeBody(clause[3:], child, false)
			if err != nil {
				return nil, err
			}
			catches = append(catches, CatchClause{ClassName: className, Local: localName, Body: body})
		case "finally":
			body, err := a.analyzeBody(clause[1:], scope, false)
			if err != nil {
				return nil, err
			}
			finallyForms = body
		}
	}

	tryBody, err := a.analyzeBody(tryForms, scope, false)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindTry, TryBody: tryBody, Catches: catches, FinallyBody: finallyForms, Pos: pos}, nil
}

func isClauseHeaded(form value.Value, name string) bool {
	if form.Kind != value.KindList || form.AsList().IsEmpty() {
		return false
	}
	head := form.AsList().First()
	return isSymbolNamed(head, name)
}
