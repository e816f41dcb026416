package analyzer

import (
	"github.com/clojurewasm/cljw/internal/value"
	"github.com/clojurewasm/cljw/pkg/token"
)

// analyzeCase implements (case* expr test1 result1 test2 result2 ...
// default?) per spec §4.A. Rather than adding a dedicated Node kind or
// compiler opcode, it lowers to a KindLet binding the scrutinee once
// plus a chain of KindIf nodes, each test built from (= tmp const) (or
// an OR-chain of those when a clause's test is itself a list of
// alternatives, e.g. ((1 2) :small)).
func analyzeCase(a *Analyzer, items []value.Value, scope *Scope, pos token.Position, tail bool) (*Node, error) {
	if len(items) < 2 {
		return nil, compileErr(pos, "case* requires a scrutinee")
	}
	exprNode, err := a.analyze(items[1], scope, false)
	if err != nil {
		return nil, err
	}

	tempName := newTempName("case")
	child := scope.child()
	child.define(tempName)

	rest := items[2:]
	defaultForm := value.Nil()
	if len(rest)%2 == 1 {
		defaultForm = rest[len(rest)-1]
		rest = rest[:len(rest)-1]
	}
	chain, err := a.analyze(defaultForm, child, tail)
	if err != nil {
		return nil, err
	}

	for i := len(rest) - 2; i >= 0; i -= 2 {
		testForm, resultForm := rest[i], rest[i+1]
		resultNode, err := a.analyze(resultForm, child, tail)
		if err != nil {
			return nil, err
		}
		testNode, err := a.buildCaseTest(testForm, tempName, child, pos)
		if err != nil {
			return nil, err
		}
		chain = &Node{Kind: KindIf, Test: testNode, Then: resultNode, Else: chain, Pos: pos}
	}

	return &Node{
		Kind:     KindLet,
		Bindings: []Binding{{Name: tempName, Init: exprNode}},
		Body:     []*Node{chain},
		Pos:      pos,
	}, nil
}

func (a *Analyzer) buildCaseTest(testForm value.Value, tempName string, scope *Scope, pos token.Position) (*Node, error) {
	var consts []value.Value
	if testForm.Kind == value.KindList {
		consts = testForm.AsList().ToSlice()
	} else {
		consts = []value.Value{testForm}
	}
	if len(consts) == 0 {
		return nil, compileErr(pos, "case* test must name at least one value")
	}

	tempSym := sym(tempName)
	var node *Node
	for i := len(consts) - 1; i >= 0; i-- {
		eqNode, err := a.analyze(listForm(sym("="), tempSym, consts[i]), scope, false)
		if err != nil {
			return nil, err
		}
		if node == nil {
			node = eqNode
			continue
		}
		node = &Node{Kind: KindIf, Test: eqNode, Then: &Node{Kind: KindConst, Const: value.Bool(true)}, Else: node, Pos: pos}
	}
	return node, nil
}
