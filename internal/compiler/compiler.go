// Package compiler (continued): Compile turns a single analyzer.Node
// into a Proto whose Code a VM can execute directly. It is a single
// recursive pass with no separate optimization stage, grounded on the
// teacher's internal/bytecode/compiler.go walk-and-emit structure, but
// over analyzer.Node instead of a Pascal-shaped AST and emitting the
// generic opcode set of opcode.go instead of per-type arithmetic
// opcodes — every arithmetic/comparison/collection builtin is just an
// OpCall, since Clojure resolves operator identity at runtime, not at
// compile time.
package compiler

import (
	"fmt"

	"github.com/clojurewasm/cljw/internal/analyzer"
	"github.com/clojurewasm/cljw/internal/value"
)

// Compile compiles a single top-level form's Node into a Proto with no
// parameters, suitable for one call through the VM (spec §6.2's
// eval_string/eval_file path once bytecode execution is selected).
func Compile(n *analyzer.Node) (*Proto, error) {
	p := &Proto{Name: "toplevel"}
	c := &compiler{}
	if err := c.compileNode(p, n); err != nil {
		return nil, err
	}
	p.emit(OpReturn)
	return p, nil
}

// recurTarget is the nearest enclosing loop*/fn-arity recur can jump
// back to: its binding names (in order) and the code offset, within the
// Proto currently being compiled, where those bindings are first
// assigned.
type recurTarget struct {
	names   []string
	startPC int
}

type compiler struct {
	recurStack []recurTarget
}

func (c *compiler) pushRecur(t recurTarget) { c.recurStack = append(c.recurStack, t) }
func (c *compiler) popRecur()                { c.recurStack = c.recurStack[:len(c.recurStack)-1] }
func (c *compiler) currentRecur() recurTarget {
	return c.recurStack[len(c.recurStack)-1]
}

func (c *compiler) compileBody(p *Proto, body []*analyzer.Node) error {
	if len(body) == 0 {
		p.emit(OpNil)
		return nil
	}
	for i, n := range body {
		if i > 0 {
			p.emit(OpPop)
		}
		if err := c.compileNode(p, n); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) compileNode(p *Proto, n *analyzer.Node) error {
	switch n.Kind {
	case analyzer.KindConst, analyzer.KindQuote:
		p.emit(OpConst, uint16(p.addConst(n.Const)))
		return nil

	case analyzer.KindLocal:
		p.emit(OpLoadLocal, uint16(p.addName(n.Name)))
		return nil

	case analyzer.KindVarRef:
		p.emit(OpLoadVar, uint16(p.addConst(value.Value{Kind: value.KindVar, Data: n.Var})))
		return nil

	case analyzer.KindVarSpecial:
		// (var sym) yields the Var itself, not its current value — push
		// the same const but skip the dereference OpLoadVar performs.
		p.emit(OpConst, uint16(p.addConst(value.Value{Kind: value.KindVar, Data: n.Var})))
		return nil

	case analyzer.KindIf:
		if err := c.compileNode(p, n.Test); err != nil {
			return err
		}
		elseJump := p.emitJump(OpJumpIfFalse)
		if err := c.compileNode(p, n.Then); err != nil {
			return err
		}
		endJump := p.emitJump(OpJump)
		p.patchJump(elseJump)
		if n.Else != nil {
			if err := c.compileNode(p, n.Else); err != nil {
				return err
			}
		} else {
			p.emit(OpNil)
		}
		p.patchJump(endJump)
		return nil

	case analyzer.KindDo:
		return c.compileBody(p, n.Body)

	case analyzer.KindLet:
		return c.compileLet(p, n)

	case analyzer.KindLoop:
		return c.compileLoop(p, n)

	case analyzer.KindRecur:
		return c.compileRecur(p, n)

	case analyzer.KindFn:
		return c.compileFn(p, n)

	case analyzer.KindDef:
		if n.DefInit != nil {
			if err := c.compileNode(p, n.DefInit); err != nil {
				return err
			}
		} else {
			p.emit(OpNil)
		}
		p.emit(OpDefVar, uint16(p.addConst(value.Value{Kind: value.KindVar, Data: n.DefVar})))
		return nil

	case analyzer.KindThrow:
		if err := c.compileNode(p, n.ThrowVal); err != nil {
			return err
		}
		p.emit(OpThrow)
		return nil

	case analyzer.KindTry:
		return c.compileTry(p, n)

	case analyzer.KindNew:
		for _, a := range n.CtorArgs {
			if err := c.compileNode(p, a); err != nil {
				return err
			}
		}
		p.emit(OpNewInstance, uint16(p.addClass(n.ClassName, nil)), uint16(len(n.CtorArgs)))
		return nil

	case analyzer.KindSetBang:
		if err := c.compileNode(p, n.DefInit); err != nil {
			return err
		}
		if n.Target.Kind != analyzer.KindVarRef {
			return fmt.Errorf("compiler: set! target must be a Var")
		}
		p.emit(OpSetVar, uint16(p.addConst(value.Value{Kind: value.KindVar, Data: n.Target.Var})))
		return nil

	case analyzer.KindInvoke:
		if err := c.compileNode(p, n.Fn); err != nil {
			return err
		}
		for _, a := range n.Args {
			if err := c.compileNode(p, a); err != nil {
				return err
			}
		}
		p.emit(OpCall, uint16(len(n.Args)))
		return nil

	case analyzer.KindInterop:
		if err := c.compileNode(p, n.InteropTarget); err != nil {
			return err
		}
		if n.IsField {
			p.emit(OpInteropField, uint16(p.addName(n.Member)))
			return nil
		}
		for _, a := range n.MemberArgs {
			if err := c.compileNode(p, a); err != nil {
				return err
			}
		}
		p.emit(OpInteropCall, uint16(p.addName(n.Member)), uint16(len(n.MemberArgs)))
		return nil

	case analyzer.KindVector:
		for _, it := range n.Items {
			if err := c.compileNode(p, it); err != nil {
				return err
			}
		}
		p.emit(OpMakeVector, uint16(len(n.Items)))
		return nil

	case analyzer.KindMapLit:
		for i := range n.Keys {
			if err := c.compileNode(p, n.Keys[i]); err != nil {
				return err
			}
			if err := c.compileNode(p, n.Vals[i]); err != nil {
				return err
			}
		}
		p.emit(OpMakeMap, uint16(len(n.Keys)))
		return nil

	case analyzer.KindSetLit:
		for _, it := range n.Items {
			if err := c.compileNode(p, it); err != nil {
				return err
			}
		}
		p.emit(OpMakeSet, uint16(len(n.Items)))
		return nil

	case analyzer.KindWithMeta:
		if err := c.compileNode(p, n.MetaForm); err != nil {
			return err
		}
		p.emit(OpPop)
		return c.compileNode(p, n.Expr)

	case analyzer.KindMonitorEnter, analyzer.KindMonitorExit, analyzer.KindImport:
		p.emit(OpNoop)
		p.emit(OpNil)
		return nil

	case analyzer.KindDeftype:
		return c.compileDeftype(p, n)

	case analyzer.KindReify:
		return c.compileReify(p, n)

	default:
		return fmt.Errorf("compiler: unhandled node kind %d", n.Kind)
	}
}

// compileRecur evaluates its args left-to-right, then stores them into
// the current recur target's binding names in reverse stack order (the
// last-evaluated arg is on top), and jumps back to that target's start
// offset. No runtime signal or call-stack growth is involved — see the
// opcode.go doc on OpJump for why this differs from internal/eval's
// recurSignal approach.
func (c *compiler) compileRecur(p *Proto, n *analyzer.Node) error {
	target := c.currentRecur()
	for _, a := range n.RecurArgs {
		if err := c.compileNode(p, a); err != nil {
			return err
		}
	}
	for i := len(target.names) - 1; i >= 0; i-- {
		p.emit(OpStoreLocal, uint16(p.addName(target.names[i])))
		p.emit(OpPop)
	}
	p.emit(OpJump, uint16(target.startPC))
	// A jump never falls through, but every compiled node must still
	// leave a value for whatever discarded it (compileBody's OpPop
	// between statements, or an enclosing expression) in case this
	// particular recur turns out not to be the last form executed on an
	// already-broken code path; push nil for that bookkeeping.
	p.emit(OpNil)
	return nil
}

func (c *compiler) compileLet(p *Proto, n *analyzer.Node) error {
	p.emit(OpPushFrame)
	if n.Simultaneous {
		for _, b := range n.Bindings {
			p.emit(OpNil)
			p.emit(OpStoreLocal, uint16(p.addName(b.Name)))
			p.emit(OpPop)
		}
		for _, b := range n.Bindings {
			if err := c.compileNode(p, b.Init); err != nil {
				return err
			}
			p.emit(OpStoreLocal, uint16(p.addName(b.Name)))
			p.emit(OpPop)
		}
	} else {
		for _, b := range n.Bindings {
			if err := c.compileNode(p, b.Init); err != nil {
				return err
			}
			p.emit(OpStoreLocal, uint16(p.addName(b.Name)))
			p.emit(OpPop)
		}
	}
	if err := c.compileBody(p, n.Body); err != nil {
		return err
	}
	p.emit(OpPopFrame)
	return nil
}

func (c *compiler) compileLoop(p *Proto, n *analyzer.Node) error {
	p.emit(OpPushFrame)
	names := make([]string, len(n.Bindings))
	for i, b := range n.Bindings {
		if err := c.compileNode(p, b.Init); err != nil {
			return err
		}
		p.emit(OpStoreLocal, uint16(p.addName(b.Name)))
		p.emit(OpPop)
		names[i] = b.Name
	}
	loopStart := p.here()
	c.pushRecur(recurTarget{names: names, startPC: loopStart})
	err := c.compileBody(p, n.Body)
	c.popRecur()
	if err != nil {
		return err
	}
	p.emit(OpPopFrame)
	return nil
}

func (c *compiler) compileFn(p *Proto, n *analyzer.Node) error {
	protoIdx := -1
	for _, arity := range n.Arities {
		child := &Proto{
			Name:       n.FnName,
			ParamNames: arity.Params,
			Variadic:   arity.Variadic,
		}
		cc := &compiler{}
		cc.pushRecur(recurTarget{names: arity.Params, startPC: 0})
		err := cc.compileBody(child, arity.Body)
		cc.popRecur()
		if err != nil {
			return err
		}
		child.emit(OpReturn)
		idx := p.addProto(child)
		if protoIdx == -1 {
			protoIdx = idx
		}
	}
	// Multi-arity fns are represented as consecutive Protos starting at
	// protoIdx; the VM's OpMakeClosure operand is the first, and arity
	// selection walks forward through len(n.Arities) siblings matching
	// ParamNames/Variadic against the call's argument count.
	p.emit(OpMakeClosure, uint16(protoIdx), uint16(len(n.Arities)))
	return nil
}

func (c *compiler) compileTry(p *Proto, n *analyzer.Node) error {
	bodyProto := c.compileSubBlock(p, n.TryBody, nil, "try-body")

	catches := make([]CatchInfo, len(n.Catches))
	for i, cl := range n.Catches {
		catches[i] = CatchInfo{
			ClassName: cl.ClassName,
			Local:     cl.Local,
			BodyProto: c.compileSubBlock(p, cl.Body, []string{cl.Local}, "catch-"+cl.ClassName),
		}
	}

	finallyProto := -1
	if len(n.FinallyBody) > 0 {
		finallyProto = c.compileSubBlock(p, n.FinallyBody, nil, "finally")
	}

	idx := p.addTryInfo(TryInfo{BodyProto: bodyProto, Catches: catches, FinallyProto: finallyProto})
	p.emit(OpTry, uint16(idx))
	return nil
}

// compileSubBlock compiles body as a child Proto taking params (empty
// for try/finally, a single exception-local for catch) invoked
// recursively by OpTry, rather than inlining it with jumps, mirroring
// internal/eval.evalTry's own recursive evalBody calls for try/catch/
// finally (a deliberate scope reduction over a full unwinding scheme).
// Per the same reduction, recur cannot cross into a sub-block (no recur
// target is pushed for it).
func (c *compiler) compileSubBlock(p *Proto, body []*analyzer.Node, params []string, name string) int {
	child := &Proto{Name: name, ParamNames: params}
	cc := &compiler{}
	if err := cc.compileBody(child, body); err != nil {
		child.Code = nil
		child.emit(OpNil)
	}
	child.emit(OpReturn)
	return p.addProto(child)
}

func (c *compiler) compileDeftype(p *Proto, n *analyzer.Node) error {
	methodProtos := make([]*Proto, len(n.Methods))
	for i, m := range n.Methods {
		child := &Proto{Name: m.Name, ParamNames: m.Params, Variadic: m.Variadic}
		cc := &compiler{}
		cc.pushRecur(recurTarget{names: m.Params, startPC: 0})
		err := cc.compileBody(child, m.Body)
		cc.popRecur()
		if err != nil {
			return err
		}
		child.emit(OpReturn)
		methodProtos[i] = child
	}
	methodsHolder := &Proto{Name: n.ClassName + "#methods", Protos: methodProtos}
	protoIdx := p.addProto(methodsHolder)
	classIdx := p.addClass(n.ClassName, n.ClassFields)
	p.emit(OpDeftype, uint16(protoIdx), uint16(classIdx))
	p.emit(OpNil)
	return nil
}

func (c *compiler) compileReify(p *Proto, n *analyzer.Node) error {
	methodProtos := make([]*Proto, len(n.Methods))
	for i, m := range n.Methods {
		child := &Proto{Name: m.Name, ParamNames: m.Params, Variadic: m.Variadic}
		cc := &compiler{}
		cc.pushRecur(recurTarget{names: m.Params, startPC: 0})
		err := cc.compileBody(child, m.Body)
		cc.popRecur()
		if err != nil {
			return err
		}
		child.emit(OpReturn)
		methodProtos[i] = child
	}
	methodsHolder := &Proto{Name: "reify#methods", Protos: methodProtos}
	protoIdx := p.addProto(methodsHolder)
	p.emit(OpReify, uint16(protoIdx))
	return nil
}
