package eval

import (
	"fmt"

	"github.com/clojurewasm/cljw/internal/analyzer"
	"github.com/clojurewasm/cljw/internal/errors"
	"github.com/clojurewasm/cljw/internal/value"
)

// classRegistry maps a deftype* name to its declared field order, so
// evalNew knows how to zip positional constructor args into a
// ClassInstance's field map (spec §4.A's reduced class model: no real
// host-class loading, just enough structure for deftype*/reify* to
// round-trip through method dispatch).
var classRegistry = map[string][]string{}

var classMethods = map[string]*value.Map{}

// evalDeftype registers a class's field shape and method table (spec
// §4.A); the constructor itself is exposed via (new ClassName ...).
func (ev *Evaluator) evalDeftype(n *analyzer.Node, frame *Frame) (value.Value, error) {
	classRegistry[n.ClassName] = n.ClassFields
	methods := value.EmptyMap()
	for _, m := range n.Methods {
		fn := methodToFn(m, frame)
		methods = methods.Assoc(value.KeywordValue("", m.Name), value.FnValue(fn))
	}
	classMethods[n.ClassName] = methods
	return value.Nil(), nil
}

func methodToFn(m analyzer.MethodImpl, captured *Frame) *value.Fn {
	l := &Lambda{
		Name:     m.Name,
		Captured: captured,
		Arities: []*analyzer.FnArity{{
			Params:   m.Params,
			Variadic: m.Variadic,
			Body:     m.Body,
		}},
	}
	return &value.Fn{Tag: value.FnClosureAST, Name: m.Name, Proto: l}
}

func (ev *Evaluator) evalReify(n *analyzer.Node, frame *Frame) (value.Value, error) {
	methods := value.EmptyMap()
	for _, m := range n.Methods {
		fn := methodToFn(m, frame)
		methods = methods.Assoc(value.KeywordValue("", m.Name), value.FnValue(fn))
	}
	fields := value.EmptyMap().Assoc(value.KeywordValue("", "__methods"), value.MapValue(methods))
	inst := value.NewClassInstance(value.KeywordValue("", "reify"), fields)
	return value.ClassInstanceValue(inst), nil
}

func (ev *Evaluator) evalNew(n *analyzer.Node, frame *Frame) (value.Value, error) {
	fieldNames, ok := classRegistry[n.ClassName]
	if !ok {
		return value.Nil(), errors.NewRuntimeError(errors.KindResolve, fmt.Sprintf("unknown class: %s", n.ClassName))
	}
	args := make([]value.Value, len(n.CtorArgs))
	for i, a := range n.CtorArgs {
		v, err := ev.Eval(a, frame)
		if err != nil {
			return value.Nil(), err
		}
		args[i] = v
	}
	if len(args) != len(fieldNames) {
		return value.Nil(), errors.NewRuntimeError(errors.KindArity, fmt.Sprintf("%s: expected %d constructor args, got %d", n.ClassName, len(fieldNames), len(args)))
	}

	fields := value.EmptyMap()
	for i, name := range fieldNames {
		fields = fields.Assoc(value.KeywordValue("", name), args[i])
	}
	if methods, ok := classMethods[n.ClassName]; ok {
		fields = fields.Assoc(value.KeywordValue("", "__methods"), value.MapValue(methods))
	}
	inst := value.NewClassInstance(value.KeywordValue("", n.ClassName), fields)
	return value.ClassInstanceValue(inst), nil
}

// evalInterop implements both the (. target member args...) special
// form and its (.method target args...)/(.-field target) sugar (spec
// §4.A): a class_instance's method table is its Fields map under
// :__methods, keyed by method-name keyword; "this" is always passed as
// the method closure's first explicit argument.
func (ev *Evaluator) evalInterop(n *analyzer.Node, frame *Frame) (value.Value, error) {
	target, err := ev.Eval(n.InteropTarget, frame)
	if err != nil {
		return value.Nil(), err
	}

	if n.IsField {
		if target.Kind != value.KindClassInstance {
			return value.Nil(), errors.NewRuntimeError(errors.KindType, fmt.Sprintf("cannot read field %s of a non-class_instance value", n.Member))
		}
		v, ok := target.AsClassInstance().Fields.Get(value.KeywordValue("", n.Member))
		if !ok {
			return value.Nil(), errors.NewRuntimeError(errors.KindKey, fmt.Sprintf("no such field: %s", n.Member))
		}
		return v, nil
	}

	if target.Kind != value.KindClassInstance {
		return value.Nil(), errors.NewRuntimeError(errors.KindType, fmt.Sprintf("cannot call method %s on a non-class_instance value", n.Member))
	}
	methodsVal, ok := target.AsClassInstance().Fields.Get(value.KeywordValue("", "__methods"))
	if !ok {
		return value.Nil(), errors.NewRuntimeError(errors.KindResolve, fmt.Sprintf("no methods on this class_instance"))
	}
	fnVal, ok := methodsVal.AsMap().Get(value.KeywordValue("", n.Member))
	if !ok {
		return value.Nil(), errors.NewRuntimeError(errors.KindResolve, fmt.Sprintf("no such method: %s", n.Member))
	}

	args := make([]value.Value, 0, len(n.MemberArgs)+1)
	args = append(args, target)
	for _, a := range n.MemberArgs {
		v, err := ev.Eval(a, frame)
		if err != nil {
			return value.Nil(), err
		}
		args = append(args, v)
	}
	return ev.Call(fnVal.AsFn(), args)
}
