package vm

import (
	"fmt"

	"github.com/clojurewasm/cljw/internal/compiler"
	"github.com/clojurewasm/cljw/internal/errors"
	"github.com/clojurewasm/cljw/internal/value"
)

// classRegistry/classMethods are this engine's own copies of
// internal/eval's class bookkeeping (spec §4.A's reduced class model),
// kept independent per the engine-separation decision rather than
// shared — a deftype* compiled and run through the VM is visible to
// (new ...) calls made through the VM, mirroring the tree-walker's own
// process-wide, non-thread-safe globals.
var classRegistry = map[string][]string{}
var classMethods = map[string]*value.Map{}

func methodsFromProtos(protos []*compiler.Proto, captured *Frame) *value.Map {
	methods := value.EmptyMap()
	for _, mp := range protos {
		cl := &Closure{Name: mp.Name, Protos: []*compiler.Proto{mp}, Captured: captured}
		fn := &value.Fn{Tag: value.FnClosureBytecode, Name: mp.Name, Proto: cl}
		methods = methods.Assoc(value.KeywordValue("", mp.Name), value.FnValue(fn))
	}
	return methods
}

func (m *VM) registerClass(className string, fields []string, methodsHolder *compiler.Proto, frame *Frame) {
	classRegistry[className] = fields
	classMethods[className] = methodsFromProtos(methodsHolder.Protos, frame)
}

func (m *VM) buildReify(methodsHolder *compiler.Proto, frame *Frame) value.Value {
	methods := methodsFromProtos(methodsHolder.Protos, frame)
	fields := value.EmptyMap().Assoc(value.KeywordValue("", "__methods"), value.MapValue(methods))
	inst := value.NewClassInstance(value.KeywordValue("", "reify"), fields)
	return value.ClassInstanceValue(inst)
}

func (m *VM) newInstance(className string, _ []string, args []value.Value) (value.Value, error) {
	fieldNames, ok := classRegistry[className]
	if !ok {
		return value.Nil(), errors.NewRuntimeError(errors.KindResolve, fmt.Sprintf("unknown class: %s", className))
	}
	if len(args) != len(fieldNames) {
		return value.Nil(), errors.NewRuntimeError(errors.KindArity, fmt.Sprintf("%s: expected %d constructor args, got %d", className, len(fieldNames), len(args)))
	}
	fields := value.EmptyMap()
	for i, name := range fieldNames {
		fields = fields.Assoc(value.KeywordValue("", name), args[i])
	}
	if methods, ok := classMethods[className]; ok {
		fields = fields.Assoc(value.KeywordValue("", "__methods"), value.MapValue(methods))
	}
	inst := value.NewClassInstance(value.KeywordValue("", className), fields)
	return value.ClassInstanceValue(inst), nil
}

func readField(target value.Value, member string) (value.Value, error) {
	if target.Kind != value.KindClassInstance {
		return value.Nil(), errors.NewRuntimeError(errors.KindType, fmt.Sprintf("cannot read field %s of a non-class_instance value", member))
	}
	v, ok := target.AsClassInstance().Fields.Get(value.KeywordValue("", member))
	if !ok {
		return value.Nil(), errors.NewRuntimeError(errors.KindKey, fmt.Sprintf("no such field: %s", member))
	}
	return v, nil
}

func (m *VM) callMethod(target value.Value, member string, args []value.Value) (value.Value, error) {
	if target.Kind != value.KindClassInstance {
		return value.Nil(), errors.NewRuntimeError(errors.KindType, fmt.Sprintf("cannot call method %s on a non-class_instance value", member))
	}
	methodsVal, ok := target.AsClassInstance().Fields.Get(value.KeywordValue("", "__methods"))
	if !ok {
		return value.Nil(), errors.NewRuntimeError(errors.KindResolve, "no methods on this class_instance")
	}
	fnVal, ok := methodsVal.AsMap().Get(value.KeywordValue("", member))
	if !ok {
		return value.Nil(), errors.NewRuntimeError(errors.KindResolve, fmt.Sprintf("no such method: %s", member))
	}
	callArgs := make([]value.Value, 0, len(args)+1)
	callArgs = append(callArgs, target)
	callArgs = append(callArgs, args...)
	return m.Call(fnVal.AsFn(), callArgs)
}
