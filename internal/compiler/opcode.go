// Package compiler implements the C component of spec §4.C: a
// single-pass Node (analyzer.Node) to bytecode compiler. Unlike the
// teacher's type-specialized instruction set (OpAddInt/OpAddFloat/...,
// one opcode per Pascal primitive type), Clojure's dynamic typing means
// every arithmetic/comparison/collection operation is an ordinary
// function call (OpCall) dispatched at runtime — the opcode set below
// only covers what genuinely differs by *shape* (constant/local/var
// load-store, control flow, closure/exception construction), grounded on
// the teacher's internal/bytecode/instruction.go for the
// opcode-as-a-byte, operand-table-index idiom (locals/consts addressed
// by table index rather than embedded literals) and its forward-jump
// patching approach in compiler.go.
package compiler

type OpCode byte

const (
	// OpConst pushes Consts[operand].
	OpConst OpCode = iota
	// OpNil pushes a nil literal with no operand (true/false constants
	// travel through OpConst like any other literal, since Node.Const
	// already carries a fully-formed value.Value for them).
	OpNil
	// OpPop discards the top of the stack.
	OpPop
	// OpPushFrame / OpPopFrame open and close a genuinely nested lexical
	// scope within the current Proto (emitted around let*/loop*, never
	// around a whole fn arity, which already gets a fresh Frame from the
	// call itself). Without this, two sibling (non-nested) let* blocks
	// in the same Proto body would share one flat Frame, and a closure
	// created in the first block would observe a same-named local being
	// reassigned by the second — the opcode-level scope boundary is what
	// makes capture-by-reference correct per-block, matching
	// internal/eval's NewFrame(parent) per let*/loop*.
	OpPushFrame
	OpPopFrame
	// OpLoadLocal / OpStoreLocal address a name in Names[operand]. Locals
	// are name-addressed rather than slot-indexed (a deliberate
	// simplification from the teacher's slot allocator): every compiled
	// Proto carries its own Frame, mirroring internal/eval's Frame chain
	// closely enough that the two engines can be verified against each
	// other form-by-form (spec §8 property 1).
	OpLoadLocal
	OpStoreLocal
	// OpLoadVar / OpDefVar address a *env.Var captured in
	// Consts[operand] (Kind == value.KindVar).
	OpLoadVar
	OpDefVar
	// OpSetVar pops a value and sets it as Consts[operand]'s current
	// thread binding (falling back to BindRoot if unbound).
	OpSetVar
	// OpJump / OpJumpIfFalse take a 2-byte little-endian absolute code
	// offset operand. recur compiles directly to a sequence of
	// OpStoreLocal (against the nearest loop*/fn arity's own Proto start)
	// followed by OpJump back to it — there is no dedicated recur
	// opcode, since the compiler already knows the jump target and
	// binding names at compile time (unlike internal/eval, which must
	// unwind via a runtime recurSignal because Go's call stack has no
	// comparable jump-back primitive).
	OpJump
	OpJumpIfFalse
	// OpCall pops operand args plus one fn below them, pushes the result.
	OpCall
	// OpReturn ends execution of the current Proto, returning the top of
	// the stack (or nil if empty).
	OpReturn
	// OpMakeVector / OpMakeMap / OpMakeSet pop operand (operand*2 for
	// maps) stack items and push the built collection.
	OpMakeVector
	OpMakeMap
	OpMakeSet
	// OpMakeClosure builds a closure over Protos[operand], capturing the
	// current Frame.
	OpMakeClosure
	// OpThrow pops a value and raises it as a thrown exception.
	OpThrow
	// OpTry executes TryInfos[operand]: body/catch/finally sub-protos
	// run as nested Proto calls over the same Frame.
	OpTry
	// OpNewInstance builds a class_instance of ClassNames[operand] from
	// operand2 (2-byte) constructor args already on the stack.
	OpNewInstance
	// OpDeftype registers Protos[operand]'s method table under
	// ClassNames[operand2]/ClassFields[operand2].
	OpDeftype
	// OpReify builds an anonymous class_instance from a method Proto
	// table, capturing the current Frame.
	OpReify
	// OpInteropCall / OpInteropField implement .method/.-field against a
	// class_instance on the stack (operand indexes Names for the member
	// name; OpInteropCall additionally pops operand2 args).
	OpInteropCall
	OpInteropField
	// OpNoop is emitted for monitor-enter/monitor-exit/import*, which
	// have no runtime effect in this engine.
	OpNoop
)

// opCodeNames maps each OpCode to its mnemonic, grounded on the
// teacher's internal/bytecode/instruction.go OpCodeNames table —
// cmd/cljw's disasm subcommand and String() below are this table's only
// two consumers.
var opCodeNames = [...]string{
	OpConst:        "CONST",
	OpNil:          "NIL",
	OpPop:          "POP",
	OpPushFrame:    "PUSH_FRAME",
	OpPopFrame:     "POP_FRAME",
	OpLoadLocal:    "LOAD_LOCAL",
	OpStoreLocal:   "STORE_LOCAL",
	OpLoadVar:      "LOAD_VAR",
	OpDefVar:       "DEF_VAR",
	OpSetVar:       "SET_VAR",
	OpJump:         "JUMP",
	OpJumpIfFalse:  "JUMP_IF_FALSE",
	OpCall:         "CALL",
	OpReturn:       "RETURN",
	OpMakeVector:   "MAKE_VECTOR",
	OpMakeMap:      "MAKE_MAP",
	OpMakeSet:      "MAKE_SET",
	OpMakeClosure:  "MAKE_CLOSURE",
	OpThrow:        "THROW",
	OpTry:          "TRY",
	OpNewInstance:  "NEW_INSTANCE",
	OpDeftype:      "DEFTYPE",
	OpReify:        "REIFY",
	OpInteropCall:  "INTEROP_CALL",
	OpInteropField: "INTEROP_FIELD",
	OpNoop:         "NOOP",
}

func (op OpCode) String() string {
	if int(op) < len(opCodeNames) && opCodeNames[op] != "" {
		return opCodeNames[op]
	}
	return "UNKNOWN"
}

// operandWidths gives the number of 2-byte operands following each
// opcode in Proto.Code, the fixed-width layout emitJump/emit assume.
// OpNewInstance, OpDeftype and OpInteropCall take two.
var operandWidths = [...]int{
	OpConst:        1,
	OpNil:          0,
	OpPop:          0,
	OpPushFrame:    0,
	OpPopFrame:     0,
	OpLoadLocal:    1,
	OpStoreLocal:   1,
	OpLoadVar:      1,
	OpDefVar:       1,
	OpSetVar:       1,
	OpJump:         1,
	OpJumpIfFalse:  1,
	OpCall:         1,
	OpReturn:       0,
	OpMakeVector:   1,
	OpMakeMap:      1,
	OpMakeSet:      1,
	OpMakeClosure:  1,
	OpThrow:        0,
	OpTry:          1,
	OpNewInstance:  2,
	OpDeftype:      2,
	OpReify:        1,
	OpInteropCall:  2,
	OpInteropField: 1,
	OpNoop:         0,
}

// OperandWidth reports how many 2-byte operands follow op in a Proto's
// Code stream.
func (op OpCode) OperandWidth() int {
	if int(op) < len(operandWidths) {
		return operandWidths[op]
	}
	return 0
}
