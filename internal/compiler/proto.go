package compiler

import "github.com/clojurewasm/cljw/internal/value"

// TryInfo describes one compiled try/catch/finally form (spec §4.C): the
// body, each catch clause, and the finally clause each compile to their
// own child Proto (indexed into the enclosing Proto's Protos table) and
// are invoked as ordinary nested calls by OpTry, mirroring
// internal/eval.evalTry's control flow rather than a jump-table
// exception-unwinding scheme — a deliberate scope reduction recorded in
// DESIGN.md.
type TryInfo struct {
	BodyProto    int
	Catches      []CatchInfo
	FinallyProto int // -1 if no finally clause
}

type CatchInfo struct {
	ClassName string
	Local     string
	BodyProto int
}

// Proto is one compiled closure body: a (fn* [params...] body...) arity,
// a top-level form, or a try/catch/finally sub-block. Locals are
// addressed by name (Names table + index operand) rather than classic
// slot indices, so the VM's Frame can mirror internal/eval.Frame's named
// chain closely enough to cross-check the two engines form-by-form (spec
// §8 property 1); grounded on the teacher's internal/bytecode/bytecode.go
// Proto/Chunk shape for the Code/Consts/children-table layout, adapted
// away from that file's per-type opcode operands.
type Proto struct {
	Name string

	ParamNames []string
	Variadic   bool

	Code []byte

	// Consts holds every literal and captured *env.Var (as a
	// value.KindVar-tagged Value) this Proto's code references via
	// OpConst/OpLoadVar/OpDefVar/OpSetVar.
	Consts []value.Value

	// Names holds every local-variable name this Proto's code addresses
	// via OpLoadLocal/OpStoreLocal, and every interop member name via
	// OpInteropCall/OpInteropField.
	Names []string

	// Protos holds nested closures: one entry per fn* arity compiled
	// inside this Proto's body, plus one per try/catch/finally sub-block.
	Protos []*Proto

	TryInfos []TryInfo

	// ClassNames/ClassFields are indexed by OpNewInstance/OpDeftype's
	// operand; ClassFields[i] is the declared field order for
	// ClassNames[i].
	ClassNames  []string
	ClassFields [][]string
}

func (p *Proto) addConst(v value.Value) int {
	p.Consts = append(p.Consts, v)
	return len(p.Consts) - 1
}

func (p *Proto) addName(name string) int {
	for i, n := range p.Names {
		if n == name {
			return i
		}
	}
	p.Names = append(p.Names, name)
	return len(p.Names) - 1
}

func (p *Proto) addProto(child *Proto) int {
	p.Protos = append(p.Protos, child)
	return len(p.Protos) - 1
}

func (p *Proto) addClass(name string, fields []string) int {
	p.ClassNames = append(p.ClassNames, name)
	p.ClassFields = append(p.ClassFields, fields)
	return len(p.ClassNames) - 1
}

func (p *Proto) addTryInfo(t TryInfo) int {
	p.TryInfos = append(p.TryInfos, t)
	return len(p.TryInfos) - 1
}
