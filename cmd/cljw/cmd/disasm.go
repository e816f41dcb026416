package cmd

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/clojurewasm/cljw/internal/compiler"
	"github.com/clojurewasm/cljw/internal/module"
	"github.com/clojurewasm/cljw/internal/value"
	"github.com/spf13/cobra"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <file.cljc>",
	Short: "Disassemble a compiled Module file",
	Long:  `Reads a Module file written by "cljw compile" and prints its bytecode, mnemonic by mnemonic, against internal/compiler's opcode table.`,
	Args:  cobra.ExactArgs(1),
	RunE:  disassembleFile,
}

func init() {
	rootCmd.AddCommand(disasmCmd)
}

func disassembleFile(_ *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	rt, err := newRuntime("")
	if err != nil {
		exitRuntime(err)
		return nil
	}
	proto, err := module.Decode(data, rt.Env)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", args[0], err)
	}
	fmt.Print(Disassemble(proto))
	return nil
}

// Disassemble renders p and every Proto it transitively references
// (depth-first, matching internal/module.flattenProtos's own ordering)
// as a mnemonic listing: offset, opcode name, operands, and — for
// OpConst — the constant's printed form, grounded on the teacher's
// internal/bytecode/disasm.go column layout.
func Disassemble(p *compiler.Proto) string {
	var b strings.Builder
	seen := map[*compiler.Proto]bool{}
	var walk func(p *compiler.Proto)
	walk = func(p *compiler.Proto) {
		if p == nil || seen[p] {
			return
		}
		seen[p] = true
		disasmOne(&b, p)
		for _, child := range p.Protos {
			walk(child)
		}
	}
	walk(p)
	return b.String()
}

func disasmOne(b *strings.Builder, p *compiler.Proto) {
	fmt.Fprintf(b, "== %s (%d params%s) ==\n", p.Name, len(p.ParamNames), variadicSuffix(p.Variadic))
	pc := 0
	for pc < len(p.Code) {
		op := compiler.OpCode(p.Code[pc])
		start := pc
		pc++
		operands := make([]uint16, op.OperandWidth())
		for i := range operands {
			operands[i] = binary.LittleEndian.Uint16(p.Code[pc : pc+2])
			pc += 2
		}
		fmt.Fprintf(b, "%04d  %-16s", start, op.String())
		for _, o := range operands {
			fmt.Fprintf(b, " %d", o)
		}
		if op == compiler.OpConst && len(operands) == 1 && int(operands[0]) < len(p.Consts) {
			fmt.Fprintf(b, "  ; %s", value.Print(p.Consts[int(operands[0])], value.PrintOpts{Readable: true}))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func variadicSuffix(variadic bool) string {
	if variadic {
		return ", variadic"
	}
	return ""
}
