package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/clojurewasm/cljw/internal/analyzer"
	"github.com/clojurewasm/cljw/internal/bootstrap"
	"github.com/clojurewasm/cljw/internal/compiler"
	"github.com/clojurewasm/cljw/internal/module"
	"github.com/clojurewasm/cljw/internal/reader"
	"github.com/clojurewasm/cljw/internal/value"
	"github.com/clojurewasm/cljw/internal/vm"
	"github.com/spf13/cobra"
)

var (
	compileOutput   string
	compileDisasm   bool
	compileVerbose  bool
)

var compileCmd = &cobra.Command{
	Use:   "compile <file>",
	Short: "Compile a file to a Module (.cljc) bytecode file",
	Long: `Wraps compile_to_module: read every top-level form in file, compile
each through internal/compiler, and write the resulting Proto tree to a
binary Module file (spec §6.1).

Examples:
  cljw compile script.clj
  cljw compile script.clj -o out.cljc --disassemble`,
	Args: cobra.ExactArgs(1),
	RunE: compileScript,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "output file (default: <input>.cljc)")
	compileCmd.Flags().BoolVar(&compileDisasm, "disassemble", false, "print the disassembled bytecode after compiling")
	compileCmd.Flags().BoolVarP(&compileVerbose, "verbose", "v", false, "verbose output")
}

func compileScript(_ *cobra.Command, args []string) error {
	filename := args[0]
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filename, err)
	}

	rt, err := newRuntime(dirOf(filename))
	if err != nil {
		exitRuntime(err)
		return nil
	}

	proto, err := compileAllForms(rt.Analyzer, string(content), filename)
	if err != nil {
		exitRuntime(err)
		return nil
	}

	if compileVerbose {
		fmt.Fprintf(os.Stderr, "compiled %s: %d top-level bytes, %d consts, %d child protos\n",
			filename, len(proto.Code), len(proto.Consts), len(proto.Protos))
	}

	if compileDisasm {
		fmt.Print(Disassemble(proto))
	}

	data, err := module.Encode(proto)
	if err != nil {
		return fmt.Errorf("encoding module: %w", err)
	}

	out := compileOutput
	if out == "" {
		out = strings.TrimSuffix(filename, ".clj") + ".cljc"
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	if compileVerbose {
		fmt.Fprintf(os.Stderr, "wrote %s (%d bytes)\n", out, len(data))
	}
	return nil
}

// compileAllForms implements compile_to_module's per-form compile step:
// every top-level form in source is analyzed independently (each one
// must see the Vars any earlier form interned, exactly like
// internal/bootstrap's loadCoreLibrary loop), then the whole sequence is
// wrapped in a synthetic analyzer.KindDo node and compiled in one pass,
// so a single Module always has exactly one root Proto for run_module to
// invoke and the last form's value is what OpReturn leaves on the stack.
func compileAllForms(a *analyzer.Analyzer, source, filename string) (*compiler.Proto, error) {
	r := reader.New(source, filename)
	var body []*analyzer.Node
	for i := 1; ; i++ {
		form, ok, err := r.Read()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		node, err := a.Analyze(form, nil)
		if err != nil {
			return nil, fmt.Errorf("analyzing form %d: %w", i, err)
		}
		body = append(body, node)
	}
	doNode := &analyzer.Node{Kind: analyzer.KindDo, Body: body}
	proto, err := compiler.Compile(doNode)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", filename, err)
	}
	proto.Name = filename
	return proto, nil
}

// runModule implements run_module: decode a Module's root Proto and run
// it to completion through the bytecode VM.
func runModule(rt *bootstrap.Runtime, data []byte) (value.Value, error) {
	proto, err := module.Decode(data, rt.Env)
	if err != nil {
		return value.Nil(), err
	}
	return rt.VM.Run(proto, vm.NewFrame(nil))
}
