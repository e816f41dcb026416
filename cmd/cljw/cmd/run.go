package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/clojurewasm/cljw/internal/bootstrap"
	"github.com/clojurewasm/cljw/internal/reader"
	"github.com/clojurewasm/cljw/internal/value"
	"github.com/spf13/cobra"
)

var evalExpr string

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a ClojureWasm file or expression",
	Long: `Execute a program from a file or inline expression, wrapping the
runtime's eval_file/eval_string entry points.

Examples:
  cljw run script.clj
  cljw run -e "(println (+ 1 2))"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate inline code instead of reading from file")
	runCmd.Flags().StringSliceVar(&searchPathsFlag, "path", nil, "additional namespace search path (repeatable)")
}

func runScript(_ *cobra.Command, args []string) error {
	// run_module: a .cljc argument is a previously-compiled Module, run
	// directly through the bytecode VM rather than read/analyzed again.
	if len(args) == 1 && strings.HasSuffix(args[0], ".cljc") {
		return runCompiledModule(args[0])
	}

	var source, filename, scriptDir string
	switch {
	case evalExpr != "":
		source, filename = evalExpr, "<eval>"
	case len(args) == 1:
		filename = args[0]
		content, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("reading %s: %w", filename, err)
		}
		source = string(content)
		scriptDir = dirOf(filename)
	default:
		return fmt.Errorf("provide a file path or -e for inline code")
	}

	rt, err := newRuntime(scriptDir)
	if err != nil {
		exitRuntime(err)
		return nil
	}

	// eval_string/eval_file
	result, err := evalAllForms(rt, source, filename)
	if err != nil {
		exitRuntime(err)
		return nil
	}
	if result.Kind != value.KindNil {
		fmt.Println(value.Print(result, value.PrintOpts{Readable: true}))
	}
	return nil
}

func runCompiledModule(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filename, err)
	}
	rt, err := newRuntime(dirOf(filename))
	if err != nil {
		exitRuntime(err)
		return nil
	}
	result, err := runModule(rt, data)
	if err != nil {
		exitRuntime(err)
		return nil
	}
	if result.Kind != value.KindNil {
		fmt.Println(value.Print(result, value.PrintOpts{Readable: true}))
	}
	return nil
}

// evalAllForms reads every top-level form in source and evaluates it
// through the tree-walk engine (eval_string/eval_file's engine, spec
// §4.B: the tree-walk evaluator is always available, unlike the
// bytecode path which requires an explicit compile step), returning the
// last form's value.
func evalAllForms(rt *bootstrap.Runtime, source, filename string) (value.Value, error) {
	r := reader.New(source, filename)
	result := value.Nil()
	for {
		form, ok, err := r.Read()
		if err != nil {
			return value.Nil(), err
		}
		if !ok {
			return result, nil
		}
		node, err := rt.Analyzer.Analyze(form, nil)
		if err != nil {
			return value.Nil(), err
		}
		result, err = rt.Eval.Eval(node, nil)
		if err != nil {
			return value.Nil(), err
		}
	}
}
