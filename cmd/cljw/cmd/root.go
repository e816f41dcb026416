package cmd

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/clojurewasm/cljw/internal/errors"
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "cljw",
	Short: "ClojureWasm: a from-scratch Clojure runtime",
	Long: `cljw is a from-scratch Clojure implementation with a dual-backend
runtime: a reader/analyzer front end feeds both a tree-walking evaluator
and a stack-based bytecode virtual machine over a shared, immutable
value model managed by a mark-and-sweep garbage collector.`,
	Version: Version,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}

// ExitCodeFor maps an error Execute() returned straight back to main.go
// into spec §6.2's exit codes. Subcommand bodies that already know their
// error is a user-program exception vs. an internal failure call
// os.Exit themselves (via exitRuntime below) and return nil from RunE,
// so by the time an error reaches here it escaped cobra's own argument
// validation (unknown flag, wrong arg count, ...) — a usage error.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	return 2
}

// exitRuntime implements spec §6.2's distinction between a user
// program's own uncaught exception (exit 1) and a failure in the
// runtime itself (exit 3): errors.KindInternal and errors.KindStackOverflow
// are ours, everything else reaching this point came from evaluating the
// user's own code.
func exitRuntime(err error) {
	fmt.Fprintf(os.Stderr, "%v\n", err)
	var re *errors.RuntimeError
	if stderrors.As(err, &re) {
		switch re.Kind {
		case errors.KindInternal, errors.KindStackOverflow:
			os.Exit(3)
		}
	}
	os.Exit(1)
}
