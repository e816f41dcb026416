// Command cljw is the CLI wrapping spec §6.2's entry points
// (eval_string, eval_file, compile_to_module, run_module,
// start_repl_session), grounded on the teacher's cmd/dwscript structure:
// a thin main.go delegating to a cmd package built on
// github.com/spf13/cobra, with each entry point its own subcommand file.
package main

import (
	"os"

	"github.com/clojurewasm/cljw/cmd/cljw/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCodeFor(err))
	}
}
