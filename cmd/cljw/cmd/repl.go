package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/clojurewasm/cljw/internal/bootstrap"
	"github.com/clojurewasm/cljw/internal/reader"
	"github.com/clojurewasm/cljw/internal/value"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive read-eval-print loop",
	Long:  `Wraps start_repl_session: reads forms from stdin, evaluates each through the tree-walk engine, and prints the result, until EOF.`,
	Args:  cobra.NoArgs,
	RunE:  runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime("")
	if err != nil {
		exitRuntime(err)
		return nil
	}
	StartReplSession(rt, cmd.InOrStdin(), cmd.OutOrStdout())
	return nil
}

// StartReplSession implements start_repl_session(env, io): it reads
// lines from in, accumulating them until the buffered text parses as a
// complete top-level form (an "unexpected EOF" reader error means more
// input is needed, any other reader error is reported and the buffer is
// discarded), then analyzes and evaluates that form through the
// tree-walk engine and prints its value — one form per iteration, not
// one line, so a multi-line (defn ...) at the prompt works exactly like
// a single-line one.
func StartReplSession(rt *bootstrap.Runtime, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	var buf strings.Builder
	prompt := func() {
		if buf.Len() == 0 {
			fmt.Fprint(out, rt.Env.Current().Name+"=> ")
		} else {
			fmt.Fprint(out, "...... ")
		}
	}

	prompt()
	for scanner.Scan() {
		buf.WriteString(scanner.Text())
		buf.WriteString("\n")

		form, ok, err := reader.New(buf.String(), "<repl>").Read()
		if err != nil {
			if strings.Contains(err.Error(), "unexpected EOF") {
				prompt()
				continue
			}
			fmt.Fprintf(out, "error: %v\n", err)
			buf.Reset()
			prompt()
			continue
		}
		if !ok {
			// Blank input: nothing to evaluate yet, keep waiting.
			prompt()
			continue
		}
		buf.Reset()

		node, err := rt.Analyzer.Analyze(form, nil)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			prompt()
			continue
		}
		result, err := rt.Eval.Eval(node, nil)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			prompt()
			continue
		}
		fmt.Fprintln(out, value.Print(result, value.PrintOpts{Readable: true}))
		prompt()
	}
	fmt.Fprintln(out)
}
