package vm

import (
	"fmt"

	"github.com/clojurewasm/cljw/internal/env"
	"github.com/clojurewasm/cljw/internal/errors"
	"github.com/clojurewasm/cljw/internal/value"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RegisterStringBuiltins installs clojure.string's case-conversion
// builtins (upper-case, lower-case, capitalize) into ns. These are
// genuinely Unicode-sensitive operations — strings.ToUpper maps each
// rune on its own and so leaves German ß unchanged instead of producing
// "SS" — so they use golang.org/x/text/cases (with the language-neutral
// tag, so no Turkish dotted/dotless i rules apply) rather than the
// standard library's rune-by-rune mapping, the same library the retrieved example pack
// carries for exactly this purpose. Installed from internal/vm (spec
// §4.B wires it at startup alongside everything else) rather than
// internal/eval, since the VM and tree-walker both dispatch to the same
// *value.Fn table through internal/dispatch either way.
func RegisterStringBuiltins(ns *env.Namespace) {
	def := func(name string, fn value.BuiltinFunc) {
		ns.Intern(name).BindRoot(value.FnValue(value.NewBuiltin(name, fn, value.Arity{Fixed: 1})))
	}

	def("upper-case", oneStringArg("upper-case", func(s string) string {
		return cases.Upper(language.Und).String(s)
	}))
	def("lower-case", oneStringArg("lower-case", func(s string) string {
		return cases.Lower(language.Und).String(s)
	}))
	def("capitalize", oneStringArg("capitalize", func(s string) string {
		return cases.Title(language.Und).String(s)
	}))
}

func oneStringArg(name string, f func(string) string) value.BuiltinFunc {
	return func(args []value.Value) (value.Value, error) {
		if len(args) != 1 || args[0].Kind != value.KindString {
			return value.Nil(), errors.NewRuntimeError(errors.KindType, fmt.Sprintf("%s: expected a single string argument", name))
		}
		return value.String(f(args[0].AsString())), nil
	}
}
