package cmd

import (
	"path/filepath"

	"github.com/clojurewasm/cljw/internal/bootstrap"
)

// searchPathsFlag is set by run's --path flag and read by newRuntime:
// extra directories to search for namespaces beyond the embedded library
// table (spec §4.L). compile and repl register no such flag.
var searchPathsFlag []string

func newRuntime(scriptDir string) (*bootstrap.Runtime, error) {
	paths := append([]string{}, searchPathsFlag...)
	if scriptDir != "" {
		paths = append(paths, scriptDir)
	}
	return bootstrap.Init(paths...)
}

func dirOf(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Dir(path)
}
