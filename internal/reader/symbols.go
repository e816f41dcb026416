package reader

import (
	"strings"

	"github.com/clojurewasm/cljw/internal/value"
)

// splitNsName splits "ns/name" into its parts. A bare "/" (the division
// symbol) and names with no slash are left unsplit (ns == "").
func splitNsName(s string) (ns, name string) {
	if s == "/" {
		return "", "/"
	}
	if idx := strings.LastIndex(s, "/"); idx > 0 {
		return s[:idx], s[idx+1:]
	}
	return "", s
}

func parseSymbol(lit string) value.Value {
	ns, name := splitNsName(lit)
	return value.SymbolValue(ns, name)
}

// parseKeyword decodes a KEYWORD token's literal (spec §4.T), which
// includes the leading ':' or '::'. A double-colon keyword is
// auto-resolved against currentNS.
func parseKeyword(lit string, currentNS string) value.Value {
	body := strings.TrimPrefix(lit, ":")
	if strings.HasPrefix(body, ":") {
		body = strings.TrimPrefix(body, ":")
		ns, name := splitNsName(body)
		if ns == "" {
			ns = currentNS
		}
		return value.KeywordValue(ns, name)
	}
	ns, name := splitNsName(body)
	return value.KeywordValue(ns, name)
}
