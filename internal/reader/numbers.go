package reader

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/clojurewasm/cljw/internal/value"
)

var (
	posInf = math.Inf(1)
	negInf = math.Inf(-1)
	nan    = math.NaN()
)

// parseInt handles the full spec §4.T integer grammar: decimal, 0x hex,
// NNr radix, and a trailing N (BigInt) or M (BigDecimal) suffix, accepted
// but narrowed to int64 since the R layer has no arbitrary-precision kind.
func parseInt(lit string) (value.Value, error) {
	s := strings.TrimSuffix(strings.TrimSuffix(lit, "N"), "M")
	neg := false
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	} else if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	var n int64
	var err error
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		n, err = strconv.ParseInt(s[2:], 16, 64)
	case strings.ContainsAny(s, "rR") && s != "" && isAllDigits(s[:strings.IndexAny(s, "rR")]):
		idx := strings.IndexAny(s, "rR")
		base, berr := strconv.Atoi(s[:idx])
		if berr != nil {
			return value.Nil(), berr
		}
		n, err = strconv.ParseInt(s[idx+1:], base, 64)
	case s == "":
		n = 0
	default:
		n, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		return value.Nil(), err
	}
	if neg {
		n = -n
	}
	return value.Int(n), nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseFloat(lit string) (value.Value, error) {
	s := strings.TrimSuffix(lit, "M")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return value.Nil(), err
	}
	return value.Float(f), nil
}

// parseRatio reduces N/D to a float64. The R layer has no exact rational
// kind (spec §3.1's closed Kind set has no Ratio variant), so ratio
// literals are read as their nearest double — documented in DESIGN.md as
// a deliberate scope reduction.
func parseRatio(lit string) (value.Value, error) {
	parts := strings.SplitN(lit, "/", 2)
	if len(parts) != 2 {
		return value.Nil(), strconvErrf("malformed ratio %q", lit)
	}
	num := new(big.Rat)
	if _, ok := num.SetString(parts[0] + "/" + parts[1]); !ok {
		return value.Nil(), strconvErrf("malformed ratio %q", lit)
	}
	f, _ := num.Float64()
	return value.Float(f), nil
}

func strconvErrf(format string, args ...any) error {
	return &strconv.NumError{Func: "parseRatio", Num: strconv.Quote(format), Err: strconv.ErrSyntax}
}
