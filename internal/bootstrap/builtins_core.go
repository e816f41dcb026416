package bootstrap

import (
	"fmt"
	"strings"

	"github.com/clojurewasm/cljw/internal/dispatch"
	"github.com/clojurewasm/cljw/internal/env"
	"github.com/clojurewasm/cljw/internal/errors"
	"github.com/clojurewasm/cljw/internal/value"
)

// registerCoreBuiltins installs clojure.core's native-Go primitives
// (spec §4.B step 2): arithmetic, comparison, and the handful of
// collection/seq operations everything else in the core library is
// written in terms of. Grounded on the teacher's internal/builtins
// per-function doc-comment style (internal/builtins/ordinal.go) but
// over value.BuiltinFunc's (args []Value) (Value, error) shape rather
// than the teacher's Context-threading convention, since this runtime
// has no analogous host-object Context to thread through.
func registerCoreBuiltins(ns *env.Namespace) {
	def := func(name string, fn value.BuiltinFunc) {
		ns.Intern(name).BindRoot(value.FnValue(value.NewBuiltin(name, fn)))
	}

	def("+", arithReduce("+", 0, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b }))
	def("*", arithReduce("*", 1, func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b }))
	def("-", arithSubtractive("-", func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b }, func(a int64) int64 { return -a }, func(a float64) float64 { return -a }))
	def("/", divide)

	def("=", variadicBool("=", func(a, b value.Value) bool { return value.Equal(a, b) }))
	def("<", numericCompare("<", func(a, b float64) bool { return a < b }))
	def(">", numericCompare(">", func(a, b float64) bool { return a > b }))
	def("<=", numericCompare("<=", func(a, b float64) bool { return a <= b }))
	def(">=", numericCompare(">=", func(a, b float64) bool { return a >= b }))

	def("first", func(args []value.Value) (value.Value, error) {
		l, err := asList("first", args)
		if err != nil {
			return value.Nil(), err
		}
		if l.IsEmpty() {
			return value.Nil(), nil
		}
		return l.First(), nil
	})
	def("rest", func(args []value.Value) (value.Value, error) {
		l, err := asList("rest", args)
		if err != nil {
			return value.Nil(), err
		}
		return value.ListValue(l.Rest()), nil
	})
	def("cons", func(args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return value.Nil(), arityErr("cons", 2, len(args))
		}
		l, err := toList(args[1])
		if err != nil {
			return value.Nil(), err
		}
		return value.ListValue(value.Cons(args[0], l)), nil
	})
	def("list", func(args []value.Value) (value.Value, error) {
		return value.ListValue(value.NewList(args...)), nil
	})
	def("vector", func(args []value.Value) (value.Value, error) {
		return value.VectorValue(value.NewVector(args...)), nil
	})
	def("hash-map", func(args []value.Value) (value.Value, error) {
		if len(args)%2 != 0 {
			return value.Nil(), errors.NewRuntimeError(errors.KindArity, "hash-map requires an even number of args")
		}
		return value.MapValue(value.NewMap(args...)), nil
	})
	def("hash-set", func(args []value.Value) (value.Value, error) {
		return value.SetValue(value.NewSet(args...)), nil
	})
	def("conj", conj)
	def("count", func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return value.Nil(), arityErr("count", 1, len(args))
		}
		return value.Int(int64(countOf(args[0]))), nil
	})
	def("get", func(args []value.Value) (value.Value, error) {
		if len(args) < 2 {
			return value.Nil(), arityErr("get", 2, len(args))
		}
		v, ok := getFrom(args[0], args[1])
		if !ok {
			if len(args) == 3 {
				return args[2], nil
			}
			return value.Nil(), nil
		}
		return v, nil
	})
	def("nth", func(args []value.Value) (value.Value, error) {
		if len(args) < 2 {
			return value.Nil(), arityErr("nth", 2, len(args))
		}
		if args[0].Kind != value.KindVector {
			return value.Nil(), errors.NewRuntimeError(errors.KindType, "nth: expected a vector")
		}
		idx := int(args[1].AsInt())
		v, ok := args[0].AsVector().Get(idx)
		if !ok {
			if len(args) == 3 {
				return args[2], nil
			}
			return value.Nil(), errors.NewRuntimeError(errors.KindIndex, fmt.Sprintf("index %d out of bounds", idx))
		}
		return v, nil
	})
	def("drop", func(args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return value.Nil(), arityErr("drop", 2, len(args))
		}
		n := int(args[0].AsInt())
		l, err := toList(args[1])
		if err != nil {
			return value.Nil(), err
		}
		for i := 0; i < n && !l.IsEmpty(); i++ {
			l = l.Rest()
		}
		return value.ListValue(l), nil
	})
	def("str", func(args []value.Value) (value.Value, error) {
		var b strings.Builder
		for _, a := range args {
			b.WriteString(value.Print(a, value.PrintOpts{}))
		}
		return value.String(b.String()), nil
	})
	def("pr-str", func(args []value.Value) (value.Value, error) {
		var b strings.Builder
		for i, a := range args {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(value.Print(a, value.PrintOpts{Readable: true}))
		}
		return value.String(b.String()), nil
	})
	def("ex-info", func(args []value.Value) (value.Value, error) {
		if len(args) < 2 {
			return value.Nil(), arityErr("ex-info", 2, len(args))
		}
		d := args[1]
		var cause value.Value
		if len(args) >= 3 {
			cause = args[2]
		}
		return errors.NewExceptionMap("ExceptionInfo", args[0].AsString(), d, cause), nil
	})

	def("apply", func(args []value.Value) (value.Value, error) {
		if len(args) < 2 {
			return value.Nil(), arityErr("apply", 2, len(args))
		}
		if args[0].Kind != value.KindFn {
			return value.Nil(), errors.NewRuntimeError(errors.KindType, "apply: first argument must be a function")
		}
		l, err := toList(args[len(args)-1])
		if err != nil {
			return value.Nil(), err
		}
		callArgs := append([]value.Value{}, args[1:len(args)-1]...)
		for cur := l; !cur.IsEmpty(); cur = cur.Rest() {
			callArgs = append(callArgs, cur.First())
		}
		return dispatch.Call(args[0].AsFn(), callArgs)
	})

	def("not", func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return value.Nil(), arityErr("not", 1, len(args))
		}
		return value.Bool(!truthy(args[0])), nil
	})
}

func truthy(v value.Value) bool {
	if v.Kind == value.KindNil {
		return false
	}
	if v.Kind == value.KindBool {
		return v.Data.(bool)
	}
	return true
}

func arityErr(name string, want, got int) error {
	return errors.NewRuntimeError(errors.KindArity, fmt.Sprintf("%s: expected %d args, got %d", name, want, got))
}

func toList(v value.Value) (*value.List, error) {
	switch v.Kind {
	case value.KindList:
		return v.AsList(), nil
	case value.KindNil:
		return value.EmptyList(), nil
	case value.KindVector:
		items := make([]value.Value, 0, v.AsVector().Count())
		v.AsVector().Range(func(_ int, val value.Value) bool { items = append(items, val); return true })
		l := value.EmptyList()
		for i := len(items) - 1; i >= 0; i-- {
			l = value.Cons(items[i], l)
		}
		return l, nil
	default:
		return nil, errors.NewRuntimeError(errors.KindType, fmt.Sprintf("cannot treat %s as a seq", v.Kind))
	}
}

func asList(name string, args []value.Value) (*value.List, error) {
	if len(args) != 1 {
		return nil, arityErr(name, 1, len(args))
	}
	return toList(args[0])
}

func countOf(v value.Value) int {
	switch v.Kind {
	case value.KindVector:
		return v.AsVector().Count()
	case value.KindMap:
		return v.AsMap().Count()
	case value.KindSet:
		return v.AsSet().Count()
	case value.KindList:
		return v.AsList().Count()
	case value.KindNil:
		return 0
	case value.KindString:
		return len(v.AsString())
	default:
		return 0
	}
}

func getFrom(coll, key value.Value) (value.Value, bool) {
	switch coll.Kind {
	case value.KindMap:
		return coll.AsMap().Get(key)
	case value.KindVector:
		if key.Kind != value.KindInt {
			return value.Nil(), false
		}
		return coll.AsVector().Get(int(key.AsInt()))
	case value.KindSet:
		if coll.AsSet().Contains(key) {
			return key, true
		}
		return value.Nil(), false
	default:
		return value.Nil(), false
	}
}

func conj(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Nil(), arityErr("conj", 1, 0)
	}
	coll := args[0]
	for _, v := range args[1:] {
		switch coll.Kind {
		case value.KindVector:
			coll = value.VectorValue(coll.AsVector().Conj(v))
		case value.KindSet:
			coll = value.SetValue(coll.AsSet().Conj(v))
		case value.KindList, value.KindNil:
			l, err := toList(coll)
			if err != nil {
				return value.Nil(), err
			}
			coll = value.ListValue(value.Cons(v, l))
		default:
			return value.Nil(), errors.NewRuntimeError(errors.KindType, fmt.Sprintf("conj: cannot add to %s", coll.Kind))
		}
	}
	return coll, nil
}

func variadicBool(name string, cmp func(a, b value.Value) bool) value.BuiltinFunc {
	return func(args []value.Value) (value.Value, error) {
		if len(args) < 1 {
			return value.Nil(), arityErr(name, 1, 0)
		}
		for i := 1; i < len(args); i++ {
			if !cmp(args[i-1], args[i]) {
				return value.Bool(false), nil
			}
		}
		return value.Bool(true), nil
	}
}

func numericCompare(name string, cmp func(a, b float64) bool) value.BuiltinFunc {
	return func(args []value.Value) (value.Value, error) {
		if len(args) < 1 {
			return value.Nil(), arityErr(name, 1, 0)
		}
		for i := 1; i < len(args); i++ {
			a, err := asFloat(name, args[i-1])
			if err != nil {
				return value.Nil(), err
			}
			b, err := asFloat(name, args[i])
			if err != nil {
				return value.Nil(), err
			}
			if !cmp(a, b) {
				return value.Bool(false), nil
			}
		}
		return value.Bool(true), nil
	}
}

func asFloat(name string, v value.Value) (float64, error) {
	switch v.Kind {
	case value.KindInt:
		return float64(v.AsInt()), nil
	case value.KindFloat:
		return v.Data.(float64), nil
	default:
		return 0, errors.NewRuntimeError(errors.KindType, fmt.Sprintf("%s: expected a number", name))
	}
}

// arithReduce implements left-to-right reduction for + and *, promoting
// to float the moment either operand is a float (spec's numeric
// promotion Open Question decision, see DESIGN.md).
func arithReduce(name string, identity int64, intOp func(a, b int64) int64, floatOp func(a, b float64) float64) value.BuiltinFunc {
	return func(args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Int(identity), nil
		}
		acc := args[0]
		for _, v := range args[1:] {
			var err error
			acc, err = arithPair(name, acc, v, intOp, floatOp)
			if err != nil {
				return value.Nil(), err
			}
		}
		return acc, nil
	}
}

func arithSubtractive(name string, intOp func(a, b int64) int64, floatOp func(a, b float64) float64, intNeg func(int64) int64, floatNeg func(float64) float64) value.BuiltinFunc {
	return func(args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Nil(), arityErr(name, 1, 0)
		}
		if len(args) == 1 {
			switch args[0].Kind {
			case value.KindInt:
				return value.Int(intNeg(args[0].AsInt())), nil
			case value.KindFloat:
				return value.Value{Kind: value.KindFloat, Data: floatNeg(args[0].Data.(float64))}, nil
			default:
				return value.Nil(), errors.NewRuntimeError(errors.KindType, name+": expected a number")
			}
		}
		acc := args[0]
		for _, v := range args[1:] {
			var err error
			acc, err = arithPair(name, acc, v, intOp, floatOp)
			if err != nil {
				return value.Nil(), err
			}
		}
		return acc, nil
	}
}

func arithPair(name string, a, b value.Value, intOp func(a, b int64) int64, floatOp func(a, b float64) float64) (value.Value, error) {
	if a.Kind == value.KindInt && b.Kind == value.KindInt {
		x, y := a.AsInt(), b.AsInt()
		r := intOp(x, y)
		overflow := false
		switch name {
		case "+":
			overflow = (x >= 0) == (y >= 0) && (r >= 0) != (x >= 0)
		case "-":
			overflow = (x >= 0) != (y >= 0) && (r >= 0) != (x >= 0)
		case "*":
			overflow = x != 0 && (r/x != y || (x == -1 && y == -1<<63))
		}
		if !overflow {
			return value.Int(r), nil
		}
		return value.Value{Kind: value.KindFloat, Data: floatOp(float64(x), float64(y))}, nil
	}
	af, err := asFloat(name, a)
	if err != nil {
		return value.Nil(), err
	}
	bf, err := asFloat(name, b)
	if err != nil {
		return value.Nil(), err
	}
	return value.Value{Kind: value.KindFloat, Data: floatOp(af, bf)}, nil
}

func divide(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Nil(), arityErr("/", 1, 0)
	}
	if len(args) == 1 {
		a, err := asFloat("/", args[0])
		if err != nil {
			return value.Nil(), err
		}
		if a == 0 {
			return value.Nil(), errors.NewRuntimeError(errors.KindArithmetic, "divide by zero")
		}
		return value.Value{Kind: value.KindFloat, Data: 1 / a}, nil
	}
	acc, err := asFloat("/", args[0])
	if err != nil {
		return value.Nil(), err
	}
	for _, v := range args[1:] {
		d, err := asFloat("/", v)
		if err != nil {
			return value.Nil(), err
		}
		if d == 0 {
			return value.Nil(), errors.NewRuntimeError(errors.KindArithmetic, "divide by zero")
		}
		acc /= d
	}
	return value.Value{Kind: value.KindFloat, Data: acc}, nil
}
