package symbols

import (
	"math"
	"strings"

	"github.com/opal-lang/planwords/core/invariant"
	"github.com/opal-lang/planwords/core/value"
)

// Builtins returns a table holding the standard symbols:
//
//	true false null                  constants
//	str num type                     conversions
//	not                              boolean negation
//	neg abs floor ceil sqrt          number functions
//	upper lower trim reverse         string functions
func Builtins() *Table {
	t := New()

	constants := map[string]value.Value{
		"true":  value.Bool(true),
		"false": value.Bool(false),
		"null":  value.Null(),
	}
	for name, v := range constants {
		invariant.ExpectNoError(t.Register(name, v), "register "+name)
	}

	funcs := map[string]value.Func{
		"str":     str,
		"num":     num,
		"type":    typeOf,
		"not":     not,
		"neg":     numberFunc("neg", func(n float64) float64 { return -n }),
		"abs":     numberFunc("abs", math.Abs),
		"floor":   numberFunc("floor", math.Floor),
		"ceil":    numberFunc("ceil", math.Ceil),
		"sqrt":    numberFunc("sqrt", math.Sqrt),
		"upper":   stringFunc("upper", strings.ToUpper),
		"lower":   stringFunc("lower", strings.ToLower),
		"trim":    stringFunc("trim", strings.TrimSpace),
		"reverse": stringFunc("reverse", reverse),
	}
	for name, fn := range funcs {
		invariant.ExpectNoError(t.RegisterFunc(name, fn), "register "+name)
	}

	return t
}

func str(arg value.Value) (value.Value, error) {
	return value.String(arg.String()), nil
}

func num(arg value.Value) (value.Value, error) {
	switch arg.Kind() {
	case value.KindNumber:
		return arg, nil
	case value.KindBool:
		if b, _ := arg.AsBool(); b {
			return value.Number(1), nil
		}
		return value.Number(0), nil
	case value.KindString:
		s, _ := arg.AsString()
		if n, ok := value.ParseNumber(strings.TrimSpace(s)); ok {
			return value.Number(n), nil
		}
		return value.Null(), &ConversionError{Op: "num", Text: s}
	default:
		return value.Null(), &value.TypeError{Op: "num", Got: arg.Kind()}
	}
}

func typeOf(arg value.Value) (value.Value, error) {
	return value.String(arg.Kind().String()), nil
}

func not(arg value.Value) (value.Value, error) {
	b, ok := arg.AsBool()
	if !ok {
		return value.Null(), &value.TypeError{Op: "not", Got: arg.Kind()}
	}
	return value.Bool(!b), nil
}

func numberFunc(name string, fn func(float64) float64) value.Func {
	return func(arg value.Value) (value.Value, error) {
		n, ok := arg.AsNumber()
		if !ok {
			return value.Null(), &value.TypeError{Op: name, Got: arg.Kind()}
		}
		return value.Number(fn(n)), nil
	}
}

func stringFunc(name string, fn func(string) string) value.Func {
	return func(arg value.Value) (value.Value, error) {
		s, ok := arg.AsString()
		if !ok {
			return value.Null(), &value.TypeError{Op: name, Got: arg.Kind()}
		}
		return value.String(fn(s)), nil
	}
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// ConversionError reports text that cannot be converted to a number.
type ConversionError struct {
	Op   string
	Text string
}

func (e *ConversionError) Error() string {
	return e.Op + ": cannot convert " + `"` + e.Text + `"` + " to a number"
}
