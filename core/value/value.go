// Package value defines the dynamically typed result of evaluating a plan word.
package value

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind identifies the dynamic type of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindCallable
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindCallable:
		return "callable"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Func is the body of a callable value. Callables take exactly one argument:
// plan syntax has no way to pass more than the single word that follows.
type Func func(arg Value) (Value, error)

// Value is an evaluated word. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string // string payload, or callable name
	fn   Func
}

// Null returns the absent value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a number. Plan numbers are float64 throughout.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Callable wraps a named single-argument function.
func Callable(name string, fn Func) Value {
	return Value{kind: KindCallable, s: name, fn: fn}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool reports the boolean payload; ok is false unless the value is exactly a boolean.
func (v Value) AsBool() (b, ok bool) {
	return v.b, v.kind == KindBool
}

func (v Value) AsNumber() (float64, bool) {
	return v.n, v.kind == KindNumber
}

// AsString returns the raw string payload of a string value.
// Use String for the display form of any value.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsInt returns the number as an int when it is a finite whole number.
func (v Value) AsInt() (int, bool) {
	if v.kind != KindNumber || math.IsNaN(v.n) || math.IsInf(v.n, 0) {
		return 0, false
	}
	if v.n != math.Trunc(v.n) || math.Abs(v.n) > 1<<53 {
		return 0, false
	}
	return int(v.n), true
}

// Name returns the registered name of a callable.
func (v Value) Name() string {
	if v.kind != KindCallable {
		return ""
	}
	return v.s
}

// Call invokes a callable with its single argument.
func (v Value) Call(arg Value) (Value, error) {
	if v.kind != KindCallable || v.fn == nil {
		return Null(), &TypeError{Op: "call", Got: v.kind}
	}
	return v.fn(arg)
}

// Len returns the length of a string in characters.
// No other kind has a length.
func (v Value) Len() (int, error) {
	if v.kind != KindString {
		return 0, &TypeError{Op: "len", Got: v.kind}
	}
	return utf8.RuneCountInString(v.s), nil
}

// Equal reports whether two values have the same kind and payload.
// Callables are equal when their names match.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	default:
		return v.s == o.s
	}
}

// String renders the value the way write and log print it.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return FormatNumber(v.n)
	case KindString:
		return v.s
	case KindCallable:
		return "<builtin " + v.s + ">"
	default:
		return ""
	}
}

// GoString renders the value with strings quoted, for debug logs.
func (v Value) GoString() string {
	if v.kind == KindString {
		return strconv.Quote(v.s)
	}
	return v.String()
}

// FormatNumber renders n with the shortest representation that round-trips,
// switching to exponent form outside [1e-6, 1e21).
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}

	abs := math.Abs(n)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}

	s := strconv.FormatFloat(n, 'e', -1, 64)
	// Go pads the exponent to two digits ("1e-07"); drop the padding.
	mantissa, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	return mantissa + "e" + sign + digits
}

// ParseNumber parses numeric plan text: finite decimal numbers and unsigned
// 0x, 0o and 0b integers. Hex floats, signed prefixed integers and digit
// separators are rejected. "NaN" and "Inf" spellings are left to symbol
// resolution.
func ParseNumber(text string) (float64, bool) {
	if base := radixPrefix(text); base != 0 {
		return parseRadixInt(text[2:], base)
	}
	if strings.ContainsAny(text, "xX_") {
		return 0, false
	}

	n, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func radixPrefix(text string) int {
	if len(text) < 2 || text[0] != '0' {
		return 0
	}
	switch text[1] {
	case 'x', 'X':
		return 16
	case 'o', 'O':
		return 8
	case 'b', 'B':
		return 2
	default:
		return 0
	}
}

// parseRadixInt parses unsigned digits of any length, rounding to the
// nearest float64 like a decimal literal would.
func parseRadixInt(digits string, base int) (float64, bool) {
	if digits == "" || digits[0] == '+' || digits[0] == '-' {
		return 0, false
	}
	i, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return 0, false
	}
	n, _ := new(big.Float).SetInt(i).Float64()
	if math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// TypeError reports an operation applied to a value of the wrong kind.
type TypeError struct {
	Op  string
	Got Kind
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: unsupported value of type %s", e.Op, e.Got)
}
