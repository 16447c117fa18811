package evaluator

import (
	"fmt"
	"strings"
)

// ErrorKind classifies evaluation errors.
type ErrorKind int

const (
	// Soft aborts
	ErrNonBooleanCondition ErrorKind = iota
	ErrUnknownWord
	ErrCallFailed
	ErrEvalFailed
	ErrUnexpectedEnd

	// Fatal errors
	ErrTimesCount
	ErrBlockStartExpected
	ErrUnterminatedBlock
	ErrLenType
	ErrTooDeep
	ErrOutput
)

var errorKindNames = map[ErrorKind]string{
	ErrNonBooleanCondition: "non-boolean condition",
	ErrUnknownWord:         "unknown word",
	ErrCallFailed:          "call failed",
	ErrEvalFailed:          "eval failed",
	ErrUnexpectedEnd:       "unexpected end",
	ErrTimesCount:          "invalid times count",
	ErrBlockStartExpected:  "block start expected",
	ErrUnterminatedBlock:   "unterminated block",
	ErrLenType:             "len type error",
	ErrTooDeep:             "nesting too deep",
	ErrOutput:              "output failed",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Fatal reports whether errors of this kind end a run with a failure.
func (k ErrorKind) Fatal() bool {
	return k >= ErrTimesCount
}

// EvalError describes why evaluation stopped.
type EvalError struct {
	Kind       ErrorKind
	Message    string // Clear, specific error message
	Word       string // Word being evaluated ("" past the end of the plan)
	Index      int    // Position of Word in the plan
	Suggestion string // How to fix it
	Err        error  // Underlying cause, if any
}

func (e *EvalError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Word != "" {
		fmt.Fprintf(&b, " (word %d: %q)", e.Index, e.Word)
	} else {
		fmt.Fprintf(&b, " (word %d)", e.Index)
	}
	if e.Suggestion != "" {
		b.WriteString("\n")
		b.WriteString(e.Suggestion)
	}
	return b.String()
}

func (e *EvalError) Unwrap() error { return e.Err }
