package evaluator

import (
	"fmt"

	"github.com/opal-lang/planwords/core/value"
)

// Status tells the caller of an evaluation step how to proceed.
type Status int

const (
	// StatusContinue: the word evaluated normally and Next is valid.
	StatusContinue Status = iota
	// StatusHalt: a soft abort. The error was logged, every enclosing
	// evaluation returns immediately and the run stops without failing.
	StatusHalt
	// StatusFatal: the run failed and the error must reach the caller.
	StatusFatal
)

func (s Status) String() string {
	switch s {
	case StatusContinue:
		return "continue"
	case StatusHalt:
		return "halt"
	case StatusFatal:
		return "fatal"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is the outcome of evaluating one word (and any words it consumed).
type Result struct {
	Value  value.Value
	Next   int        // Index of the next unevaluated word; meaningful only on StatusContinue
	Status Status
	Err    *EvalError // Set for StatusHalt and StatusFatal
}

// OK reports whether evaluation may continue at Next.
func (r Result) OK() bool { return r.Status == StatusContinue }

func ok(v value.Value, next int) Result {
	return Result{Value: v, Next: next, Status: StatusContinue}
}
