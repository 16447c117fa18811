package evaluator

import (
	"github.com/opal-lang/planwords/core/invariant"
	"github.com/opal-lang/planwords/core/planfmt"
	"github.com/opal-lang/planwords/core/value"
)

// EvaluateBlock evaluates the block opening at start. Words inside the block
// are evaluated in order until the "}" at the block's own depth; blocks
// nested under keywords consume their own closing braces. The result holds
// the value of the last word evaluated and the index after the "}".
func (e *Evaluator) EvaluateBlock(start int) Result {
	if r, valid := e.checkBlockStart(start); !valid {
		return r
	}
	e.stats.BlocksEvaluated++

	last := value.Null()
	cursor := start + 1
	for cursor < len(e.words) {
		if e.words[cursor] == planfmt.BlockEnd {
			return ok(last, cursor+1)
		}

		r := e.Eval(cursor)
		if !r.OK() {
			return r
		}
		invariant.Invariant(r.Next > cursor, "cursor must advance inside block")
		last = r.Value
		cursor = r.Next
	}

	return e.unterminated(start)
}

// SkipBlock finds the end of the block opening at start without evaluating
// anything. Next is the index after the matching "}".
func (e *Evaluator) SkipBlock(start int) Result {
	if r, valid := e.checkBlockStart(start); !valid {
		return r
	}
	e.stats.BlocksSkipped++

	depth := 0
	for cursor := start; cursor < len(e.words); cursor++ {
		switch e.words[cursor] {
		case planfmt.BlockStart:
			depth++
		case planfmt.BlockEnd:
			depth--
			if depth == 0 {
				return ok(value.Null(), cursor+1)
			}
		}
		invariant.Invariant(depth > 0, "skip depth must stay positive inside the block")
	}

	return e.unterminated(start)
}

func (e *Evaluator) checkBlockStart(start int) (Result, bool) {
	if start >= 0 && start < len(e.words) && e.words[start] == planfmt.BlockStart {
		return Result{}, true
	}

	err := &EvalError{
		Kind:       ErrBlockStartExpected,
		Message:    "block start expected",
		Index:      start,
		Suggestion: `wrap the body in braces: if true { ... }`,
	}
	if start >= 0 && start < len(e.words) {
		err.Word = e.words[start]
	}
	return e.fatal(err), false
}

func (e *Evaluator) unterminated(start int) Result {
	return e.fatal(&EvalError{
		Kind:       ErrUnterminatedBlock,
		Message:    `block has no matching "}"`,
		Word:       planfmt.BlockStart,
		Index:      start,
		Suggestion: `close every "{" with a "}"`,
	})
}
