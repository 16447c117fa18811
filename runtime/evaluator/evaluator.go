// Package evaluator runs a tokenized plan word by word.
//
// Evaluation is recursive descent over a flat word slice: evaluating a word
// may evaluate the words after it to obtain arguments, conditions, repeat
// counts or block bodies. The cursor is an explicit index threaded through
// every call, and each call reports where the next unevaluated word is.
package evaluator

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/opal-lang/planwords/core/invariant"
	"github.com/opal-lang/planwords/core/planfmt"
	"github.com/opal-lang/planwords/core/value"
	"github.com/opal-lang/planwords/runtime/logging"
	"github.com/opal-lang/planwords/runtime/symbols"
)

// DefaultMaxDepth bounds how deeply word evaluations may nest.
const DefaultMaxDepth = 10000

// Resolver gives meaning to words that are neither keywords nor literals.
type Resolver interface {
	Resolve(word string) (value.Value, error)
}

// Config configures an Evaluator.
type Config struct {
	Output   io.Writer       // Receives one line per writeln (required)
	Logger   *logging.Logger // Log channel for the log keyword and errors (nil discards)
	Resolver Resolver        // Symbol resolution (nil uses symbols.Builtins)
	Debug    bool            // Trace every evaluated word at DEBUG
	MaxDepth int             // Nesting limit (0 uses DefaultMaxDepth)
}

// Stats counts the work done by an Evaluator.
type Stats struct {
	WordsEvaluated  int
	BlocksEvaluated int
	BlocksSkipped   int
	LoopIterations  int
	LinesWritten    int
	MaxDepth        int
}

// Evaluator holds the state of one plan run: the words, the cursor-independent
// output buffer and the counters. An Evaluator must not be used by more than
// one goroutine at a time; separate runs use separate Evaluators.
type Evaluator struct {
	words  []string
	config Config
	buffer strings.Builder
	depth  int
	stats  Stats
}

// New creates an evaluator for words.
func New(words []string, config Config) *Evaluator {
	invariant.NotNil(config.Output, "config.Output")

	if config.Logger == nil {
		config.Logger = logging.Discard()
	}
	if config.Resolver == nil {
		config.Resolver = symbols.Builtins()
	}
	if config.MaxDepth <= 0 {
		config.MaxDepth = DefaultMaxDepth
	}

	return &Evaluator{words: words, config: config}
}

// Run evaluates the whole plan from the first word. It stops at the end of
// the plan, on a halt or on a fatal error; the returned Result carries the
// status and, when stopped early, the error and the index where it stopped.
func (e *Evaluator) Run() Result {
	if e.config.Debug {
		e.config.Logger.Debug("Starting evaluation", "words", len(e.words))
	}

	cursor := 0
	for cursor < len(e.words) {
		r := e.Eval(cursor)
		if !r.OK() {
			if e.config.Debug {
				e.config.Logger.Debug("Exiting...", "status", r.Status.String(), "index", cursor)
			}
			r.Next = cursor
			r.Value = value.Null()
			return r
		}
		invariant.Invariant(r.Next > cursor, "cursor must advance (was %d, now %d)", cursor, r.Next)
		cursor = r.Next
	}

	invariant.Postcondition(cursor == len(e.words), "run must end exactly at the end of the plan")
	return ok(value.Null(), cursor)
}

// Buffer returns the text written by write and not yet flushed by writeln.
func (e *Evaluator) Buffer() string { return e.buffer.String() }

// Stats returns the counters collected so far.
func (e *Evaluator) Stats() Stats { return e.stats }

// Eval evaluates the word at cursor together with every word it consumes.
func (e *Evaluator) Eval(cursor int) Result {
	if cursor < 0 || cursor >= len(e.words) {
		return e.halt(&EvalError{
			Kind:       ErrUnexpectedEnd,
			Message:    "unexpected end of plan",
			Index:      cursor,
			Suggestion: "a keyword or callable at the end of the plan is missing its argument",
		})
	}

	e.depth++
	defer func() { e.depth-- }()
	if e.depth > e.stats.MaxDepth {
		e.stats.MaxDepth = e.depth
	}

	word := e.words[cursor]
	if e.depth > e.config.MaxDepth {
		return e.fatal(&EvalError{
			Kind:    ErrTooDeep,
			Message: fmt.Sprintf("evaluation nested deeper than %d words", e.config.MaxDepth),
			Word:    word,
			Index:   cursor,
		})
	}

	e.stats.WordsEvaluated++
	if e.config.Debug {
		e.config.Logger.Debug("word", "index", cursor, "word", word)
	}

	switch word {
	case planfmt.WordPass:
		return ok(value.Null(), cursor+1)
	case planfmt.WordEval:
		return e.evalEval(cursor)
	case planfmt.WordWrite, planfmt.WordWriteln:
		return e.evalWrite(cursor, word == planfmt.WordWriteln)
	case planfmt.WordLog:
		return e.evalLog(cursor)
	case planfmt.WordIf, planfmt.WordIfElse:
		return e.evalIf(cursor, word == planfmt.WordIfElse)
	case planfmt.WordTimes:
		return e.evalTimes(cursor)
	case planfmt.WordLen:
		return e.evalLen(cursor)
	default:
		return e.evalWord(cursor)
	}
}

func (e *Evaluator) evalEval(cursor int) Result {
	r := e.Eval(cursor + 1)
	if !r.OK() {
		return r
	}

	text, isString := r.Value.AsString()
	if !isString {
		return r
	}

	v, err := e.resolve(text)
	if err != nil {
		return e.halt(&EvalError{
			Kind:       ErrEvalFailed,
			Message:    fmt.Sprintf("cannot evaluate %q", text),
			Word:       e.words[cursor],
			Index:      cursor,
			Suggestion: suggestionFor(err),
			Err:        err,
		})
	}
	r.Value = v
	return r
}

func (e *Evaluator) evalWrite(cursor int, newline bool) Result {
	r := e.Eval(cursor + 1)
	if !r.OK() {
		return r
	}

	e.buffer.WriteString(r.Value.String())
	if !newline {
		return r
	}

	line := e.buffer.String()
	e.buffer.Reset()
	if _, err := fmt.Fprintln(e.config.Output, line); err != nil {
		return e.fatal(&EvalError{
			Kind:    ErrOutput,
			Message: "failed to write output line",
			Word:    e.words[cursor],
			Index:   cursor,
			Err:     err,
		})
	}
	e.stats.LinesWritten++
	return r
}

func (e *Evaluator) evalLog(cursor int) Result {
	r := e.Eval(cursor + 1)
	if !r.OK() {
		return r
	}
	e.config.Logger.Info(r.Value.String())
	return r
}

func (e *Evaluator) evalIf(cursor int, withElse bool) Result {
	cond := e.Eval(cursor + 1)
	if !cond.OK() {
		return cond
	}
	if e.config.Debug {
		e.config.Logger.Debug("condition", "index", cursor, "value", cond.Value.GoString())
	}

	taken, isBool := cond.Value.AsBool()
	if !isBool {
		return e.halt(&EvalError{
			Kind:       ErrNonBooleanCondition,
			Message:    fmt.Sprintf("condition must be a boolean value, got %s %s", cond.Value.Kind(), cond.Value.GoString()),
			Word:       e.words[cursor],
			Index:      cursor,
			Suggestion: "conditions must evaluate to true or false",
		})
	}

	if taken {
		r := e.EvaluateBlock(cond.Next)
		if !r.OK() || !withElse {
			return r
		}
		skipped := e.SkipBlock(r.Next)
		if !skipped.OK() {
			return skipped
		}
		r.Next = skipped.Next
		return r
	}

	skipped := e.SkipBlock(cond.Next)
	if !skipped.OK() || !withElse {
		return skipped
	}
	return e.EvaluateBlock(skipped.Next)
}

func (e *Evaluator) evalTimes(cursor int) Result {
	countResult := e.Eval(cursor + 1)
	if !countResult.OK() {
		return countResult
	}

	count, isInt := countResult.Value.AsInt()
	if !isInt {
		return e.fatal(&EvalError{
			Kind:       ErrTimesCount,
			Message:    fmt.Sprintf("times count must be an integer, got %s %s", countResult.Value.Kind(), countResult.Value.GoString()),
			Word:       e.words[cursor],
			Index:      cursor,
			Suggestion: "use a whole number: times 3 { ... }",
		})
	}

	blockStart := countResult.Next
	if blockStart >= len(e.words) || e.words[blockStart] != planfmt.BlockStart {
		return e.fatal(&EvalError{
			Kind:       ErrBlockStartExpected,
			Message:    "block start expected after times count",
			Word:       e.words[cursor],
			Index:      cursor,
			Suggestion: "follow the count with a block: times 3 { ... }",
		})
	}

	if count <= 0 {
		skipped := e.SkipBlock(blockStart)
		if !skipped.OK() {
			return skipped
		}
		return ok(countResult.Value, skipped.Next)
	}

	var last Result
	for i := 0; i < count; i++ {
		e.stats.LoopIterations++
		e.config.Logger.Verbose("times iteration", "index", cursor, "iteration", i)

		r := e.EvaluateBlock(blockStart)
		if !r.OK() {
			return r
		}
		invariant.InRange(r.Next, blockStart+2, len(e.words), "loop body end")
		invariant.Invariant(i == 0 || r.Next == last.Next, "loop body must end at the same index on every iteration")
		last = r
	}
	return last
}

func (e *Evaluator) evalLen(cursor int) Result {
	r := e.Eval(cursor + 1)
	if !r.OK() {
		return r
	}

	n, err := r.Value.Len()
	if err != nil {
		return e.fatal(&EvalError{
			Kind:    ErrLenType,
			Message: fmt.Sprintf("len is not defined for %s values", r.Value.Kind()),
			Word:    e.words[cursor],
			Index:   cursor,
			Err:     err,
		})
	}
	return ok(value.Number(float64(n)), r.Next)
}

// evalWord resolves a literal or symbol and applies it when it is callable.
func (e *Evaluator) evalWord(cursor int) Result {
	word := e.words[cursor]

	v, err := e.resolve(word)
	if err != nil {
		return e.halt(&EvalError{
			Kind:       ErrUnknownWord,
			Message:    "unknown word",
			Word:       word,
			Index:      cursor,
			Suggestion: suggestionFor(err),
			Err:        err,
		})
	}
	if e.config.Debug {
		e.config.Logger.Debug("evaluated word", "index", cursor, "value", v.GoString())
	}

	if v.Kind() != value.KindCallable {
		return ok(v, cursor+1)
	}

	arg := e.Eval(cursor + 1)
	if !arg.OK() {
		return arg
	}

	out, err := v.Call(arg.Value)
	if err != nil {
		return e.halt(&EvalError{
			Kind:    ErrCallFailed,
			Message: fmt.Sprintf("%s failed: %v", v.Name(), err),
			Word:    word,
			Index:   cursor,
			Err:     err,
		})
	}
	if e.config.Debug {
		e.config.Logger.Debug("evaluated call", "index", cursor, "value", out.GoString())
	}
	return ok(out, arg.Next)
}

// resolve applies literal rules before falling back to the resolver:
// quoted text is a string, numeric text is a number.
func (e *Evaluator) resolve(text string) (value.Value, error) {
	if planfmt.IsStringLiteral(text) {
		return value.String(planfmt.Unquote(text)), nil
	}
	if n, ok := value.ParseNumber(text); ok {
		return value.Number(n), nil
	}
	return e.config.Resolver.Resolve(text)
}

func (e *Evaluator) halt(err *EvalError) Result {
	invariant.Precondition(!err.Kind.Fatal(), "halt called with fatal error kind %s", err.Kind)
	e.logError(err)
	return Result{Status: StatusHalt, Err: err}
}

func (e *Evaluator) fatal(err *EvalError) Result {
	invariant.Precondition(err.Kind.Fatal(), "fatal called with soft error kind %s", err.Kind)
	e.logError(err)
	return Result{Status: StatusFatal, Err: err}
}

func (e *Evaluator) logError(err *EvalError) {
	args := []any{"kind", err.Kind.String(), "index", err.Index}
	if err.Word != "" {
		args = append(args, "word", err.Word)
	}
	if err.Err != nil {
		args = append(args, "cause", err.Err.Error())
	}
	e.config.Logger.Error(err.Message, args...)
}

func suggestionFor(err error) string {
	var unknown *symbols.UnknownSymbolError
	if errors.As(err, &unknown) && unknown.Suggestion != "" {
		return fmt.Sprintf("did you mean %q?", unknown.Suggestion)
	}
	return ""
}
