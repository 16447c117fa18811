package executor

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/opal-lang/planwords/core/invariant"
	"github.com/opal-lang/planwords/core/planfmt"
	"github.com/opal-lang/planwords/runtime/evaluator"
	"github.com/opal-lang/planwords/runtime/lexer"
	"github.com/opal-lang/planwords/runtime/logging"
)

// Config configures the executor
type Config struct {
	Output    io.Writer          // Plan output lines (nil uses os.Stdout)
	Logger    *logging.Logger    // Log channel (nil logs INFO and above to os.Stderr)
	Symbols   evaluator.Resolver // Symbol resolution (nil uses the builtin table)
	MaxDepth  int                // Evaluation nesting limit (0 uses the evaluator default)
	Debug     DebugLevel         // Debug tracing (development only)
	Telemetry TelemetryLevel     // Telemetry collection (production-safe)
}

// DebugLevel controls debug tracing (development only)
type DebugLevel int

const (
	DebugOff      DebugLevel = iota // No debug info (default)
	DebugPaths                      // Execution phase events
	DebugDetailed                   // Phase events plus per-line and per-word tracing at DEBUG
)

// TelemetryLevel controls telemetry collection (production-safe)
type TelemetryLevel int

const (
	TelemetryOff    TelemetryLevel = iota // Zero overhead (default)
	TelemetryBasic                        // Lexer and evaluator counters
	TelemetryTiming                       // Counters + parse and evaluation time
)

// ExecutionResult holds the result of plan execution
type ExecutionResult struct {
	Words          int                   // Words in the plan
	WordsEvaluated int                   // Word evaluations performed (loop bodies count once per iteration)
	LinesWritten   int                   // Lines emitted by writeln
	Digest         string                // Canonical plan digest
	Duration       time.Duration         // Total execution time
	Halted         bool                  // Stopped early by a soft abort
	HaltReason     *evaluator.EvalError  // Why the run halted (nil unless Halted)
	Pending        string                // Text written but never flushed by writeln
	Warnings       []string              // Lexer warnings
	Telemetry      *ExecutionTelemetry   // Additional metrics (nil if TelemetryOff)
	DebugEvents    []DebugEvent          // Debug events (nil if DebugOff)
}

// ExecutionTelemetry holds additional execution metrics (optional, production-safe)
type ExecutionTelemetry struct {
	Lexer     lexer.Stats
	Evaluator evaluator.Stats
	ParseTime time.Duration // Zero unless TelemetryTiming
	EvalTime  time.Duration // Zero unless TelemetryTiming
}

// DebugEvent represents a debug trace event
type DebugEvent struct {
	Timestamp time.Time
	Event     string // "enter_execute", "parsed", "evaluated", "exit_execute"
	Context   string // Additional context
}

// FatalError is returned when evaluation fails with a fatal error. Soft
// aborts are not errors: they are reported through ExecutionResult.Halted.
type FatalError struct {
	Err *evaluator.EvalError
}

func (e *FatalError) Error() string {
	return "plan execution failed: " + e.Err.Error()
}

func (e *FatalError) Unwrap() error { return e.Err }

// executor holds execution state
type executor struct {
	config      Config
	debugEvents []DebugEvent
	telemetry   *ExecutionTelemetry
	startTime   time.Time
}

// Execute parses plan text and evaluates it.
//
// On a fatal evaluation error Execute logs the failure and returns both the
// partial result and a *FatalError.
func Execute(text string, config Config) (*ExecutionResult, error) {
	e := newExecutor(config)
	e.config.Logger.Info("Executing plan")

	parseStart := time.Now()
	opts := []lexer.Option{lexer.WithLogger(e.config.Logger)}
	if config.Debug >= DebugDetailed {
		opts = append(opts, lexer.WithDebug())
	}
	if config.Telemetry != TelemetryOff {
		opts = append(opts, lexer.WithTelemetry())
	}
	parsed := lexer.ParseWithObservability(text, opts...)

	if e.telemetry != nil {
		e.telemetry.Lexer = *parsed.Stats
		if config.Telemetry == TelemetryTiming {
			e.telemetry.ParseTime = time.Since(parseStart)
		}
	}
	e.recordDebugEvent("parsed", fmt.Sprintf("bytes=%d, words=%d", len(text), len(parsed.Words)))

	result, err := e.execute(parsed.Words)
	result.Warnings = parsed.Warnings
	return result, err
}

// ExecuteWords evaluates an already tokenized plan, such as one decoded
// from its canonical encoding.
func ExecuteWords(words []string, config Config) (*ExecutionResult, error) {
	e := newExecutor(config)
	e.config.Logger.Info("Executing plan")
	return e.execute(words)
}

func newExecutor(config Config) *executor {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Logger == nil {
		config.Logger = logging.New(os.Stderr, logging.LevelInfo)
	}

	e := &executor{
		config:    config,
		startTime: time.Now(),
	}
	if config.Telemetry != TelemetryOff {
		e.telemetry = &ExecutionTelemetry{}
	}
	e.recordDebugEvent("enter_execute", "")
	return e
}

func (e *executor) execute(words []string) (*ExecutionResult, error) {
	digest, err := planfmt.Digest(words)
	invariant.ExpectNoError(err, "plan digest")
	e.config.Logger.Debug(fmt.Sprintf("Plan parsed into %d words", len(words)), "digest", digest)

	ev := evaluator.New(words, evaluator.Config{
		Output:   e.config.Output,
		Logger:   e.config.Logger,
		Resolver: e.config.Symbols,
		Debug:    e.config.Debug >= DebugDetailed,
		MaxDepth: e.config.MaxDepth,
	})

	evalStart := time.Now()
	outcome := ev.Run()
	stats := ev.Stats()

	if e.telemetry != nil {
		e.telemetry.Evaluator = stats
		if e.config.Telemetry == TelemetryTiming {
			e.telemetry.EvalTime = time.Since(evalStart)
		}
	}
	e.recordDebugEvent("evaluated", fmt.Sprintf("status=%s, words_evaluated=%d", outcome.Status, stats.WordsEvaluated))

	result := &ExecutionResult{
		Words:          len(words),
		WordsEvaluated: stats.WordsEvaluated,
		LinesWritten:   stats.LinesWritten,
		Digest:         digest,
		Pending:        ev.Buffer(),
		Telemetry:      e.telemetry,
	}
	if result.Pending != "" {
		e.config.Logger.Debug("Plan left unflushed output", "pending", result.Pending)
	}

	var runErr error
	switch outcome.Status {
	case evaluator.StatusContinue:
		e.config.Logger.Info("Plan execution completed successfully")
	case evaluator.StatusHalt:
		result.Halted = true
		result.HaltReason = outcome.Err
		e.config.Logger.Warn("Plan execution halted", "index", outcome.Next)
	case evaluator.StatusFatal:
		runErr = &FatalError{Err: outcome.Err}
		e.config.Logger.Error("Plan execution failed", "error", outcome.Err.Error())
	}

	result.Duration = time.Since(e.startTime)
	e.recordDebugEvent("exit_execute", fmt.Sprintf("status=%s, duration=%v", outcome.Status, result.Duration))
	result.DebugEvents = e.debugEvents

	// OUTPUT CONTRACT
	invariant.Postcondition(result.Halted == (result.HaltReason != nil), "halt reason must accompany a halt")
	invariant.Postcondition(result.WordsEvaluated >= 0, "words evaluated must be non-negative")

	return result, runErr
}

// recordDebugEvent records a debug event (only if debug enabled)
func (e *executor) recordDebugEvent(event string, context string) {
	if e.config.Debug == DebugOff {
		return
	}

	e.debugEvents = append(e.debugEvents, DebugEvent{
		Timestamp: time.Now(),
		Event:     event,
		Context:   context,
	})
}
