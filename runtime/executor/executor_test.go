package executor

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/opal-lang/planwords/core/planfmt"
	"github.com/opal-lang/planwords/core/value"
	"github.com/opal-lang/planwords/runtime/evaluator"
	"github.com/opal-lang/planwords/runtime/logging"
	"github.com/opal-lang/planwords/runtime/symbols"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietConfig(out *bytes.Buffer) Config {
	return Config{Output: out, Logger: logging.Discard()}
}

func TestExecuteSimplePlan(t *testing.T) {
	var out bytes.Buffer
	result, err := Execute(`writeln "Hello, World!"`, quietConfig(&out))
	require.NoError(t, err)

	assert.Equal(t, "Hello, World!\n", out.String())
	assert.Equal(t, 2, result.Words)
	assert.Equal(t, 2, result.WordsEvaluated)
	assert.Equal(t, 1, result.LinesWritten)
	assert.False(t, result.Halted)
	assert.Nil(t, result.HaltReason)
	assert.Empty(t, result.Pending)
	assert.True(t, strings.HasPrefix(result.Digest, planfmt.DigestPrefix))
	assert.GreaterOrEqual(t, result.Duration, time.Duration(0))
}

func TestExecuteMultiLinePlan(t *testing.T) {
	plan := `
# greet three times
times 3 {
  write "hi "
  writeln len "abc"
}
if-else false { writeln "no" } { writeln "done" }
`
	var out bytes.Buffer
	result, err := Execute(plan, quietConfig(&out))
	require.NoError(t, err)

	assert.Equal(t, "hi 3\nhi 3\nhi 3\ndone\n", out.String())
	assert.Equal(t, 4, result.LinesWritten)
}

func TestExecuteEmptyPlan(t *testing.T) {
	var out bytes.Buffer
	result, err := Execute("  \n# only a comment\n", quietConfig(&out))
	require.NoError(t, err)

	assert.Equal(t, 0, result.Words)
	assert.Equal(t, 0, result.WordsEvaluated)
	assert.Empty(t, out.String())
	assert.False(t, result.Halted)
}

func TestExecuteHaltIsNotAnError(t *testing.T) {
	var out bytes.Buffer
	result, err := Execute(`writeln "before" writeln uper "x" writeln "after"`, quietConfig(&out))
	require.NoError(t, err)

	assert.Equal(t, "before\n", out.String())
	assert.True(t, result.Halted)
	require.NotNil(t, result.HaltReason)
	assert.Equal(t, evaluator.ErrUnknownWord, result.HaltReason.Kind)
	assert.Equal(t, "uper", result.HaltReason.Word)
	assert.Contains(t, result.HaltReason.Suggestion, `"upper"`)
}

func TestExecuteFatalReturnsError(t *testing.T) {
	var out bytes.Buffer
	result, err := Execute(`writeln "before" times "x" { writeln "never" }`, quietConfig(&out))
	require.Error(t, err)

	var fatal *FatalError
	require.True(t, errors.As(err, &fatal))
	assert.Equal(t, evaluator.ErrTimesCount, fatal.Err.Kind)
	assert.True(t, strings.HasPrefix(err.Error(), "plan execution failed: "))

	var evalErr *evaluator.EvalError
	require.True(t, errors.As(err, &evalErr), "FatalError must unwrap to the evaluation error")

	require.NotNil(t, result, "partial result is returned alongside a fatal error")
	assert.False(t, result.Halted)
	assert.Equal(t, 1, result.LinesWritten)
	assert.Equal(t, "before\n", out.String())
}

func TestExecuteReportsPendingOutput(t *testing.T) {
	var out bytes.Buffer
	result, err := Execute(`writeln "line" write "tail"`, quietConfig(&out))
	require.NoError(t, err)

	assert.Equal(t, "line\n", out.String())
	assert.Equal(t, "tail", result.Pending)
}

func TestExecuteCollectsLexerWarnings(t *testing.T) {
	var out bytes.Buffer
	result, err := Execute(`writeln "open`, quietConfig(&out))
	require.NoError(t, err)

	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "unterminated string")
	// The unterminated string is dropped, leaving writeln without an argument.
	assert.True(t, result.Halted)
	assert.Equal(t, evaluator.ErrUnexpectedEnd, result.HaltReason.Kind)
}

func TestExecuteOutputFailureIsFatal(t *testing.T) {
	_, err := Execute(`writeln "x"`, Config{Output: failingWriter{}, Logger: logging.Discard()})
	require.Error(t, err)

	var fatal *FatalError
	require.True(t, errors.As(err, &fatal))
	assert.Equal(t, evaluator.ErrOutput, fatal.Err.Kind)
}

func TestExecuteCustomSymbols(t *testing.T) {
	table := symbols.Builtins()
	require.NoError(t, table.RegisterFunc("shout", func(arg value.Value) (value.Value, error) {
		return value.String(strings.ToUpper(arg.String()) + "!"), nil
	}))

	var out bytes.Buffer
	cfg := quietConfig(&out)
	cfg.Symbols = table
	_, err := Execute(`writeln shout "hey"`, cfg)
	require.NoError(t, err)

	assert.Equal(t, "HEY!\n", out.String())
}

func TestExecuteMaxDepth(t *testing.T) {
	var out bytes.Buffer
	cfg := quietConfig(&out)
	cfg.MaxDepth = 3
	_, err := Execute(`writeln upper upper upper "x"`, cfg)
	require.Error(t, err)

	var fatal *FatalError
	require.True(t, errors.As(err, &fatal))
	assert.Equal(t, evaluator.ErrTooDeep, fatal.Err.Kind)
}

func TestExecuteWordsMatchesExecute(t *testing.T) {
	text := `if true { writeln "yes" }`

	var textOut bytes.Buffer
	fromText, err := Execute(text, quietConfig(&textOut))
	require.NoError(t, err)

	encoded, err := planfmt.Encode([]string{"if", "true", "{", "writeln", `"yes"`, "}"})
	require.NoError(t, err)
	words, err := planfmt.Decode(encoded)
	require.NoError(t, err)

	var wordsOut bytes.Buffer
	fromWords, err := ExecuteWords(words, quietConfig(&wordsOut))
	require.NoError(t, err)

	assert.Equal(t, textOut.String(), wordsOut.String())
	assert.Equal(t, fromText.Digest, fromWords.Digest)
	assert.Equal(t, fromText.WordsEvaluated, fromWords.WordsEvaluated)
}

func TestExecuteRunsAreIsolated(t *testing.T) {
	var first, second bytes.Buffer
	r1, err := Execute(`write "left over"`, quietConfig(&first))
	require.NoError(t, err)
	assert.Equal(t, "left over", r1.Pending)

	r2, err := Execute(`writeln "fresh"`, quietConfig(&second))
	require.NoError(t, err)
	assert.Equal(t, "fresh\n", second.String())
	assert.Empty(t, r2.Pending)
}

func TestTelemetry(t *testing.T) {
	plan := `times 2 { writeln "a" }`

	t.Run("off", func(t *testing.T) {
		var out bytes.Buffer
		result, err := Execute(plan, quietConfig(&out))
		require.NoError(t, err)
		assert.Nil(t, result.Telemetry)
	})

	t.Run("basic", func(t *testing.T) {
		var out bytes.Buffer
		cfg := quietConfig(&out)
		cfg.Telemetry = TelemetryBasic
		result, err := Execute(plan, cfg)
		require.NoError(t, err)

		require.NotNil(t, result.Telemetry)
		assert.Equal(t, 6, result.Telemetry.Lexer.Words)
		assert.Equal(t, 1, result.Telemetry.Lexer.Strings)
		assert.Equal(t, 2, result.Telemetry.Evaluator.LoopIterations)
		assert.Equal(t, 2, result.Telemetry.Evaluator.LinesWritten)
		assert.Zero(t, result.Telemetry.ParseTime)
		assert.Zero(t, result.Telemetry.EvalTime)
	})

	t.Run("timing", func(t *testing.T) {
		var out bytes.Buffer
		cfg := quietConfig(&out)
		cfg.Telemetry = TelemetryTiming
		result, err := Execute(plan, cfg)
		require.NoError(t, err)

		require.NotNil(t, result.Telemetry)
		assert.GreaterOrEqual(t, result.Telemetry.EvalTime, time.Duration(0))
	})
}

func TestDebugEvents(t *testing.T) {
	t.Run("off", func(t *testing.T) {
		var out bytes.Buffer
		result, err := Execute(`pass`, quietConfig(&out))
		require.NoError(t, err)
		assert.Nil(t, result.DebugEvents)
	})

	t.Run("paths", func(t *testing.T) {
		var out bytes.Buffer
		cfg := quietConfig(&out)
		cfg.Debug = DebugPaths
		result, err := Execute(`pass`, cfg)
		require.NoError(t, err)

		var events []string
		for _, e := range result.DebugEvents {
			events = append(events, e.Event)
		}
		assert.Equal(t, []string{"enter_execute", "parsed", "evaluated", "exit_execute"}, events)
	})
}

func TestExecuteLogging(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var out, logs bytes.Buffer
		_, err := Execute(`log "from plan"`, Config{Output: &out, Logger: logging.New(&logs, logging.LevelInfo)})
		require.NoError(t, err)

		assert.Contains(t, logs.String(), "Executing plan")
		assert.Contains(t, logs.String(), "from plan")
		assert.Contains(t, logs.String(), "Plan execution completed successfully")
		assert.Empty(t, out.String(), "log must not reach plan output")
	})

	t.Run("halt", func(t *testing.T) {
		var out, logs bytes.Buffer
		_, err := Execute(`if 1 { pass }`, Config{Output: &out, Logger: logging.New(&logs, logging.LevelInfo)})
		require.NoError(t, err)

		assert.Contains(t, logs.String(), "level=WARN")
		assert.Contains(t, logs.String(), "Plan execution halted")
	})

	t.Run("fatal", func(t *testing.T) {
		var out, logs bytes.Buffer
		_, err := Execute(`len 5`, Config{Output: &out, Logger: logging.New(&logs, logging.LevelInfo)})
		require.Error(t, err)

		assert.Contains(t, logs.String(), "Plan execution failed")
	})

	t.Run("detailed debug traces words", func(t *testing.T) {
		var out, logs bytes.Buffer
		cfg := Config{Output: &out, Logger: logging.New(&logs, logging.LevelDebug), Debug: DebugDetailed}
		_, err := Execute(`writeln "x"`, cfg)
		require.NoError(t, err)

		assert.Contains(t, logs.String(), "Starting plan parsing")
		assert.Contains(t, logs.String(), "Starting evaluation")
		assert.Contains(t, logs.String(), "Plan parsed into 2 words")
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}
