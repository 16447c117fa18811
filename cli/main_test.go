package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opal-lang/planwords/core/planfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noEnv is a getenv that sees an empty environment.
func noEnv(string) string { return "" }

type invocation struct {
	stdout bytes.Buffer
	stderr bytes.Buffer
	code   int
}

func runCLI(t *testing.T, stdin string, args ...string) *invocation {
	t.Helper()
	t.Chdir(t.TempDir()) // keep a developer's .planwords.yaml out of the run

	inv := &invocation{}
	inv.code = run(context.Background(), args, strings.NewReader(stdin), &inv.stdout, &inv.stderr, noEnv)
	return inv
}

func writePlan(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.pw")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestRunFile(t *testing.T) {
	path := writePlan(t, "writeln \"hello\"\ntimes 2 { writeln len \"abcd\" }\n")

	inv := runCLI(t, "", "run", path)
	assert.Equal(t, 0, inv.code, inv.stderr.String())
	assert.Equal(t, "hello\n4\n4\n", inv.stdout.String())
	assert.Contains(t, inv.stderr.String(), "Executing plan")
}

func TestRunStdin(t *testing.T) {
	t.Run("explicit dash", func(t *testing.T) {
		inv := runCLI(t, `writeln "piped"`, "run", "-")
		assert.Equal(t, 0, inv.code)
		assert.Equal(t, "piped\n", inv.stdout.String())
	})

	t.Run("implicit", func(t *testing.T) {
		inv := runCLI(t, `writeln "piped"`, "run")
		assert.Equal(t, 0, inv.code)
		assert.Equal(t, "piped\n", inv.stdout.String())
	})
}

func TestRunExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		plan     string
		wantCode int
		wantOut  string
		wantErr  string
	}{
		{name: "success", plan: `writeln "ok"`, wantCode: 0, wantOut: "ok\n"},
		{name: "soft abort", plan: `writeln "a" if "yes" { pass } writeln "b"`, wantCode: 0, wantOut: "a\n", wantErr: "condition must be a boolean value"},
		{name: "unknown word", plan: `writeln lowr "X"`, wantCode: 0, wantErr: `did you mean \"lower\"?`},
		{name: "fatal times count", plan: `times 1.5 { pass }`, wantCode: 1, wantErr: "Error: times count must be an integer"},
		{name: "fatal len", plan: `writeln len 42`, wantCode: 1, wantErr: "Error: len is not defined for number values"},
		{name: "fatal unterminated block", plan: `if true { writeln "x"`, wantCode: 1, wantOut: "x\n", wantErr: "Error: block has no matching"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := runCLI(t, tt.plan, "run", "-")
			assert.Equal(t, tt.wantCode, inv.code, inv.stderr.String())
			assert.Equal(t, tt.wantOut, inv.stdout.String())
			if tt.wantErr != "" {
				assert.Contains(t, inv.stderr.String(), tt.wantErr)
			}
		})
	}
}

func TestRunFatalErrorFormatting(t *testing.T) {
	inv := runCLI(t, `times "three" { pass }`, "run", "-", "--no-color")
	require.Equal(t, 1, inv.code)

	stderr := inv.stderr.String()
	assert.Contains(t, stderr, "Error: times count must be an integer, got string \"three\"")
	assert.Contains(t, stderr, `Context: word 0: "times"`)
	assert.Contains(t, stderr, "use a whole number: times 3 { ... }")
	assert.NotContains(t, stderr, "\033[", "no ANSI codes when output is not a terminal")
}

func TestRunMissingFile(t *testing.T) {
	inv := runCLI(t, "", "run", filepath.Join(t.TempDir(), "missing.pw"))
	assert.Equal(t, 1, inv.code)
	assert.Contains(t, inv.stderr.String(), "error opening file")
}

func TestRunCompiled(t *testing.T) {
	encoded, err := planfmt.Encode([]string{"writeln", `"compiled"`})
	require.NoError(t, err)

	inv := runCLI(t, string(encoded), "run", "-", "--compiled")
	assert.Equal(t, 0, inv.code, inv.stderr.String())
	assert.Equal(t, "compiled\n", inv.stdout.String())

	inv = runCLI(t, `writeln "text"`, "run", "-", "--compiled")
	assert.Equal(t, 1, inv.code)
	assert.Contains(t, inv.stderr.String(), "invalid compiled plan")
}

func TestRunWatchNeedsFile(t *testing.T) {
	inv := runCLI(t, `pass`, "run", "-", "--watch")
	assert.Equal(t, 1, inv.code)
	assert.Contains(t, inv.stderr.String(), "--watch needs a plan file")
}

func TestRunLogLevels(t *testing.T) {
	t.Run("error hides info", func(t *testing.T) {
		inv := runCLI(t, `log "note"`, "run", "-", "--log-level", "error")
		assert.Equal(t, 0, inv.code)
		assert.NotContains(t, inv.stderr.String(), "note")
	})

	t.Run("log keyword at info", func(t *testing.T) {
		inv := runCLI(t, `log "note"`, "run", "-")
		assert.Equal(t, 0, inv.code)
		assert.Contains(t, inv.stderr.String(), "msg=note")
		assert.Empty(t, inv.stdout.String())
	})

	t.Run("debug traces words", func(t *testing.T) {
		inv := runCLI(t, `pass`, "run", "-", "--debug")
		assert.Equal(t, 0, inv.code)
		assert.Contains(t, inv.stderr.String(), "level=DEBUG")
		assert.Contains(t, inv.stderr.String(), "Starting evaluation")
	})

	t.Run("bad level", func(t *testing.T) {
		inv := runCLI(t, `pass`, "run", "-", "--log-level", "loud")
		assert.Equal(t, 1, inv.code)
		assert.Contains(t, inv.stderr.String(), `unknown log level "loud"`)
	})
}

func TestTokens(t *testing.T) {
	plan := "# comment\nwrite \"a b\" writeln 1\n"

	t.Run("text", func(t *testing.T) {
		inv := runCLI(t, plan, "tokens", "-")
		assert.Equal(t, 0, inv.code)
		assert.Equal(t, "0  write\n1  \"a b\"\n2  writeln\n3  1\n", inv.stdout.String())
	})

	t.Run("cbor", func(t *testing.T) {
		inv := runCLI(t, plan, "tokens", "-", "--format", "cbor")
		assert.Equal(t, 0, inv.code)

		words, err := planfmt.Decode(inv.stdout.Bytes())
		require.NoError(t, err)
		assert.Equal(t, []string{"write", `"a b"`, "writeln", "1"}, words)
	})

	t.Run("digest", func(t *testing.T) {
		inv := runCLI(t, plan, "tokens", "-", "--digest")
		assert.Equal(t, 0, inv.code)

		want, err := planfmt.Digest([]string{"write", `"a b"`, "writeln", "1"})
		require.NoError(t, err)
		assert.Equal(t, want+"\n", inv.stdout.String())
	})

	t.Run("unknown format", func(t *testing.T) {
		inv := runCLI(t, plan, "tokens", "-", "--format", "xml")
		assert.Equal(t, 1, inv.code)
		assert.Contains(t, inv.stderr.String(), `unknown format "xml"`)
	})
}

func TestSymbols(t *testing.T) {
	inv := runCLI(t, "", "symbols")
	assert.Equal(t, 0, inv.code)

	lines := strings.Split(strings.TrimSpace(inv.stdout.String()), "\n")
	assert.Contains(t, lines, "true     boolean")
	assert.Contains(t, lines, "upper    callable")
	assert.Contains(t, lines, "null     null")
}
