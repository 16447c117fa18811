package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/opal-lang/planwords/runtime/evaluator"
)

// CLIError represents a formatted CLI error with context
type CLIError struct {
	Type    string // "config", "load", "usage"
	Message string
	Details string // Additional context
	Hint    string // How to fix it
	Err     error  // Underlying cause
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Details != "" {
		b.WriteString("\n")
		b.WriteString(e.Details)
	}
	if e.Hint != "" {
		b.WriteString("\n")
		b.WriteString(e.Hint)
	}
	return b.String()
}

func (e *CLIError) Unwrap() error { return e.Err }

// FormatError formats an error for CLI output with colors
func FormatError(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}

	var cliErr *CLIError
	var evalErr *evaluator.EvalError
	switch {
	case errors.As(err, &cliErr):
		formatCLIError(w, cliErr, useColor)
	case errors.As(err, &evalErr):
		formatEvalError(w, evalErr, useColor)
	default:
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Error())
	}
}

// formatEvalError formats evaluation failures with the offending word
func formatEvalError(w io.Writer, err *evaluator.EvalError, useColor bool) {
	_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Message)

	context := fmt.Sprintf("word %d", err.Index)
	if err.Word != "" {
		context += fmt.Sprintf(": %q", err.Word)
	}
	_, _ = fmt.Fprintf(w, "  %s\n", Colorize("Context: "+context, ColorGray, useColor))

	if err.Err != nil {
		_, _ = fmt.Fprintf(w, "  %s\n", Colorize("Cause: "+err.Err.Error(), ColorGray, useColor))
	}

	if err.Suggestion != "" {
		_, _ = fmt.Fprintf(w, "  %s\n", Colorize(err.Suggestion, ColorYellow, useColor))
	}
}

// formatCLIError formats CLI errors
func formatCLIError(w io.Writer, err *CLIError, useColor bool) {
	_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Message)

	if err.Details != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", err.Details)
	}

	if err.Hint != "" {
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Hint: ", ColorYellow, useColor), err.Hint)
	}
}
