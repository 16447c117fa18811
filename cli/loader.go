package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// fetchTimeout bounds a remote plan download.
const fetchTimeout = 30 * time.Second

// maxPlanSize caps how much of a remote plan is read.
const maxPlanSize = 16 << 20

// loadPlan reads plan source. The 4 modes of input:
// 1. Explicit stdin with "-"
// 2. Piped input (auto-detected when no source is given)
// 3. Remote plan from an http:// or https:// URL
// 4. File input
func loadPlan(ctx context.Context, source string, stdin io.Reader) ([]byte, error) {
	// Mode 1: Explicit stdin
	if source == "-" {
		return readStdin(stdin)
	}

	// Mode 2: Piped input
	if source == "" {
		if hasPipedInput(stdin) {
			return readStdin(stdin)
		}
		return nil, &CLIError{
			Type:    "usage",
			Message: "no plan given",
			Hint:    "pass a plan file, a URL, or pipe the plan on stdin",
		}
	}

	// Mode 3: Remote plan
	if isURL(source) {
		return fetchPlan(ctx, source)
	}

	// Mode 4: File input
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, &CLIError{
			Type:    "load",
			Message: fmt.Sprintf("error opening file %s", source),
			Details: err.Error(),
			Err:     err,
		}
	}
	return data, nil
}

func readStdin(stdin io.Reader) ([]byte, error) {
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, &CLIError{Type: "load", Message: "error reading stdin", Details: err.Error(), Err: err}
	}
	return data, nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// fetchPlan downloads a plan over HTTP.
func fetchPlan(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &CLIError{Type: "load", Message: fmt.Sprintf("invalid plan URL %s", url), Details: err.Error(), Err: err}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, &CLIError{Type: "load", Message: fmt.Sprintf("error fetching %s", url), Details: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &CLIError{
			Type:    "load",
			Message: fmt.Sprintf("error fetching %s: %s", url, resp.Status),
			Hint:    "check that the URL serves the plan text",
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPlanSize+1))
	if err != nil {
		return nil, &CLIError{Type: "load", Message: fmt.Sprintf("error reading %s", url), Details: err.Error(), Err: err}
	}
	if len(data) > maxPlanSize {
		return nil, &CLIError{Type: "load", Message: fmt.Sprintf("plan at %s is larger than %d bytes", url, maxPlanSize)}
	}
	return data, nil
}

// hasPipedInput detects if there's data piped to stdin
func hasPipedInput(stdin io.Reader) bool {
	f, ok := stdin.(*os.File)
	if !ok {
		// Readers supplied by callers (tests, embedding) are always input
		return stdin != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}

	// Check if stdin is not a character device (i.e., it's piped)
	// Note: We don't check Size() > 0 because pipes may not report size correctly
	return (stat.Mode() & os.ModeCharDevice) == 0
}
