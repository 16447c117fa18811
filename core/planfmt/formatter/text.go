// Package formatter provides human-readable formatting for tokenized plans.
package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/opal-lang/planwords/core/planfmt"
	"github.com/opal-lang/planwords/core/value"
)

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
)

// Colorize wraps text in ANSI color codes if color is enabled
func Colorize(text, color string, useColor bool) string {
	if !useColor {
		return text
	}
	return color + text + ColorReset
}

// Format returns the words laid out one block level per line:
//
//	times 3 {
//	  writeln "x"
//	}
//
// Every "{" ends a line and every "}" sits on its own line.
func Format(words []string) string {
	var b strings.Builder
	FormatTree(&b, words, false)
	return b.String()
}

// FormatTree writes the block layout of Format to w, optionally colored.
func FormatTree(w io.Writer, words []string, useColor bool) {
	depth := 0
	var line []string

	flush := func() {
		if len(line) == 0 {
			return
		}
		_, _ = fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), strings.Join(line, " "))
		line = line[:0]
	}

	for _, word := range words {
		switch word {
		case planfmt.BlockStart:
			line = append(line, colorWord(word, useColor))
			flush()
			depth++
		case planfmt.BlockEnd:
			flush()
			if depth > 0 {
				depth--
			}
			line = append(line, colorWord(word, useColor))
			flush()
		default:
			line = append(line, colorWord(word, useColor))
		}
	}
	flush()
}

// FormatList writes one word per line prefixed by its index.
func FormatList(w io.Writer, words []string, useColor bool) {
	width := len(fmt.Sprint(len(words)))
	for i, word := range words {
		idx := fmt.Sprintf("%*d", width, i)
		_, _ = fmt.Fprintf(w, "%s  %s\n", Colorize(idx, ColorGray, useColor), colorWord(word, useColor))
	}
}

func colorWord(word string, useColor bool) string {
	switch {
	case planfmt.IsKeyword(word):
		return Colorize(word, ColorBlue, useColor)
	case word == planfmt.BlockStart || word == planfmt.BlockEnd:
		return Colorize(word, ColorGray, useColor)
	case planfmt.IsStringLiteral(word):
		return Colorize(word, ColorGreen, useColor)
	default:
		if _, ok := value.ParseNumber(word); ok {
			return Colorize(word, ColorCyan, useColor)
		}
		return word
	}
}
