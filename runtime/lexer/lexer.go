// Package lexer turns raw plan text into the word sequence the evaluator runs.
//
// Lexing happens in two passes. Tokenize splits lines into whitespace
// separated tokens and strips "#" comments; AssembleStrings then merges
// quoted spans that the first pass split apart back into single
// string-literal words.
package lexer

import (
	"strings"

	"github.com/opal-lang/planwords/runtime/logging"
)

// CommentMarker starts a comment when it appears as a token of its own.
const CommentMarker = "#"

const quote = '"'

// Option configures Parse.
type Option func(*config)

type config struct {
	logger    *logging.Logger
	debug     bool
	telemetry bool
}

// WithLogger routes lexer warnings and debug tracing to logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithDebug traces every line and merged word at DEBUG.
func WithDebug() Option {
	return func(c *config) {
		c.debug = true
	}
}

// WithTelemetry collects Stats for the parse.
func WithTelemetry() Option {
	return func(c *config) {
		c.telemetry = true
	}
}

// Stats counts what the lexer saw (collected only WithTelemetry).
type Stats struct {
	Lines               int // Lines in the input, including blank ones
	BlankLines          int // Lines empty after trimming
	Comments            int // Lines truncated by a comment marker
	RawTokens           int // Tokens after the first pass
	Words               int // Words after string assembly
	Strings             int // String literals emitted
	UnterminatedStrings int // Strings still open at end of input (dropped)
}

// ParseResult holds the words of a plan and lexer observability data.
type ParseResult struct {
	Words    []string
	Stats    *Stats   // nil unless WithTelemetry
	Warnings []string // Recoverable oddities such as an unterminated string
}

// Parse lexes text into plan words.
func Parse(text string, opts ...Option) []string {
	return ParseWithObservability(text, opts...).Words
}

// ParseWithObservability lexes text and reports stats and warnings.
func ParseWithObservability(text string, opts ...Option) *ParseResult {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logging.Discard()
	}

	l := &lexer{config: cfg}
	if cfg.telemetry {
		l.stats = &Stats{}
	}

	if cfg.debug {
		l.logger.Debug("Starting plan parsing")
	}
	tokens := l.tokenize(text)
	words := l.assembleStrings(tokens)
	if cfg.debug {
		l.logger.Debug("Plan parsing complete", "words", len(words))
	}

	return &ParseResult{Words: words, Stats: l.stats, Warnings: l.warnings}
}

// Tokenize splits text into raw tokens, dropping blank lines and comments.
func Tokenize(text string) []string {
	l := &lexer{config: &config{logger: logging.Discard()}}
	return l.tokenize(text)
}

// AssembleStrings merges quoted spans of tokens into single words.
func AssembleStrings(tokens []string) []string {
	l := &lexer{config: &config{logger: logging.Discard()}}
	return l.assembleStrings(tokens)
}

type lexer struct {
	*config
	stats    *Stats
	warnings []string
}

func (l *lexer) tokenize(text string) []string {
	lines := strings.Split(text, "\n")
	if l.debug {
		l.logger.Debug("Parsing plan", "lines", len(lines))
	}

	var tokens []string
	for _, raw := range lines {
		if l.stats != nil {
			l.stats.Lines++
		}

		line := strings.TrimSpace(raw)
		if line == "" {
			if l.stats != nil {
				l.stats.BlankLines++
			}
			continue
		}

		fields := strings.Fields(line)
		for i, f := range fields {
			if f == CommentMarker {
				fields = fields[:i]
				if l.stats != nil {
					l.stats.Comments++
				}
				if l.debug {
					l.logger.Debug("Found comment in line", "line", line)
				}
				break
			}
		}

		if l.debug {
			l.logger.Debug("Parsed line", "line", line, "tokens", fields)
		}
		tokens = append(tokens, fields...)
	}

	if l.stats != nil {
		l.stats.RawTokens = len(tokens)
	}
	return tokens
}

func (l *lexer) assembleStrings(tokens []string) []string {
	words := make([]string, 0, len(tokens))

	inString := false
	var acc strings.Builder

	for _, tok := range tokens {
		// An empty token neither opens nor closes a string.
		opens := tok != "" && tok[0] == quote
		closes := tok != "" && tok[len(tok)-1] == quote

		switch {
		case opens && !inString:
			acc.Reset()
			acc.WriteString(tok)
			inString = true
			// A lone quote opens but cannot also close.
			if closes && len(tok) >= 2 {
				inString = false
				words = l.emitString(words, acc.String())
			}
		case inString && closes:
			acc.WriteByte(' ')
			acc.WriteString(tok)
			inString = false
			words = l.emitString(words, acc.String())
		case inString:
			acc.WriteByte(' ')
			acc.WriteString(tok)
		default:
			words = append(words, tok)
			if l.debug {
				l.logger.Debug("Normal word", "word", tok)
			}
		}
	}

	if inString {
		msg := "unterminated string dropped: " + acc.String()
		l.warnings = append(l.warnings, msg)
		l.logger.Warn(msg)
		if l.stats != nil {
			l.stats.UnterminatedStrings++
		}
	}

	if l.stats != nil {
		l.stats.Words = len(words)
	}
	return words
}

func (l *lexer) emitString(words []string, s string) []string {
	if l.stats != nil {
		l.stats.Strings++
	}
	if l.debug {
		l.logger.Debug("Complete string", "word", s)
	}
	return append(words, s)
}
