// Package symbols resolves plan words that are neither keywords nor literals.
//
// Resolution only consults an explicit registry of names. Nothing a plan
// contains is ever compiled or executed as host code, so a plan can reach
// exactly the values and callables its host registered.
package symbols

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/opal-lang/planwords/core/planfmt"
	"github.com/opal-lang/planwords/core/value"
)

// UnknownSymbolError reports a word with no registered meaning.
type UnknownSymbolError struct {
	Word       string
	Suggestion string // Closest registered name, if any
}

func (e *UnknownSymbolError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown word %q (did you mean %q?)", e.Word, e.Suggestion)
	}
	return fmt.Sprintf("unknown word %q", e.Word)
}

// Table maps words to values. It is safe for concurrent use.
type Table struct {
	mu      sync.RWMutex
	entries map[string]value.Value
}

// New returns an empty table.
func New() *Table {
	return &Table{entries: make(map[string]value.Value)}
}

// Register binds name to v, replacing any previous binding.
// Names must be single non-empty words that the evaluator would not
// handle itself.
func (t *Table) Register(name string, v value.Value) error {
	switch {
	case name == "":
		return fmt.Errorf("symbol name must not be empty")
	case strings.ContainsAny(name, " \t\r\n"):
		return fmt.Errorf("symbol name %q must not contain whitespace", name)
	case planfmt.IsKeyword(name), name == planfmt.BlockStart, name == planfmt.BlockEnd:
		return fmt.Errorf("symbol name %q is reserved", name)
	case planfmt.IsStringLiteral(name) || strings.HasPrefix(name, `"`):
		return fmt.Errorf("symbol name %q would be read as a string literal", name)
	}
	if _, ok := value.ParseNumber(name); ok {
		return fmt.Errorf("symbol name %q would be read as a number", name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[name] = v
	return nil
}

// RegisterFunc binds name to a callable.
func (t *Table) RegisterFunc(name string, fn value.Func) error {
	return t.Register(name, value.Callable(name, fn))
}

// Resolve looks up word.
func (t *Table) Resolve(word string) (value.Value, error) {
	t.mu.RLock()
	v, ok := t.entries[word]
	t.mu.RUnlock()
	if !ok {
		return value.Null(), &UnknownSymbolError{Word: word, Suggestion: t.Suggest(word)}
	}
	return v, nil
}

// Names returns the registered names in sorted order.
func (t *Table) Names() []string {
	t.mu.RLock()
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	t.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Suggest returns the registered name closest to word, or "" if none is close.
func (t *Table) Suggest(word string) string {
	return findClosestMatch(word, t.Names())
}

// findClosestMatch finds the closest string match using fuzzy matching
func findClosestMatch(target string, candidates []string) string {
	if len(candidates) == 0 || target == "" {
		return ""
	}

	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) == 0 {
		return ""
	}
	sort.Stable(ranks)
	return ranks[0].Target
}
