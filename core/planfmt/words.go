package planfmt

import "strings"

// Reserved words of the plan language.
const (
	WordPass    = "pass"
	WordEval    = "eval"
	WordWrite   = "write"
	WordWriteln = "writeln"
	WordLog     = "log"
	WordIf      = "if"
	WordIfElse  = "if-else"
	WordTimes   = "times"
	WordLen     = "len"

	BlockStart = "{"
	BlockEnd   = "}"
)

var keywords = map[string]bool{
	WordPass:    true,
	WordEval:    true,
	WordWrite:   true,
	WordWriteln: true,
	WordLog:     true,
	WordIf:      true,
	WordIfElse:  true,
	WordTimes:   true,
	WordLen:     true,
}

// IsKeyword reports whether word is dispatched by the evaluator itself
// rather than resolved as a literal or symbol. Block delimiters are not keywords.
func IsKeyword(word string) bool {
	return keywords[word]
}

// IsStringLiteral reports whether word is a double-quoted string token.
func IsStringLiteral(word string) bool {
	return len(word) >= 2 && strings.HasPrefix(word, `"`) && strings.HasSuffix(word, `"`)
}

// Unquote strips the surrounding quotes of a string literal token.
func Unquote(word string) string {
	return word[1 : len(word)-1]
}
