// Package token turns C-family source text into a flat token sequence.
// It recognizes just enough lexical structure for control-flow recovery:
// keywords, identifiers, punctuation, and literals. Comments and whitespace
// are consumed but not emitted. The tokenizer never fails; characters it
// cannot classify become Unknown tokens and are reported as anomalies.
package token

// Kind classifies a token.
type Kind string

const (
	Keyword    Kind = "keyword"    // Control and declaration keywords
	Identifier Kind = "identifier" // Names
	Punct      Kind = "punct"      // Operators, braces, separators
	Literal    Kind = "literal"    // Numeric, string, and char literals
	Unknown    Kind = "unknown"    // Unrecognized characters
)

// Token is a single lexical unit. Offset is the byte position of the
// token's first character in the original source; Line is 1-based.
type Token struct {
	Kind   Kind   `json:"kind"`
	Text   string `json:"text"`
	Offset int    `json:"offset"`
	Line   int    `json:"line"`
}

// Anomaly records a character the tokenizer could not classify or a
// literal that was never closed. Anomalies never stop tokenization.
type Anomaly struct {
	Offset  int    `json:"offset"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// keywords is the C-family keyword set the analyzer cares about.
// Everything alphanumeric outside this set is an identifier.
var keywords = map[string]bool{
	"if":        true,
	"else":      true,
	"for":       true,
	"while":     true,
	"do":        true,
	"switch":    true,
	"case":      true,
	"default":   true,
	"return":    true,
	"break":     true,
	"continue":  true,
	"goto":      true,
	"class":     true,
	"struct":    true,
	"enum":      true,
	"union":     true,
	"namespace": true,
	"public":    true,
	"private":   true,
	"protected": true,
	"const":     true,
	"static":    true,
	"inline":    true,
	"void":      true,
	"int":       true,
	"long":      true,
	"short":     true,
	"char":      true,
	"float":     true,
	"double":    true,
	"unsigned":  true,
	"signed":    true,
	"bool":      true,
	"sizeof":    true,
	"typedef":   true,
	"extern":    true,
	"volatile":  true,
	"noexcept":  true,
	"override":  true,
	"virtual":   true,
}

// IsKeyword reports whether word is in the recognized keyword set.
func IsKeyword(word string) bool {
	return keywords[word]
}
