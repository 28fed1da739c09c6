package token

import (
	"unicode/utf8"
)

// twoCharPuncts are the multi-character operators emitted as one token.
// Order matters only within this table; longest match wins over single chars.
var twoCharPuncts = map[string]bool{
	"&&": true, "||": true, "::": true, "->": true,
	"==": true, "!=": true, "<=": true, ">=": true,
	"++": true, "--": true, "<<": true, ">>": true,
	"+=": true, "-=": true, "*=": true, "/=": true,
	"%=": true, "&=": true, "|=": true, "^=": true,
}

const singleCharPuncts = "{}()[];,.+-*/%=<>!&|^~?:"

type tokenizer struct {
	src       string
	pos       int
	line      int
	tokens    []Token
	anomalies []Anomaly
}

// Tokenize scans src and returns its token sequence together with any
// lexical anomalies encountered. It never fails: unrecognized characters
// become Unknown tokens, comments and whitespace are dropped, and
// preprocessor directives are consumed to end of line. Block comments do
// not nest; an inner "/*" does not deepen the comment.
func Tokenize(src string) ([]Token, []Anomaly) {
	t := &tokenizer{
		src:       src,
		line:      1,
		tokens:    make([]Token, 0, len(src)/8),
		anomalies: make([]Anomaly, 0),
	}
	t.run()
	return t.tokens, t.anomalies
}

func (t *tokenizer) run() {
	for t.pos < len(t.src) {
		c := t.src[t.pos]

		switch {
		case c == ' ' || c == '\t' || c == '\r':
			t.pos++

		case c == '\n':
			t.pos++
			t.line++

		case c == '/' && t.peek(1) == '/':
			t.skipLineComment()

		case c == '/' && t.peek(1) == '*':
			t.skipBlockComment()

		case c == '#':
			t.skipDirective()

		case c == '"':
			t.scanString('"')

		case c == '\'':
			t.scanString('\'')

		case isDigit(c):
			t.scanNumber()

		case isWordStart(c):
			t.scanWord()

		default:
			t.scanPunct()
		}
	}
}

func (t *tokenizer) peek(n int) byte {
	if t.pos+n < len(t.src) {
		return t.src[t.pos+n]
	}
	return 0
}

func (t *tokenizer) emit(kind Kind, start int) {
	t.tokens = append(t.tokens, Token{
		Kind:   kind,
		Text:   t.src[start:t.pos],
		Offset: start,
		Line:   t.line,
	})
}

func (t *tokenizer) skipLineComment() {
	for t.pos < len(t.src) && t.src[t.pos] != '\n' {
		t.pos++
	}
}

func (t *tokenizer) skipBlockComment() {
	start := t.pos
	startLine := t.line
	t.pos += 2
	for t.pos < len(t.src) {
		if t.src[t.pos] == '\n' {
			t.line++
			t.pos++
			continue
		}
		if t.src[t.pos] == '*' && t.peek(1) == '/' {
			t.pos += 2
			return
		}
		t.pos++
	}
	t.anomalies = append(t.anomalies, Anomaly{
		Offset:  start,
		Line:    startLine,
		Message: "unterminated block comment",
	})
}

// skipDirective consumes a preprocessor line, honoring backslash
// continuations. Directives carry no control flow the analyzer models.
func (t *tokenizer) skipDirective() {
	for t.pos < len(t.src) {
		if t.src[t.pos] == '\\' && t.peek(1) == '\n' {
			t.pos += 2
			t.line++
			continue
		}
		if t.src[t.pos] == '\n' {
			return
		}
		t.pos++
	}
}

// scanString consumes a string or character literal. Braces and parens
// inside the literal are absorbed so later brace matching never sees them.
// A literal left open at end of line is recorded as an anomaly.
func (t *tokenizer) scanString(quote byte) {
	start := t.pos
	t.pos++
	for t.pos < len(t.src) {
		c := t.src[t.pos]
		if c == '\\' && t.pos+1 < len(t.src) {
			t.pos += 2
			continue
		}
		if c == quote {
			t.pos++
			t.emit(Literal, start)
			return
		}
		if c == '\n' {
			break
		}
		t.pos++
	}
	t.emit(Literal, start)
	t.anomalies = append(t.anomalies, Anomaly{
		Offset:  start,
		Line:    t.line,
		Message: "unterminated literal",
	})
}

func (t *tokenizer) scanNumber() {
	start := t.pos
	for t.pos < len(t.src) {
		c := t.src[t.pos]
		if isDigit(c) || isWordStart(c) || c == '.' {
			t.pos++
			continue
		}
		// Exponent sign, as in 1.5e-3.
		if (c == '+' || c == '-') && t.pos > start {
			prev := t.src[t.pos-1]
			if prev == 'e' || prev == 'E' {
				t.pos++
				continue
			}
		}
		break
	}
	t.emit(Literal, start)
}

func (t *tokenizer) scanWord() {
	start := t.pos
	for t.pos < len(t.src) && (isWordStart(t.src[t.pos]) || isDigit(t.src[t.pos])) {
		t.pos++
	}
	if IsKeyword(t.src[start:t.pos]) {
		t.emit(Keyword, start)
	} else {
		t.emit(Identifier, start)
	}
}

func (t *tokenizer) scanPunct() {
	start := t.pos
	if t.pos+1 < len(t.src) && twoCharPuncts[t.src[t.pos:t.pos+2]] {
		t.pos += 2
		t.emit(Punct, start)
		return
	}
	c := t.src[t.pos]
	for i := 0; i < len(singleCharPuncts); i++ {
		if singleCharPuncts[i] == c {
			t.pos++
			t.emit(Punct, start)
			return
		}
	}

	// Not a character we recognize. Emit it as Unknown and keep going.
	_, size := utf8.DecodeRuneInString(t.src[t.pos:])
	t.pos += size
	t.emit(Unknown, start)
	t.anomalies = append(t.anomalies, Anomaly{
		Offset:  start,
		Line:    t.line,
		Message: "unrecognized character " + t.src[start:t.pos],
	})
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
