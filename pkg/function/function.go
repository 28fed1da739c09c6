// Package function locates function definitions in a C-family token
// sequence. It matches the lexical shape <type> <name> ( <params> ) { ... }
// at file scope and inside class-like scopes, tracking brace depth
// explicitly rather than parsing a grammar. Prototypes are skipped.
package function

import (
	"fmt"

	"github.com/l3aro/go-complexity/pkg/token"
)

// Unit is one extracted function definition. Body holds the tokens
// between the outer braces, exclusive. Index is the discovery order in
// the source; extraction errors share the same index space so reports
// can interleave them in source order.
type Unit struct {
	Name      string        // unqualified name
	Qualified string        // Scope::Name for members, Name otherwise
	Scope     string        // enclosing class-like scope, empty for free functions
	Params    []string      // parameter names in declaration order
	Body      []token.Token // body tokens, braces excluded
	StartLine int
	EndLine   int
	Index     int
	Source    string // full source text, for slicing statement spans
}

// ExtractionError reports a function-like fragment that could not be
// delimited. The surrounding scan continues past it.
type ExtractionError struct {
	Name   string // best-effort candidate name, may be empty
	Line   int
	Index  int
	Reason string
}

func (e *ExtractionError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("extraction failed at line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("extracting %s at line %d: %s", e.Name, e.Line, e.Reason)
}
