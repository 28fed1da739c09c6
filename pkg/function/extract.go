package function

import (
	"github.com/l3aro/go-complexity/pkg/token"
)

type extractor struct {
	src   string
	toks  []token.Token
	pos   int
	index int
	units []Unit
	errs  []*ExtractionError
}

// Extract scans a token sequence for function definitions. Both results
// share one discovery-order index space: a malformed fragment consumes an
// index and the scan continues, so no candidate is ever silently dropped.
func Extract(src string, toks []token.Token) ([]Unit, []*ExtractionError) {
	e := &extractor{
		src:   src,
		toks:  toks,
		units: make([]Unit, 0),
		errs:  make([]*ExtractionError, 0),
	}
	e.scanScope("", false)
	return e.units, e.errs
}

// scanScope walks tokens at one brace level. nested scopes end at their
// closing brace; the file scope ends at EOF. Class-like definitions
// recurse with their name as the member scope, other braces recurse
// transparently.
func (e *extractor) scanScope(scope string, nested bool) {
	for e.pos < len(e.toks) {
		t := e.toks[e.pos]

		switch {
		case t.Text == "}":
			e.pos++
			if nested {
				return
			}

		case t.Kind == token.Keyword && (t.Text == "class" || t.Text == "struct" || t.Text == "union"):
			e.scanClassLike(scope)

		case t.Kind == token.Keyword && t.Text == "namespace":
			e.scanNamespace(scope)

		case t.Kind == token.Identifier && e.peekText(1) == "(":
			e.tryFunction(scope)

		case t.Text == "{":
			e.pos++
			e.scanScope(scope, true)

		default:
			e.pos++
		}
	}
}

func (e *extractor) peekText(n int) string {
	if e.pos+n < len(e.toks) {
		return e.toks[e.pos+n].Text
	}
	return ""
}

// scanClassLike handles class/struct/union. Only an immediate body (or an
// inheritance clause followed by a body) opens a member scope; any other
// continuation is the keyword used as a type, which the normal scan
// resumes over.
func (e *extractor) scanClassLike(scope string) {
	kw := e.pos
	e.pos++
	if e.pos >= len(e.toks) {
		return
	}

	name := ""
	if e.toks[e.pos].Kind == token.Identifier {
		name = e.toks[e.pos].Text
		e.pos++
	}
	if e.pos >= len(e.toks) {
		return
	}

	switch e.toks[e.pos].Text {
	case "{":
		e.pos++
		e.scanScope(name, true)
	case ":":
		// Inheritance clause. Consume to the body.
		for e.pos < len(e.toks) && e.toks[e.pos].Text != "{" && e.toks[e.pos].Text != ";" {
			e.pos++
		}
		if e.pos < len(e.toks) && e.toks[e.pos].Text == "{" {
			e.pos++
			e.scanScope(name, true)
		}
	default:
		// Used as a type, e.g. "struct Point* make_point(...)".
		e.pos = kw + 1
	}
}

func (e *extractor) scanNamespace(scope string) {
	e.pos++
	if e.pos < len(e.toks) && e.toks[e.pos].Kind == token.Identifier {
		e.pos++
	}
	if e.pos < len(e.toks) && e.toks[e.pos].Text == "{" {
		e.pos++
		// Namespaces do not qualify names here; members stay free functions.
		e.scanScope(scope, true)
	}
}

// tryFunction is called with the cursor on an identifier directly
// followed by "(". It either extracts a Unit, records an ExtractionError,
// skips a prototype, or decides the tokens are not a function at all.
func (e *extractor) tryFunction(scope string) {
	nameIdx := e.pos
	name := e.toks[nameIdx].Text
	startLine := e.toks[nameIdx].Line

	if nameIdx > 0 && e.toks[nameIdx-1].Text == "~" {
		name = "~" + name
	}

	memberScope := scope
	if memberScope == "" && nameIdx >= 2 &&
		e.toks[nameIdx-1].Text == "::" && e.toks[nameIdx-2].Kind == token.Identifier {
		memberScope = e.toks[nameIdx-2].Text
	}

	// Parameter list, parens tracked explicitly.
	i := nameIdx + 2
	depth := 1
	closeIdx := -1
	for i < len(e.toks) {
		switch e.toks[i].Text {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				closeIdx = i
			}
		case "{", ";":
			// A statement boundary inside an open parameter list.
			e.fail(name, startLine, "unbalanced parameter list")
			if e.toks[i].Text == "{" {
				e.skipBraces(i)
			} else {
				e.pos = i + 1
			}
			return
		}
		if closeIdx >= 0 {
			break
		}
		i++
	}
	if closeIdx < 0 {
		e.fail(name, startLine, "unexpected end of input in parameter list")
		e.pos = len(e.toks)
		return
	}

	// Find the body brace, allowing trailing words such as const or
	// noexcept and a constructor initializer list.
	j := closeIdx + 1
	for j < len(e.toks) && (e.toks[j].Kind == token.Identifier || e.toks[j].Kind == token.Keyword) {
		j++
	}
	if j >= len(e.toks) {
		e.pos = len(e.toks)
		return
	}

	switch e.toks[j].Text {
	case "{":
	case ";":
		// Prototype, no body to analyze.
		e.pos = j + 1
		return
	case "=":
		// Pure virtual or defaulted declaration.
		for j < len(e.toks) && e.toks[j].Text != ";" {
			j++
		}
		e.pos = j + 1
		return
	case ":":
		parens := 0
		for j < len(e.toks) {
			switch e.toks[j].Text {
			case "(":
				parens++
			case ")":
				parens--
			case "{":
				if parens == 0 {
					goto bodyFound
				}
			case ";":
				if parens == 0 {
					e.pos = j + 1
					return
				}
			}
			j++
		}
		e.fail(name, startLine, "unexpected end of input in initializer list")
		e.pos = len(e.toks)
		return
	default:
		// Not a definition. Resume right after the parameter list.
		e.pos = closeIdx + 1
		return
	}

bodyFound:
	braceDepth := 1
	k := j + 1
	for k < len(e.toks) {
		switch e.toks[k].Text {
		case "{":
			braceDepth++
		case "}":
			braceDepth--
		}
		if braceDepth == 0 {
			break
		}
		k++
	}
	if braceDepth != 0 {
		e.fail(name, startLine, "unterminated function body")
		e.pos = len(e.toks)
		return
	}

	qualified := name
	if memberScope != "" {
		qualified = memberScope + "::" + name
	}

	e.units = append(e.units, Unit{
		Name:      name,
		Qualified: qualified,
		Scope:     memberScope,
		Params:    paramNames(e.toks[nameIdx+2 : closeIdx]),
		Body:      e.toks[j+1 : k],
		StartLine: startLine,
		EndLine:   e.toks[k].Line,
		Index:     e.index,
		Source:    e.src,
	})
	e.index++
	e.pos = k + 1
}

func (e *extractor) fail(name string, line int, reason string) {
	e.errs = append(e.errs, &ExtractionError{
		Name:   name,
		Line:   line,
		Index:  e.index,
		Reason: reason,
	})
	e.index++
}

// skipBraces resynchronizes past a brace block starting at openIdx.
func (e *extractor) skipBraces(openIdx int) {
	depth := 0
	i := openIdx
	for i < len(e.toks) {
		switch e.toks[i].Text {
		case "{":
			depth++
		case "}":
			depth--
			if depth == 0 {
				e.pos = i + 1
				return
			}
		}
		i++
	}
	e.pos = len(e.toks)
}

// paramNames pulls the declared name out of each comma-separated
// parameter: the last identifier of the segment. Types, qualifiers, and
// a bare void contribute nothing.
func paramNames(toks []token.Token) []string {
	names := make([]string, 0, 4)
	depth := 0
	last := ""
	for _, t := range toks {
		switch t.Text {
		case "(", "[":
			depth++
		case ")", "]":
			depth--
		case ",":
			if depth == 0 {
				if last != "" {
					names = append(names, last)
				}
				last = ""
				continue
			}
		}
		if t.Kind == token.Identifier {
			last = t.Text
		}
	}
	if last != "" {
		names = append(names, last)
	}
	return names
}
