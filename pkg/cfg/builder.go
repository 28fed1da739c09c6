package cfg

import (
	"fmt"

	"github.com/l3aro/go-complexity/pkg/function"
	"github.com/l3aro/go-complexity/pkg/token"
)

type builder struct {
	unit *function.Unit
	toks []token.Token
	pos  int

	blocks    []*Block
	byID      map[string]*Block
	edges     []Edge
	blockID   int
	cur       *Block
	entry     *Block
	terminals []string

	maxDepth      int
	recursive     bool
	shortCircuits int

	breakTargets    []string
	continueTargets []string
}

// Build constructs the control flow graph for one extracted function.
// It makes a single pass over the body tokens, threading the nesting
// depth through the traversal. The graph it returns has the entry block
// first and exactly one exit block; every return block feeds the exit.
func Build(unit *function.Unit) (*Graph, error) {
	b := &builder{
		unit: unit,
		toks: unit.Body,
		byID: make(map[string]*Block),
	}

	b.entry = b.newBlock(BlockTypeEntry, unit.StartLine)
	b.entry.Statements = append(b.entry.Statements, "entry")
	b.cur = b.entry

	for b.pos < len(b.toks) {
		if b.toks[b.pos].Text == "}" {
			return nil, b.malformed("unbalanced braces")
		}
		if err := b.parseStatement(0); err != nil {
			return nil, err
		}
	}

	exit := b.newBlock(BlockTypeExit, unit.EndLine)
	exit.Statements = append(exit.Statements, "exit")
	exit.Terminal = true

	if b.cur != nil {
		// Control reached the end of the body: implicit return.
		b.addEdge(b.cur.ID, exit.ID, EdgeTypeFallthrough)
	}
	for _, id := range b.terminals {
		b.addEdge(id, exit.ID, EdgeTypeFallthrough)
	}

	for _, e := range b.edges {
		if tgt, ok := b.byID[e.TargetID]; ok {
			tgt.Predecessors = append(tgt.Predecessors, e.SourceID)
		}
	}

	blocks := make([]Block, len(b.blocks))
	for i, blk := range b.blocks {
		blocks[i] = *blk
	}

	return &Graph{
		FunctionName:  unit.Qualified,
		Blocks:        blocks,
		Edges:         b.edges,
		EntryID:       b.entry.ID,
		ExitID:        exit.ID,
		MaxDepth:      b.maxDepth,
		Recursive:     b.recursive,
		ShortCircuits: b.shortCircuits,
	}, nil
}

func (b *builder) parseStatement(depth int) error {
	t := b.toks[b.pos]

	if t.Kind == token.Keyword {
		switch t.Text {
		case "if":
			return b.parseIf(depth)
		case "while":
			return b.parseWhile(depth)
		case "for":
			return b.parseFor(depth)
		case "do":
			return b.parseDoWhile(depth)
		case "switch":
			return b.parseSwitch(depth)
		case "return":
			return b.parseReturn()
		case "break":
			return b.parseBreak()
		case "continue":
			return b.parseContinue()
		case "else":
			return b.malformed("else without matching if")
		}
	}

	if t.Text == "{" {
		b.pos++
		return b.parseBraced(depth)
	}

	return b.parsePlain()
}

// parseBraced parses statements up to and including the closing brace.
func (b *builder) parseBraced(depth int) error {
	for b.pos < len(b.toks) {
		if b.toks[b.pos].Text == "}" {
			b.pos++
			return nil
		}
		if err := b.parseStatement(depth); err != nil {
			return err
		}
	}
	return b.malformed("unbalanced braces")
}

// parseArm parses one branch arm, braced or a single statement, into
// entry. It returns the live end block, or nil when the arm terminated.
func (b *builder) parseArm(entry *Block, depth int) (*Block, error) {
	b.cur = entry
	if b.pos >= len(b.toks) {
		return nil, b.malformed("unexpected end of body in branch")
	}
	if b.toks[b.pos].Text == "{" {
		b.pos++
		if err := b.parseBraced(depth); err != nil {
			return nil, err
		}
		return b.cur, nil
	}
	if err := b.parseStatement(depth); err != nil {
		return nil, err
	}
	return b.cur, nil
}

func (b *builder) parseIf(depth int) error {
	line := b.toks[b.pos].Line
	b.pos++
	cond, selfCall, err := b.parseCondition("if", false)
	if err != nil {
		return err
	}

	depthHere := depth + 1
	if depthHere > b.maxDepth {
		b.maxDepth = depthHere
	}

	condBlock := b.newBlock(BlockTypeBranch, line)
	condBlock.Statements = append(condBlock.Statements, "if ("+cond+")")
	b.link(condBlock)
	if selfCall {
		b.markRecursive(condBlock)
	}

	thenEntry := b.newBlock(BlockTypePlain, b.lineAt())
	b.addEdge(condBlock.ID, thenEntry.ID, EdgeTypeTrue)
	thenEnd, err := b.parseArm(thenEntry, depthHere)
	if err != nil {
		return err
	}

	if b.pos < len(b.toks) && b.toks[b.pos].Kind == token.Keyword && b.toks[b.pos].Text == "else" {
		b.pos++
		elseEntry := b.newBlock(BlockTypePlain, b.lineAt())
		b.addEdge(condBlock.ID, elseEntry.ID, EdgeTypeFalse)

		armDepth := depthHere
		if b.pos < len(b.toks) && b.toks[b.pos].Text == "if" {
			// An else-if chains at the same level rather than nesting.
			armDepth = depth
		}
		elseEnd, err := b.parseArm(elseEntry, armDepth)
		if err != nil {
			return err
		}

		if thenEnd == nil && elseEnd == nil {
			// Both arms returned; control never converges, so there is
			// no merge block to leave unreachable.
			b.cur = nil
			return nil
		}
		merge := b.newBlock(BlockTypeMerge, b.lineAt())
		if thenEnd != nil {
			b.addEdge(thenEnd.ID, merge.ID, EdgeTypeFallthrough)
		}
		if elseEnd != nil {
			b.addEdge(elseEnd.ID, merge.ID, EdgeTypeFallthrough)
		}
		b.cur = merge
		return nil
	}

	// No else: the false edge goes directly to the merge block.
	merge := b.newBlock(BlockTypeMerge, b.lineAt())
	b.addEdge(condBlock.ID, merge.ID, EdgeTypeFalse)
	if thenEnd != nil {
		b.addEdge(thenEnd.ID, merge.ID, EdgeTypeFallthrough)
	}
	b.cur = merge
	return nil
}

func (b *builder) parseWhile(depth int) error {
	line := b.toks[b.pos].Line
	b.pos++
	cond, selfCall, err := b.parseCondition("while", false)
	if err != nil {
		return err
	}

	depthHere := depth + 1
	if depthHere > b.maxDepth {
		b.maxDepth = depthHere
	}

	header := b.newBlock(BlockTypeBranch, line)
	header.Statements = append(header.Statements, "while ("+cond+")")
	b.link(header)
	if selfCall {
		b.markRecursive(header)
	}

	body := b.newBlock(BlockTypeLoopBody, b.lineAt())
	b.addEdge(header.ID, body.ID, EdgeTypeTrue)
	after := b.newBlock(BlockTypeMerge, b.lineAt())
	b.addEdge(header.ID, after.ID, EdgeTypeFalse)

	b.pushLoop(header.ID, after.ID)
	bodyEnd, err := b.parseArm(body, depthHere)
	b.popLoop()
	if err != nil {
		return err
	}

	if bodyEnd != nil {
		b.addEdge(bodyEnd.ID, header.ID, EdgeTypeBack)
	}
	b.cur = after
	return nil
}

func (b *builder) parseFor(depth int) error {
	line := b.toks[b.pos].Line
	b.pos++
	headerText, selfCall, err := b.parseCondition("for", true)
	if err != nil {
		return err
	}

	depthHere := depth + 1
	if depthHere > b.maxDepth {
		b.maxDepth = depthHere
	}

	header := b.newBlock(BlockTypeBranch, line)
	header.Statements = append(header.Statements, "for ("+headerText+")")
	b.link(header)
	if selfCall {
		b.markRecursive(header)
	}

	body := b.newBlock(BlockTypeLoopBody, b.lineAt())
	b.addEdge(header.ID, body.ID, EdgeTypeTrue)
	after := b.newBlock(BlockTypeMerge, b.lineAt())
	b.addEdge(header.ID, after.ID, EdgeTypeFalse)

	b.pushLoop(header.ID, after.ID)
	bodyEnd, err := b.parseArm(body, depthHere)
	b.popLoop()
	if err != nil {
		return err
	}

	if bodyEnd != nil {
		b.addEdge(bodyEnd.ID, header.ID, EdgeTypeBack)
	}
	b.cur = after
	return nil
}

func (b *builder) parseDoWhile(depth int) error {
	line := b.toks[b.pos].Line
	b.pos++

	depthHere := depth + 1
	if depthHere > b.maxDepth {
		b.maxDepth = depthHere
	}

	body := b.newBlock(BlockTypeLoopBody, line)
	b.link(body)
	header := b.newBlock(BlockTypeBranch, line)
	after := b.newBlock(BlockTypeMerge, line)

	b.pushLoop(header.ID, after.ID)
	bodyEnd, err := b.parseArm(body, depthHere)
	b.popLoop()
	if err != nil {
		return err
	}

	if b.pos >= len(b.toks) || b.toks[b.pos].Text != "while" {
		return b.malformed("do without while")
	}
	header.StartLine = b.toks[b.pos].Line
	header.EndLine = header.StartLine
	b.pos++
	cond, selfCall, err := b.parseCondition("while", false)
	if err != nil {
		return err
	}
	header.Statements = append(header.Statements, "do-while ("+cond+")")
	if selfCall {
		b.markRecursive(header)
	}
	if b.pos < len(b.toks) && b.toks[b.pos].Text == ";" {
		b.pos++
	}

	if bodyEnd != nil {
		b.addEdge(bodyEnd.ID, header.ID, EdgeTypeFallthrough)
	}
	b.addEdge(header.ID, body.ID, EdgeTypeBack)
	b.addEdge(header.ID, after.ID, EdgeTypeFalse)
	b.cur = after
	return nil
}

func (b *builder) parseSwitch(depth int) error {
	line := b.toks[b.pos].Line
	b.pos++
	cond, selfCall, err := b.parseCondition("switch", false)
	if err != nil {
		return err
	}

	depthHere := depth + 1
	if depthHere > b.maxDepth {
		b.maxDepth = depthHere
	}

	sw := b.newBlock(BlockTypeBranch, line)
	sw.Statements = append(sw.Statements, "switch ("+cond+")")
	b.link(sw)
	if selfCall {
		b.markRecursive(sw)
	}
	after := b.newBlock(BlockTypeMerge, b.lineAt())

	if b.pos >= len(b.toks) || b.toks[b.pos].Text != "{" {
		return b.malformed("switch without body")
	}
	b.pos++

	b.breakTargets = append(b.breakTargets, after.ID)
	defer func() {
		b.breakTargets = b.breakTargets[:len(b.breakTargets)-1]
	}()

	b.cur = nil
	sawDefault := false
	closed := false
	for b.pos < len(b.toks) {
		t := b.toks[b.pos]
		if t.Text == "}" {
			b.pos++
			closed = true
			break
		}
		if t.Kind == token.Keyword && (t.Text == "case" || t.Text == "default") {
			caseBlock, isDefault, err := b.parseCaseLabel()
			if err != nil {
				return err
			}
			b.addEdge(sw.ID, caseBlock.ID, EdgeTypeTrue)
			if b.cur != nil {
				// The previous group did not break: C fallthrough.
				b.addEdge(b.cur.ID, caseBlock.ID, EdgeTypeFallthrough)
			}
			if isDefault {
				sawDefault = true
			}
			b.cur = caseBlock
			continue
		}
		if err := b.parseStatement(depthHere); err != nil {
			return err
		}
	}
	if !closed {
		return b.malformed("unterminated switch body")
	}

	if b.cur != nil {
		b.addEdge(b.cur.ID, after.ID, EdgeTypeFallthrough)
	}
	if !sawDefault {
		// Without a default the condition can skip every case.
		b.addEdge(sw.ID, after.ID, EdgeTypeFalse)
	}
	b.cur = after
	return nil
}

func (b *builder) parseCaseLabel() (*Block, bool, error) {
	line := b.toks[b.pos].Line
	isDefault := b.toks[b.pos].Text == "default"
	b.pos++

	label := "default"
	if !isDefault {
		first := b.pos
		for b.pos < len(b.toks) && b.toks[b.pos].Text != ":" {
			if b.toks[b.pos].Text == "{" || b.toks[b.pos].Text == "}" {
				return nil, false, b.malformed("case label without colon")
			}
			b.pos++
		}
		if b.pos >= len(b.toks) {
			return nil, false, b.malformed("case label without colon")
		}
		label = "case " + b.span(first, b.pos-1)
	}
	if b.pos >= len(b.toks) || b.toks[b.pos].Text != ":" {
		return nil, false, b.malformed("case label without colon")
	}
	b.pos++

	caseBlock := b.newBlock(BlockTypePlain, line)
	caseBlock.Statements = append(caseBlock.Statements, label)
	return caseBlock, isDefault, nil
}

func (b *builder) parseReturn() error {
	line := b.toks[b.pos].Line
	first := b.pos
	for b.pos < len(b.toks) && b.toks[b.pos].Text != ";" {
		b.pos++
	}
	last := b.pos - 1
	if b.pos < len(b.toks) {
		b.pos++
	}

	ret := b.newBlock(BlockTypeReturn, line)
	ret.Statements = append(ret.Statements, b.span(first, last))
	ret.EndLine = b.toks[last].Line
	ret.Terminal = true
	if b.cur != nil {
		b.addEdge(b.cur.ID, ret.ID, EdgeTypeFallthrough)
	}
	b.terminals = append(b.terminals, ret.ID)
	b.noteCalls(first, last, ret)
	b.cur = nil
	return nil
}

func (b *builder) parseBreak() error {
	b.statementInto("break")
	if len(b.breakTargets) > 0 {
		b.addEdge(b.cur.ID, b.breakTargets[len(b.breakTargets)-1], EdgeTypeBreak)
		b.cur = nil
	}
	b.pos++
	if b.pos < len(b.toks) && b.toks[b.pos].Text == ";" {
		b.pos++
	}
	return nil
}

func (b *builder) parseContinue() error {
	b.statementInto("continue")
	if len(b.continueTargets) > 0 {
		b.addEdge(b.cur.ID, b.continueTargets[len(b.continueTargets)-1], EdgeTypeContinue)
		b.cur = nil
	}
	b.pos++
	if b.pos < len(b.toks) && b.toks[b.pos].Text == ";" {
		b.pos++
	}
	return nil
}

// parsePlain collects one plain statement up to its semicolon, absorbing
// balanced initializer braces. Statements that follow a terminated path
// start a fresh unconnected block, which reachability reporting surfaces.
func (b *builder) parsePlain() error {
	first := b.pos
	braces := 0
	end := -1
	for b.pos < len(b.toks) {
		t := b.toks[b.pos]
		if t.Text == "{" {
			braces++
		} else if t.Text == "}" {
			if braces == 0 {
				break
			}
			braces--
		} else if t.Text == ";" && braces == 0 {
			end = b.pos - 1
			b.pos++
			break
		}
		b.pos++
	}
	if end < 0 {
		end = b.pos - 1
	}
	if end < first {
		return nil
	}

	if b.cur == nil {
		b.cur = b.newBlock(BlockTypePlain, b.toks[first].Line)
	}
	b.cur.Statements = append(b.cur.Statements, b.span(first, end))
	b.cur.EndLine = b.toks[end].Line
	b.noteCalls(first, end, b.cur)
	return nil
}

// parseCondition consumes a parenthesized expression after kw and
// returns its source text and whether it contains a self call.
// Short-circuit operators are tallied on the builder. allowSemis admits
// the two semicolons of a for header.
func (b *builder) parseCondition(kw string, allowSemis bool) (string, bool, error) {
	if b.pos >= len(b.toks) || b.toks[b.pos].Text != "(" {
		return "", false, b.malformed(kw + " without condition")
	}
	b.pos++
	first := b.pos
	depth := 1
	for b.pos < len(b.toks) {
		t := b.toks[b.pos]
		switch t.Text {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				last := b.pos - 1
				b.pos++
				for i := first; i <= last; i++ {
					if b.toks[i].Text == "&&" || b.toks[i].Text == "||" {
						b.shortCircuits++
					}
				}
				return b.span(first, last), b.hasSelfCall(first, last), nil
			}
		case "{", "}":
			return "", false, b.malformed("unbalanced parentheses in " + kw + " condition")
		case ";":
			if !allowSemis {
				return "", false, b.malformed("unbalanced parentheses in " + kw + " condition")
			}
		}
		b.pos++
	}
	return "", false, b.malformed("unterminated " + kw + " condition")
}

// statementInto appends text to the current block, creating a fresh
// block first when the path is already terminated.
func (b *builder) statementInto(text string) {
	if b.cur == nil {
		b.cur = b.newBlock(BlockTypePlain, b.toks[b.pos].Line)
	}
	b.cur.Statements = append(b.cur.Statements, text)
	b.cur.EndLine = b.toks[b.pos].Line
}

func (b *builder) noteCalls(first, last int, into *Block) {
	if b.hasSelfCall(first, last) {
		b.markRecursive(into)
	}
}

// hasSelfCall reports whether the token range contains a call whose
// callee name equals the function's own unqualified name.
func (b *builder) hasSelfCall(first, last int) bool {
	for i := first; i <= last && i+1 < len(b.toks); i++ {
		if b.toks[i].Kind == token.Identifier &&
			b.toks[i].Text == b.unit.Name &&
			b.toks[i+1].Text == "(" {
			return true
		}
	}
	return false
}

func (b *builder) markRecursive(from *Block) {
	b.recursive = true
	b.addEdge(from.ID, b.entry.ID, EdgeTypeCall)
}

// link attaches block to the current flow and makes it current. With no
// live predecessor the block starts unconnected.
func (b *builder) link(block *Block) {
	if b.cur != nil {
		b.addEdge(b.cur.ID, block.ID, EdgeTypeFallthrough)
	}
	b.cur = block
}

func (b *builder) pushLoop(headerID, afterID string) {
	b.continueTargets = append(b.continueTargets, headerID)
	b.breakTargets = append(b.breakTargets, afterID)
}

func (b *builder) popLoop() {
	b.continueTargets = b.continueTargets[:len(b.continueTargets)-1]
	b.breakTargets = b.breakTargets[:len(b.breakTargets)-1]
}

func (b *builder) newBlock(blockType BlockType, line int) *Block {
	b.blockID++
	block := &Block{
		ID:           fmt.Sprintf("block_%d", b.blockID),
		Type:         blockType,
		StartLine:    line,
		EndLine:      line,
		Statements:   make([]string, 0),
		Predecessors: make([]string, 0),
	}
	b.blocks = append(b.blocks, block)
	b.byID[block.ID] = block
	return block
}

func (b *builder) addEdge(sourceID, targetID string, edgeType EdgeType) {
	b.edges = append(b.edges, Edge{
		SourceID: sourceID,
		TargetID: targetID,
		Type:     edgeType,
	})
}

// span returns the source text covered by the token range, preserving
// the original spacing.
func (b *builder) span(first, last int) string {
	if last < first || first < 0 || last >= len(b.toks) {
		return ""
	}
	a := b.toks[first].Offset
	z := b.toks[last].Offset + len(b.toks[last].Text)
	return b.unit.Source[a:z]
}

func (b *builder) lineAt() int {
	if b.pos < len(b.toks) {
		return b.toks[b.pos].Line
	}
	return b.unit.EndLine
}

func (b *builder) malformed(reason string) error {
	line := b.unit.EndLine
	if b.pos < len(b.toks) {
		line = b.toks[b.pos].Line
	}
	return &MalformedError{
		Function: b.unit.Qualified,
		Line:     line,
		Reason:   reason,
	}
}
