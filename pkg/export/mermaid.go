// Package export renders control flow graphs into interchange formats:
// Mermaid flowcharts for humans and JSONL for downstream tooling.
package export

import (
	"fmt"
	"strings"

	"github.com/l3aro/go-complexity/pkg/cfg"
)

// Mermaid renders the graph as a top-down Mermaid flowchart. Branch
// blocks become diamonds, entry and exit rounded boxes, merges small
// circles. Edges into the exit and recursion annotations are dashed.
func Mermaid(g *cfg.Graph) string {
	var b strings.Builder
	b.WriteString("graph TD\n")

	for i := range g.Blocks {
		blk := &g.Blocks[i]
		label := EscapeLabel(strings.Join(blk.Statements, "; "))
		switch blk.Type {
		case cfg.BlockTypeEntry, cfg.BlockTypeExit:
			b.WriteString(fmt.Sprintf("    %s([\"%s\"])\n", blk.ID, label))
		case cfg.BlockTypeBranch:
			b.WriteString(fmt.Sprintf("    %s{\"%s\"}\n", blk.ID, label))
		case cfg.BlockTypeMerge:
			b.WriteString(fmt.Sprintf("    %s(( ))\n", blk.ID))
		default:
			b.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", blk.ID, label))
		}
	}

	for _, e := range g.Edges {
		switch {
		case e.Type == cfg.EdgeTypeTrue:
			b.WriteString(fmt.Sprintf("    %s -->|T| %s\n", e.SourceID, e.TargetID))
		case e.Type == cfg.EdgeTypeFalse:
			b.WriteString(fmt.Sprintf("    %s -->|F| %s\n", e.SourceID, e.TargetID))
		case e.Type == cfg.EdgeTypeBack:
			b.WriteString(fmt.Sprintf("    %s -->|loop| %s\n", e.SourceID, e.TargetID))
		case e.Type == cfg.EdgeTypeBreak:
			b.WriteString(fmt.Sprintf("    %s -->|break| %s\n", e.SourceID, e.TargetID))
		case e.Type == cfg.EdgeTypeContinue:
			b.WriteString(fmt.Sprintf("    %s -->|continue| %s\n", e.SourceID, e.TargetID))
		case e.Type == cfg.EdgeTypeCall:
			b.WriteString(fmt.Sprintf("    %s -.->|call| %s\n", e.SourceID, e.TargetID))
		case e.TargetID == g.ExitID:
			b.WriteString(fmt.Sprintf("    %s -.-> %s\n", e.SourceID, e.TargetID))
		default:
			b.WriteString(fmt.Sprintf("    %s --> %s\n", e.SourceID, e.TargetID))
		}
	}

	return b.String()
}

// MermaidValidated renders the graph and checks the result.
func MermaidValidated(g *cfg.Graph) (string, error) {
	out := Mermaid(g)
	if err := Validate(out); err != nil {
		return "", err
	}
	return out, nil
}

// EscapeLabel rewrites a label so Mermaid renders it literally. The
// replacer works in a single pass, so generated entities are never
// escaped a second time.
func EscapeLabel(label string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"\"", "&quot;",
		"'", "&apos;",
		"<", "&lt;",
		">", "&gt;",
		"\\", "\\\\",
		"\n", " ",
	)
	return r.Replace(label)
}

// Validate checks a rendered diagram for the problems renderers choke
// on: a missing header and unescaped quotes inside bracketed labels.
func Validate(diagram string) error {
	lines := strings.Split(strings.TrimRight(diagram, "\n"), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return fmt.Errorf("empty diagram")
	}
	if !strings.HasPrefix(lines[0], "graph") {
		return fmt.Errorf("diagram must start with graph")
	}

	for i, line := range lines {
		start := strings.Index(line, "[")
		end := strings.LastIndex(line, "]")
		if start < 0 || end <= start {
			continue
		}
		label := line[start+1 : end]
		// The delimiting quotes around the label are not content.
		if strings.HasPrefix(label, "\"") && strings.HasSuffix(label, "\"") && len(label) >= 2 {
			label = label[1 : len(label)-1]
		}
		if strings.Contains(label, "'") && !strings.Contains(label, "&apos;") {
			return fmt.Errorf("line %d: unescaped single quote in label", i+1)
		}
		if strings.Contains(label, "\"") && !strings.Contains(label, "&quot;") {
			return fmt.Errorf("line %d: unescaped double quote in label", i+1)
		}
	}
	return nil
}
