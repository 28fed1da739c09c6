// Package metrics computes complexity figures from control flow graphs.
//
// Cyclomatic complexity uses the standard edge and node formula, which
// agrees with counting decision points on well formed graphs but stays
// honest on graphs with dead regions or unusual shapes. Call edges are
// annotations and never enter the count.
package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/l3aro/go-complexity/pkg/cfg"
)

// Metrics holds the per-function analysis result.
type Metrics struct {
	Name            string   `json:"name"`
	Cyclomatic      int      `json:"cyclomatic_complexity"`
	MaxNestingDepth int      `json:"max_nesting_depth"`
	Recursive       bool     `json:"is_recursive"`
	BlockCount      int      `json:"block_count"`
	EdgeCount       int      `json:"edge_count"`
	Unreachable     []string `json:"unreachable_blocks,omitempty"`
}

// Options control how the calculator interprets a graph.
type Options struct {
	// CountShortCircuit adds one point per && or || found in branch
	// conditions, the way tools counting boolean operators do.
	CountShortCircuit bool
}

// InvariantViolation reports a graph that is structurally unsound and
// cannot be measured.
type InvariantViolation struct {
	Function string
	Reason   string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", e.Function, e.Reason)
}

// Compute validates the graph and derives its metrics.
func Compute(g *cfg.Graph, opts Options) (*Metrics, error) {
	if err := validate(g); err != nil {
		return nil, err
	}

	edges := g.ControlEdges()
	nodes := len(g.Blocks)

	cc := edges - nodes + 2
	if cc < 1 {
		cc = 1
	}
	if opts.CountShortCircuit {
		cc += g.ShortCircuits
	}

	return &Metrics{
		Name:            g.FunctionName,
		Cyclomatic:      cc,
		MaxNestingDepth: g.MaxDepth,
		Recursive:       g.Recursive,
		BlockCount:      nodes,
		EdgeCount:       edges,
		Unreachable:     unreachable(g),
	}, nil
}

// validate checks the structural invariants every measurable graph must
// satisfy: a registered entry block, edges whose endpoints exist, and at
// least one path out of the function.
func validate(g *cfg.Graph) error {
	if g.EntryID == "" || g.BlockByID(g.EntryID) == nil {
		return &InvariantViolation{Function: g.FunctionName, Reason: "missing entry block"}
	}
	if g.ExitID == "" || g.BlockByID(g.ExitID) == nil {
		return &InvariantViolation{Function: g.FunctionName, Reason: "missing exit block"}
	}
	for _, e := range g.Edges {
		if g.BlockByID(e.SourceID) == nil {
			return &InvariantViolation{
				Function: g.FunctionName,
				Reason:   fmt.Sprintf("edge source %s does not exist", e.SourceID),
			}
		}
		if g.BlockByID(e.TargetID) == nil {
			return &InvariantViolation{
				Function: g.FunctionName,
				Reason:   fmt.Sprintf("edge target %s does not exist", e.TargetID),
			}
		}
	}
	terminal := false
	for _, blk := range g.Blocks {
		if blk.Terminal {
			terminal = true
			break
		}
	}
	if !terminal {
		return &InvariantViolation{Function: g.FunctionName, Reason: "no terminal block"}
	}
	return nil
}

// unreachable lists every block a forward walk from the entry cannot
// visit. Dead code after a return is legal input, so this is a report,
// not an error.
func unreachable(g *cfg.Graph) []string {
	seen := map[string]bool{}
	stack := []string{g.EntryID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		for _, e := range g.Edges {
			if e.SourceID == id && e.Type != cfg.EdgeTypeCall && !seen[e.TargetID] {
				stack = append(stack, e.TargetID)
			}
		}
	}

	var dead []string
	for _, blk := range g.Blocks {
		if !seen[blk.ID] {
			dead = append(dead, blk.ID)
		}
	}
	sort.Slice(dead, func(i, j int) bool {
		return blockNum(dead[i]) < blockNum(dead[j])
	})
	return dead
}

func blockNum(id string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(id, "block_"))
	if err != nil {
		return 0
	}
	return n
}
