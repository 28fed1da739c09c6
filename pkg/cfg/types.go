// Package cfg builds control flow graphs from function body tokens.
// It provides the block and edge model plus a single-pass builder that
// recovers branching, loops, returns, and direct recursion.
package cfg

import "fmt"

// BlockType represents the type of a CFG block.
type BlockType string

const (
	BlockTypeEntry    BlockType = "entry"     // Function entry point
	BlockTypeBranch   BlockType = "branch"    // Conditional branch (if/loop/switch header)
	BlockTypeLoopBody BlockType = "loop_body" // Loop body
	BlockTypeMerge    BlockType = "merge"     // Join point after branches
	BlockTypeReturn   BlockType = "return"    // Return statement
	BlockTypeExit     BlockType = "exit"      // Function exit point
	BlockTypePlain    BlockType = "plain"     // Regular statements
)

// EdgeType represents the type of a CFG edge.
type EdgeType string

const (
	EdgeTypeFallthrough EdgeType = "fallthrough" // Sequential flow
	EdgeTypeTrue        EdgeType = "true"        // True branch of a condition
	EdgeTypeFalse       EdgeType = "false"       // False branch of a condition
	EdgeTypeBack        EdgeType = "back"        // Loop repeat edge
	EdgeTypeBreak       EdgeType = "break"       // Break out of a loop or switch
	EdgeTypeContinue    EdgeType = "continue"    // Continue to the loop header
	EdgeTypeCall        EdgeType = "call"        // Self call, marks recursion
)

// Block is a basic block: a straight-line statement run with a single
// entry and exit. Terminal blocks end control flow for their path.
type Block struct {
	ID           string    `json:"id"`
	Type         BlockType `json:"type"`
	StartLine    int       `json:"start_line"`
	EndLine      int       `json:"end_line"`
	Statements   []string  `json:"statements"`
	Predecessors []string  `json:"predecessors"`
	Terminal     bool      `json:"terminal,omitempty"`
}

// Edge is a directed edge between two blocks.
type Edge struct {
	SourceID string   `json:"source_id"`
	TargetID string   `json:"target_id"`
	Type     EdgeType `json:"edge_type"`
}

// Graph is the complete control flow graph for one function. Blocks are
// in creation order with the entry block first, which keeps every
// serialization of the same input identical.
type Graph struct {
	FunctionName  string  `json:"function_name"`
	Blocks        []Block `json:"blocks"`
	Edges         []Edge  `json:"edges"`
	EntryID       string  `json:"entry_block_id"`
	ExitID        string  `json:"exit_block_id"`
	MaxDepth      int     `json:"max_nesting_depth"`
	Recursive     bool    `json:"is_recursive"`
	ShortCircuits int     `json:"short_circuit_ops"`
}

// BlockByID returns the block with the given ID, or nil.
func (g *Graph) BlockByID(id string) *Block {
	for i := range g.Blocks {
		if g.Blocks[i].ID == id {
			return &g.Blocks[i]
		}
	}
	return nil
}

// ControlEdges returns the number of edges that carry control flow.
// Call edges annotate recursion and are not paths through the function.
func (g *Graph) ControlEdges() int {
	n := 0
	for _, e := range g.Edges {
		if e.Type != EdgeTypeCall {
			n++
		}
	}
	return n
}

// MalformedError reports control flow that could not be recovered from
// an extracted body, such as an unmatched branch keyword. The function
// it names gets an error entry in the report; other functions are not
// affected.
type MalformedError struct {
	Function string
	Line     int
	Reason   string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed control flow in %s at line %d: %s", e.Function, e.Line, e.Reason)
}
