package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/l3aro/go-complexity/internal/scanner"
	"github.com/l3aro/go-complexity/pkg/analyzer"
	"github.com/l3aro/go-complexity/pkg/cfg"
	"github.com/l3aro/go-complexity/pkg/export"
	"github.com/l3aro/go-complexity/pkg/metrics"
	"github.com/spf13/cobra"
)

// cfgCmd represents the cfg command
var cfgCmd = &cobra.Command{
	Use:   "cfg <file> <function>",
	Short: "Show the control flow graph of one function",
	Long: `Builds the control flow graph for a specific function and prints it.
The function may be named by its qualified name (Scope::name) or, when
unambiguous, by its bare name.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath := args[0]
		functionName := args[1]

		info, err := os.Stat(filePath)
		if err != nil {
			return fmt.Errorf("stat file: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("path is a directory, expected a file: %s", filePath)
		}
		if !scanner.IsCFamily(filepath.Ext(filePath)) {
			return fmt.Errorf("unsupported file type: %s", filePath)
		}

		data, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}

		a := analyzer.New(analyzer.Options{})
		graphs, errs := a.Graphs(string(data))

		g, ambiguous := findGraph(graphs, functionName)
		if len(ambiguous) > 0 {
			return fmt.Errorf("function %q is ambiguous in %s, candidates: %s",
				functionName, filePath, strings.Join(ambiguous, ", "))
		}
		if g == nil {
			suggestions := similarFunctions(graphs, functionName)
			if len(suggestions) > 0 {
				return fmt.Errorf("function %q not found in %s\nDid you mean: %s?",
					functionName, filePath, strings.Join(suggestions, ", "))
			}
			if len(errs) > 0 {
				return fmt.Errorf("function %q not found in %s (%d functions could not be analyzed)",
					functionName, filePath, len(errs))
			}
			return fmt.Errorf("function %q not found in %s", functionName, filePath)
		}

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "json":
			out, err := export.JSON(g)
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Print(out)
		case "jsonl":
			out, err := export.JSONL(g)
			if err != nil {
				return fmt.Errorf("marshaling JSONL: %w", err)
			}
			fmt.Print(out)
		case "mermaid":
			out, err := export.MermaidValidated(g)
			if err != nil {
				return fmt.Errorf("rendering mermaid: %w", err)
			}
			fmt.Print(out)
		case "text":
			printGraph(g)
		default:
			return fmt.Errorf("unknown format: %s (use text, json, jsonl, or mermaid)", format)
		}

		return nil
	},
}

// findGraph matches the qualified name first, then falls back to the
// bare name when exactly one function carries it. The second return
// lists the qualified candidates when the bare name is ambiguous.
func findGraph(graphs []*cfg.Graph, name string) (*cfg.Graph, []string) {
	var bare []*cfg.Graph
	for _, g := range graphs {
		if g.FunctionName == name {
			return g, nil
		}
		if unqualifiedName(g.FunctionName) == name {
			bare = append(bare, g)
		}
	}
	if len(bare) == 1 {
		return bare[0], nil
	}
	if len(bare) > 1 {
		names := make([]string, len(bare))
		for i, g := range bare {
			names[i] = g.FunctionName
		}
		return nil, names
	}
	return nil, nil
}

// unqualifiedName strips the scope from a Scope::name function name.
func unqualifiedName(name string) string {
	if i := strings.LastIndex(name, "::"); i >= 0 {
		return name[i+2:]
	}
	return name
}

// similarFunctions finds function names containing the query, for the
// not-found error message.
func similarFunctions(graphs []*cfg.Graph, query string) []string {
	var out []string
	lower := strings.ToLower(query)
	for _, g := range graphs {
		if strings.Contains(strings.ToLower(g.FunctionName), lower) {
			out = append(out, g.FunctionName)
		}
	}
	return out
}

// printGraph prints the graph in human-readable form.
func printGraph(g *cfg.Graph) {
	fmt.Printf("=== CFG for function: %s ===\n", g.FunctionName)

	m, err := metrics.Compute(g, metrics.Options{})
	if err != nil {
		fmt.Printf("Metrics unavailable: %v\n", err)
	} else {
		fmt.Printf("Cyclomatic Complexity: %d\n", m.Cyclomatic)
		fmt.Printf("Max Nesting Depth: %d\n", m.MaxNestingDepth)
		if m.Recursive {
			fmt.Println("Recursive: yes")
		}
		if len(m.Unreachable) > 0 {
			fmt.Printf("Unreachable Blocks: %s\n", strings.Join(m.Unreachable, ", "))
		}
	}
	if g.ShortCircuits > 0 {
		fmt.Printf("Short-circuit Operators: %d\n", g.ShortCircuits)
	}
	fmt.Printf("Entry Block: %s\n", g.EntryID)
	fmt.Printf("Exit Block: %s\n", g.ExitID)

	fmt.Printf("\nBlocks (%d):\n", len(g.Blocks))
	for _, b := range g.Blocks {
		fmt.Printf("  %s (%s, lines %d-%d)\n", b.ID, b.Type, b.StartLine, b.EndLine)
		for _, stmt := range b.Statements {
			fmt.Printf("    %s\n", stmt)
		}
	}

	fmt.Printf("\nEdges (%d):\n", len(g.Edges))
	for _, e := range g.Edges {
		fmt.Printf("  %s --%s--> %s\n", e.SourceID, e.Type, e.TargetID)
	}
}

func init() {
	cfgCmd.Flags().StringP("format", "f", "text", "Output format: text, json, jsonl, or mermaid")
}
