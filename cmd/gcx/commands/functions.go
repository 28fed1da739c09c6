package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/l3aro/go-complexity/internal/scanner"
	"github.com/l3aro/go-complexity/pkg/function"
	"github.com/l3aro/go-complexity/pkg/token"
	"github.com/spf13/cobra"
)

// FunctionInfo is the output shape for one discovered function.
type FunctionInfo struct {
	Name      string   `json:"name"`
	Qualified string   `json:"qualified_name"`
	Scope     string   `json:"scope,omitempty"`
	Params    []string `json:"params"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
}

// FunctionListOutput is the output of the functions command.
type FunctionListOutput struct {
	File      string         `json:"file"`
	Functions []FunctionInfo `json:"functions"`
	Errors    []string       `json:"errors,omitempty"`
}

// functionsCmd represents the functions command
var functionsCmd = &cobra.Command{
	Use:   "functions <file>",
	Short: "List the functions found in a file",
	Long: `Tokenizes the file and lists every function definition the extractor
recognizes, with parameters and line spans.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath := args[0]

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

		src := string(data)
		toks, _ := token.Tokenize(src)
		units, extErrs := function.Extract(src, toks)

		output := FunctionListOutput{File: filePath}
		for _, u := range units {
			output.Functions = append(output.Functions, FunctionInfo{
				Name:      u.Name,
				Qualified: u.Qualified,
				Scope:     u.Scope,
				Params:    u.Params,
				StartLine: u.StartLine,
				EndLine:   u.EndLine,
			})
		}
		for _, e := range extErrs {
			output.Errors = append(output.Errors, e.Error())
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			data, err := json.MarshalIndent(output, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		printFunctionList(output)
		return nil
	},
}

func printFunctionList(output FunctionListOutput) {
	fmt.Printf("Functions in %s (%d):\n", output.File, len(output.Functions))
	for _, f := range output.Functions {
		fmt.Printf("  %s(%s)  lines %d-%d\n",
			f.Qualified, strings.Join(f.Params, ", "), f.StartLine, f.EndLine)
	}

	if len(output.Errors) > 0 {
		fmt.Println("\nExtraction errors:")
		for _, e := range output.Errors {
			fmt.Printf("  %s\n", e)
		}
	}
}

func init() {
	functionsCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}
