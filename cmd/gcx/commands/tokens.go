package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/l3aro/go-complexity/pkg/token"
	"github.com/spf13/cobra"
)

// TokenListOutput is the output of the tokens command.
type TokenListOutput struct {
	File      string          `json:"file"`
	Tokens    []token.Token   `json:"tokens"`
	Anomalies []token.Anomaly `json:"anomalies,omitempty"`
}

// tokensCmd represents the tokens command
var tokensCmd = &cobra.Command{
	Use:   "tokens <file>",
	Short: "Dump the token stream of a file",
	Long: `Tokenizes the file and prints every lexical token with its line
number and kind. Useful for debugging how a source is read.`,
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

		data, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}

		toks, anomalies := token.Tokenize(string(data))
		output := TokenListOutput{
			File:      filePath,
			Tokens:    toks,
			Anomalies: anomalies,
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

		printTokenList(output)
		return nil
	},
}

func printTokenList(output TokenListOutput) {
	fmt.Printf("Tokens in %s (%d):\n", output.File, len(output.Tokens))
	for _, t := range output.Tokens {
		fmt.Printf("  %5d  %-10s %s\n", t.Line, t.Kind, t.Text)
	}

	if len(output.Anomalies) > 0 {
		fmt.Println("\nAnomalies:")
		for _, a := range output.Anomalies {
			fmt.Printf("  line %d: %s\n", a.Line, a.Message)
		}
	}
}

func init() {
	tokensCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}
