package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/solatis/eventtrail/internal/patterns"
	"github.com/solatis/eventtrail/internal/types"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate a pattern file against histories locally",
	Long: `Evaluate a pattern file against one or more histories without a server.

The history file is either one JSON array of events, or JSONL with one
history (a JSON array of events) per line.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

var (
	checkPatternFile string
	checkHistoryFile string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkPatternFile, "pattern", "", "pattern definition file (.yaml, .yml or .json)")
	checkCmd.Flags().StringVar(&checkHistoryFile, "history", "", "history file (JSON array or JSONL)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	if checkPatternFile == "" || checkHistoryFile == "" {
		return fmt.Errorf("--pattern and --history required")
	}

	def, err := loadDefinition(checkPatternFile)
	if err != nil {
		return err
	}
	cp, err := patterns.Compile(def)
	if err != nil {
		return fmt.Errorf("%s: %w", checkPatternFile, err)
	}

	histories, err := readHistories(checkHistoryFile)
	if err != nil {
		return err
	}

	results, err := patterns.NewEngine().EvaluateMany(cmd.Context(), cp, histories)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, r := range results {
		if r.Matched {
			fmt.Fprintf(out, "history %d: matched (consumed %d of %d events)\n", i+1, r.Consumed, len(histories[i]))
		} else {
			fmt.Fprintf(out, "history %d: no match\n", i+1)
		}
	}
	return nil
}

// readHistories reads a file holding one JSON array history, or JSONL
// with one history per non-blank line.
func readHistories(path string) ([]types.History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	if json.Valid(data) {
		h, err := patterns.DecodeHistory(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return []types.History{h}, nil
	}

	var histories []types.History
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for line := 1; scanner.Scan(); line++ {
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		h, err := patterns.DecodeHistory(text)
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", path, line, err)
		}
		histories = append(histories, h)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	if len(histories) == 0 {
		return nil, fmt.Errorf("%s: no histories", path)
	}
	return histories, nil
}
