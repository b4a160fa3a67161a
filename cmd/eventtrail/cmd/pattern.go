package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/solatis/eventtrail/internal/core/db"
	"github.com/solatis/eventtrail/internal/patterns"
	"github.com/solatis/eventtrail/internal/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var patternCmd = &cobra.Command{
	Use:   "pattern",
	Short: "Manage stored patterns",
}

var patternAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Compile a pattern file and store it for a tenant",
	Args:  cobra.NoArgs,
	RunE:  runPatternAdd,
}

var patternListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a tenant's stored patterns",
	Args:  cobra.NoArgs,
	RunE:  runPatternList,
}

var patternShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Compile a pattern file and print its structure",
	Args:  cobra.ExactArgs(1),
	RunE:  runPatternShow,
}

var patternDeleteCmd = &cobra.Command{
	Use:   "delete <pattern-id>",
	Short: "Delete a tenant's stored pattern",
	Args:  cobra.ExactArgs(1),
	RunE:  runPatternDelete,
}

var (
	patternTenant string
	patternName   string
	patternFile   string
)

func init() {
	rootCmd.AddCommand(patternCmd)
	patternCmd.AddCommand(patternAddCmd, patternListCmd, patternShowCmd, patternDeleteCmd)

	patternCmd.PersistentFlags().StringVar(&patternTenant, "tenant", "", "tenant owning the pattern")
	patternAddCmd.Flags().StringVar(&patternName, "name", "", "pattern name (unique per tenant)")
	patternAddCmd.Flags().StringVar(&patternFile, "file", "", "pattern definition file (.yaml, .yml or .json)")
}

func runPatternAdd(cmd *cobra.Command, args []string) error {
	if patternTenant == "" || patternName == "" || patternFile == "" {
		return fmt.Errorf("--tenant, --name and --file required")
	}

	def, err := loadDefinition(patternFile)
	if err != nil {
		return err
	}
	cp, err := patterns.Compile(def)
	if err != nil {
		return fmt.Errorf("%s: %w", patternFile, err)
	}

	database, queries, err := openQueries(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close()

	sp := &types.StoredPattern{
		TenantID:   types.TenantID(patternTenant),
		Name:       patternName,
		Definition: *def,
		Checksum:   cp.Checksum,
	}
	if err := db.NewPatternStore(queries).Insert(cmd.Context(), sp); err != nil {
		return err
	}

	logger.Info("stored pattern", "pattern_id", sp.PatternID, "tenant_id", sp.TenantID, "name", sp.Name)
	fmt.Fprintln(cmd.OutOrStdout(), sp.PatternID)
	return nil
}

func runPatternList(cmd *cobra.Command, args []string) error {
	if patternTenant == "" {
		return fmt.Errorf("--tenant required")
	}

	database, queries, err := openQueries(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close()

	stored, err := db.NewPatternStore(queries).List(cmd.Context(), types.TenantID(patternTenant))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATTERN ID\tNAME\tSPAN\tCREATED AT\tPATTERN")
	for _, sp := range stored {
		cp, err := patterns.Compile(&sp.Definition)
		if err != nil {
			logger.Warn("stored pattern fails to compile", "pattern_id", sp.PatternID, "error", err)
			fmt.Fprintf(tw, "%s\t%s\t-\t%s\tinvalid: %v\n", sp.PatternID, sp.Name, sp.CreatedAt, err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", sp.PatternID, sp.Name, formatSpan(cp), sp.CreatedAt, cp.Pattern)
	}
	return tw.Flush()
}

func runPatternShow(cmd *cobra.Command, args []string) error {
	def, err := loadDefinition(args[0])
	if err != nil {
		return err
	}
	cp, err := patterns.Compile(def)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "pattern:  %s\n", cp.Pattern)
	fmt.Fprintf(out, "span:     %s\n", formatSpan(cp))
	fmt.Fprintf(out, "nodes:    %d\n", cp.Nodes)
	fmt.Fprintf(out, "checksum: %s\n", cp.Checksum)
	return nil
}

func runPatternDelete(cmd *cobra.Command, args []string) error {
	if patternTenant == "" {
		return fmt.Errorf("--tenant required")
	}
	id, err := types.ParsePatternID(args[0])
	if err != nil {
		return err
	}

	database, queries, err := openQueries(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.NewPatternStore(queries).Delete(cmd.Context(), types.TenantID(patternTenant), id); err != nil {
		return err
	}
	logger.Info("deleted pattern", "pattern_id", id, "tenant_id", patternTenant)
	return nil
}

// formatSpan renders MinSpan..MaxSpan, with * for unbounded.
func formatSpan(cp *patterns.CompiledPattern) string {
	max := "*"
	if cp.MaxSpan != patterns.Unbounded {
		max = strconv.Itoa(cp.MaxSpan)
	}
	return fmt.Sprintf("%d..%s", cp.MinSpan, max)
}

// loadDefinition reads a pattern document. Files ending in .json are
// decoded as JSON, anything else as YAML. Unknown keys are rejected.
func loadDefinition(path string) (*types.PatternDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern file: %w", err)
	}
	return decodeDefinition(data, strings.EqualFold(filepath.Ext(path), ".json"))
}

func decodeDefinition(data []byte, isJSON bool) (*types.PatternDefinition, error) {
	var def types.PatternDefinition

	if isJSON {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("invalid pattern JSON: %w", err)
		}
		return &def, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("pattern file is empty")
		}
		return nil, fmt.Errorf("invalid pattern YAML: %w", err)
	}
	return &def, nil
}
