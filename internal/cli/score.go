package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"nihss-scoring-service/internal/nihss"
)

// NewScoreCmd scores an assessment given on the command line, e.g.
//
//	nihss score --set 1a=1 --set 5a=UN --set 9=2
func NewScoreCmd() *cobra.Command {
	var (
		sets   []string
		format string
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a set of item selections without starting the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := scoreSelections(sets)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result, format)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "item selection as ITEM=CODE (CODE is 0-4 or UN); repeatable")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json or yaml")
	return cmd
}

type scoreResult struct {
	Scores     map[string]int `json:"scores" yaml:"scores"`
	Locked     []string       `json:"locked,omitempty" yaml:"locked,omitempty"`
	Total      int            `json:"total" yaml:"total"`
	Severity   nihss.Severity `json:"severity" yaml:"severity"`
	ComaActive bool           `json:"comaActive" yaml:"comaActive"`
}

// scoreSelections applies selections in order, recomputing after each one as
// an interactive session would. Selections on locked items fail.
func scoreSelections(sets []string) (scoreResult, error) {
	sheet := nihss.NewScoreSheet()
	for _, raw := range sets {
		itemID, code, ok := strings.Cut(raw, "=")
		if !ok {
			return scoreResult{}, fmt.Errorf("invalid selection %q: want ITEM=CODE", raw)
		}
		next, err := nihss.SelectOptionCode(sheet, strings.TrimSpace(itemID), strings.ToUpper(strings.TrimSpace(code)))
		if err != nil {
			return scoreResult{}, err
		}
		sheet = nihss.Recompute(next)
	}

	total := nihss.TotalScore(sheet)
	result := scoreResult{
		Scores:     sheet.Scores(),
		Total:      total,
		Severity:   nihss.ClassifySeverity(total),
		ComaActive: nihss.EvaluateComaState(sheet),
	}
	for _, item := range nihss.Items() {
		if sheet.Locked(item.ID) {
			result.Locked = append(result.Locked, item.ID)
		}
	}
	return result, nil
}

func printResult(w io.Writer, result scoreResult, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(result)
	case "text", "":
		for _, item := range nihss.Items() {
			marker := ""
			if sheetLocked(result, item.ID) {
				marker = " [coma]"
			}
			fmt.Fprintf(w, "%-3s %-24s %d%s\n", item.ID, item.Name, result.Scores[item.ID], marker)
		}
		if result.ComaActive {
			fmt.Fprintln(w, "Coma protocol active: guideline scores applied.")
		}
		fmt.Fprintf(w, "Total: %d (%s)\n", result.Total, result.Severity.Label)
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func sheetLocked(result scoreResult, itemID string) bool {
	for _, id := range result.Locked {
		if id == itemID {
			return true
		}
	}
	return false
}
