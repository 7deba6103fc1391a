package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"nihss-scoring-service/internal/nihss"
)

// NewScaleCmd prints the item table and coma overrides.
func NewScaleCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "scale",
		Short: "Print the NIHSS items, options and coma overrides",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printScale(cmd.OutOrStdout(), format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json or yaml")
	return cmd
}

type scaleEntry struct {
	nihss.Item   `yaml:",inline"`
	ComaOverride *int `json:"comaOverride,omitempty" yaml:"comaOverride,omitempty"`
}

func printScale(w io.Writer, format string) error {
	items := nihss.Items()
	entries := make([]scaleEntry, 0, len(items))
	for _, item := range items {
		entry := scaleEntry{Item: item}
		if v, ok := nihss.ComaOverride(item.ID); ok {
			v := v
			entry.ComaOverride = &v
		}
		entries = append(entries, entry)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(entries)
	case "text", "":
		for _, e := range entries {
			fmt.Fprintf(w, "%s. %s", e.ID, e.Name)
			if e.ComaOverride != nil {
				fmt.Fprintf(w, " (coma: %d)", *e.ComaOverride)
			}
			fmt.Fprintln(w)
			for _, opt := range e.Options {
				fmt.Fprintf(w, "  %-2s %s\n", opt.Code, opt.Label)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
