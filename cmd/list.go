package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/alpkeskin/gotoon"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pders01/stackpack/internal/config"
	"github.com/pders01/stackpack/internal/filter"
)

var (
	listJSON bool
	listToon bool
	listYAML bool
)

var listCmd = &cobra.Command{
	Use:   "list <folder>",
	Short: "List the files an export would include",
	Long: `List the files under <folder> that pass the ignore list and the
extension allow-list, in the order they would be exported.

Examples:
  stackpack list ./myapp
  stackpack list ./myapp --json
  stackpack list ./myapp --toon
  stackpack list ./myapp --yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	listCmd.Flags().BoolVar(&listToon, "toon", false, "Output in LLM-friendly toon format")
	listCmd.Flags().BoolVar(&listYAML, "yaml", false, "Output as YAML")
}

type listRow struct {
	Index            int    `json:"index" yaml:"index"`
	Name             string `json:"name" yaml:"name"`
	RootRelativePath string `json:"relative_path" yaml:"relative_path"`
	Size             int64  `json:"size" yaml:"size"`
	MIMEType         string `json:"type" yaml:"type"`
}

func runList(cmd *cobra.Command, args []string) error {
	root, err := resolveFolder(args[0])
	if err != nil {
		return err
	}

	rules := config.GetRules()
	entries, err := newProvider(rules).Enumerate(commandContext(cmd), root)
	if err != nil {
		return err
	}

	filtered := filter.Apply(entries, rules)
	rows := make([]listRow, 0, len(filtered))
	for i, e := range filtered {
		rows = append(rows, listRow{
			Index:            i + 1,
			Name:             e.Name,
			RootRelativePath: e.RootRelativePath,
			Size:             e.Size,
			MIMEType:         e.MIMEType,
		})
	}

	switch {
	case listJSON:
		output, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return nil
	case listToon:
		output, err := gotoon.Encode(rows)
		if err != nil {
			return fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Println(output)
		return nil
	case listYAML:
		output, err := yaml.Marshal(rows)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		fmt.Print(string(output))
		return nil
	}

	if len(rows) == 0 {
		fmt.Println("No eligible files found")
		return nil
	}

	fmt.Printf("Found %d file(s) in %s:\n\n", len(rows), root)
	fmt.Printf("  %4s  %-24s  %-48s  %10s  %s\n", "#", "File Name", "Relative Path", "Size", "Type")
	for _, r := range rows {
		fmt.Printf("  %4d  %-24s  %-48s  %10d  %s\n", r.Index, r.Name, r.RootRelativePath, r.Size, r.MIMEType)
	}

	return nil
}
