package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alpkeskin/gotoon"
	"github.com/spf13/cobra"

	"github.com/pders01/stackpack/internal/config"
	"github.com/pders01/stackpack/internal/filter"
)

var (
	statsJSON bool
	statsToon bool
)

var statsCmd = &cobra.Command{
	Use:   "stats <folder>",
	Short: "Show how the filter rules split a folder",
	Long: `Display statistics about a folder as the exporter sees it:
  - Total files found
  - Files kept, ignored and rejected by extension
  - Bytes that would be read
  - Eligible files per extension

Examples:
  stackpack stats ./myapp
  stackpack stats ./myapp --json
  stackpack stats ./myapp --toon`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
	statsCmd.Flags().BoolVar(&statsToon, "toon", false, "Output in LLM-friendly toon format")
}

func runStats(cmd *cobra.Command, args []string) error {
	root, err := resolveFolder(args[0])
	if err != nil {
		return err
	}

	rules := config.GetRules()

	// No directory pruning here so ignored files are counted too
	entries, err := newProvider(filter.Rules{}).Enumerate(commandContext(cmd), root)
	if err != nil {
		return err
	}

	stats := filter.Summarize(entries, rules)

	if statsJSON {
		output, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	if statsToon {
		output, err := gotoon.Encode(stats)
		if err != nil {
			return fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Println(output)
		return nil
	}

	fmt.Println("Folder Statistics")
	fmt.Println("━━━━━━━━━━━━━━━━━")
	fmt.Println()

	fmt.Printf("Folder:      %s\n", root)
	fmt.Printf("Total Files: %d\n", stats.Total)
	fmt.Println()

	fmt.Println("By Outcome:")
	for _, row := range []struct {
		label string
		count int
	}{
		{"eligible", stats.Eligible},
		{"ignored", stats.Ignored},
		{"disallowed", stats.Disallowed},
	} {
		percentage := 0.0
		if stats.Total > 0 {
			percentage = float64(row.count) / float64(stats.Total) * 100
		}
		fmt.Printf("  %-12s %5d  (%.1f%%)\n", row.label, row.count, percentage)
	}
	fmt.Println()

	fmt.Printf("Eligible Size: %d bytes\n", stats.EligibleBytes)
	fmt.Println()

	if len(stats.TopExtensions) > 0 {
		fmt.Println("By Extension:")
		limit := 10
		if len(stats.TopExtensions) < limit {
			limit = len(stats.TopExtensions)
		}
		for i := 0; i < limit; i++ {
			es := stats.TopExtensions[i]
			n := es.Count
			if n > 20 {
				n = 20
			}
			fmt.Printf("  %-10s %5d  %s\n", es.Ext, es.Count, strings.Repeat("█", n))
		}
	}

	return nil
}
