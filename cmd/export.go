package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pders01/stackpack/internal/collector"
	"github.com/pders01/stackpack/internal/config"
	"github.com/pders01/stackpack/internal/publish"
	"github.com/pders01/stackpack/internal/session"
)

var (
	exportOutput      string
	exportFormat      string
	exportStrict      bool
	exportConcurrency int
)

var exportCmd = &cobra.Command{
	Use:   "export <folder>",
	Short: "Export a folder as JSON and archive artifacts",
	Long: `Read every eligible file under <folder> and write both artifacts:
  stackblitz-project.json and stackblitz-project.zip

Paths inside the artifacts are relative to <folder> itself, so
myapp/src/main.js is stored as src/main.js.

Examples:
  stackpack export ./myapp
  stackpack export ./myapp --output dist-artifacts
  stackpack export ./myapp --format tar.gz
  stackpack export ./myapp --strict     # fail when two files map to one path`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output directory (default: output.dir from config)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "Archive format: zip|tar.gz")
	exportCmd.Flags().BoolVar(&exportStrict, "strict", false, "Fail on path collisions instead of keeping the last file")
	exportCmd.Flags().IntVar(&exportConcurrency, "concurrency", 0, "Maximum parallel reads (0 = unbounded)")
}

func runExport(cmd *cobra.Command, args []string) error {
	root, err := resolveFolder(args[0])
	if err != nil {
		return err
	}

	opts := collector.Options{MaxConcurrency: exportConcurrency}
	if exportStrict {
		opts.Collision = collector.CollisionError
	}

	pipeline, err := newPipeline(exportFormat, opts)
	if err != nil {
		return err
	}

	outputDir := exportOutput
	if outputDir == "" {
		outputDir = config.GetOutputDir()
	}

	coordinator := session.NewCoordinator(pipeline)
	s, err := coordinator.Select(commandContext(cmd), root)

	fmt.Printf("Selected: %s\n", root)
	fmt.Printf("Files:    %d\n", len(s.Entries))

	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if s.Mapping.Len() < len(s.Entries) {
		fmt.Printf("Note:     %d file(s) replaced by a later file with the same path\n", len(s.Entries)-s.Mapping.Len())
	}

	paths, err := publish.Write(outputDir, s.Artifacts)
	if err != nil {
		return fmt.Errorf("failed to write artifacts: %w", err)
	}

	fmt.Printf("\n✓ Exported %d file(s)\n", s.Artifacts.FileCount)
	for _, p := range paths {
		fmt.Printf("  %s\n", p)
	}

	return nil
}
