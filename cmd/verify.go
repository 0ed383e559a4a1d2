package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pders01/stackpack/internal/artifact"
	"github.com/pders01/stackpack/internal/config"
	"github.com/pders01/stackpack/internal/models"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [output-dir]",
	Short: "Check that written artifacts hold the same files",
	Long: `Read stackblitz-project.json and the archive next to it and check that
both contain exactly the same paths with exactly the same contents.

The directory defaults to output.dir from config.

Examples:
  stackpack verify
  stackpack verify dist-artifacts`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

// archiveExtensions are tried in order when looking for the archive
var archiveExtensions = []string{".zip", ".tar.gz"}

func runVerify(cmd *cobra.Command, args []string) error {
	dir := config.GetOutputDir()
	if len(args) > 0 {
		dir = args[0]
	}

	jsonPath := filepath.Join(dir, models.JSONFileName)
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", jsonPath, err)
	}
	fromJSON, err := artifact.DecodeJSON(data)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", jsonPath, err)
	}

	archivePath, ext, err := findArchive(dir)
	if err != nil {
		return err
	}
	archiveData, err := os.ReadFile(archivePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", archivePath, err)
	}
	fromArchive, err := artifact.ReadArchive(ext, archiveData)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", archivePath, err)
	}

	if missing := diffKeys(fromJSON, fromArchive); len(missing) > 0 {
		for _, p := range missing {
			fmt.Printf("  ✗ %s\n", p)
		}
		return fmt.Errorf("artifacts differ in %d path(s)", len(missing))
	}

	fmt.Printf("✓ %s and %s match (%d file(s))\n", models.JSONFileName, filepath.Base(archivePath), fromJSON.Len())
	return nil
}

func findArchive(dir string) (string, string, error) {
	for _, ext := range archiveExtensions {
		path := filepath.Join(dir, models.ArchiveBaseName+ext)
		if _, err := os.Stat(path); err == nil {
			return path, ext, nil
		}
	}
	return "", "", fmt.Errorf("no archive found in %s", dir)
}

// diffKeys lists every path whose presence or content differs
func diffKeys(a, b *models.ContentMapping) []string {
	if a.Equal(b) {
		return nil
	}

	var diff []string
	a.Each(func(path, content string) {
		if other, ok := b.Get(path); !ok || other != content {
			diff = append(diff, path)
		}
	})
	b.Each(func(path, _ string) {
		if _, ok := a.Get(path); !ok {
			diff = append(diff, path)
		}
	})
	return diff
}
