package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/pders01/stackpack/internal/config"
	"github.com/pders01/stackpack/internal/publish"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default configuration file",
	Long: `Write ~/.config/stackpack/config.toml with the built-in defaults:
  - The ignore list and allowed extensions
  - Collision policy and read concurrency
  - Archive format, output directory and log level

An existing file is left untouched unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := defaultConfigDir()
	if err != nil {
		return err
	}
	configPath := filepath.Join(configDir, "config.toml")

	if _, err := os.Stat(configPath); err == nil && !initForce {
		fmt.Printf("Config already exists: %s\n", configPath)
		return nil
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config.Defaults()); err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}

	if err := publish.AtomicWrite(configPath, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	fmt.Printf("✓ Created default config: %s\n", configPath)
	fmt.Println("  You can now use: stackpack export <folder>")

	return nil
}
