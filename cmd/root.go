package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pders01/stackpack/internal/artifact"
	"github.com/pders01/stackpack/internal/collector"
	"github.com/pders01/stackpack/internal/config"
	"github.com/pders01/stackpack/internal/filter"
	"github.com/pders01/stackpack/internal/logger"
	"github.com/pders01/stackpack/internal/models"
	"github.com/pders01/stackpack/internal/session"
	"github.com/pders01/stackpack/internal/source"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "stackpack",
	Short: "Bundle a project folder into a StackBlitz-ready JSON and zip",
	Long: `stackpack reads a project folder and produces two equivalent artifacts:
  - stackblitz-project.json  an object mapping relative paths to file contents
  - stackblitz-project.zip   an archive with the same files at the same paths

Dependency folders, build output and lockfiles are skipped, and only text
files with known web extensions are included. Both lists are configurable.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/stackpack/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace|debug|info|warn|error")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		configDir, err := defaultConfigDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		viper.AddConfigPath(configDir)
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	bindEnv()
	config.SetDefaults()

	if err := viper.ReadInConfig(); err == nil {
		newLogger().LogDebug("Using config file: " + viper.ConfigFileUsed())
	}
}

// bindEnv maps STACKPACK_FILTER_IGNORE and friends onto config keys
func bindEnv() {
	viper.SetEnvPrefix("stackpack")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "stackpack"), nil
}

func newLogger() *logger.ConsoleLogger {
	level := logLevel
	if level == "" {
		level = config.GetLogLevel()
	}
	return logger.NewConsoleLogger(os.Stderr, level)
}

// commandContext tolerates the nil command passed by tests
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// resolveFolder turns a folder argument into a clean absolute path
func resolveFolder(arg string) (string, error) {
	root, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", arg, err)
	}
	if _, err := os.Stat(root); err != nil {
		return "", fmt.Errorf("failed to access %s: %w", arg, err)
	}
	return root, nil
}

// newProvider enumerates the OS filesystem, pruning ignored directories
func newProvider(rules filter.Rules) *source.Provider {
	return source.NewOsProvider(source.WithSkipDir(rules.IgnoredPath))
}

// newPipeline assembles the export pipeline from configuration. format and
// opts override configured values when non-zero.
func newPipeline(format string, opts collector.Options) (session.Pipeline, error) {
	if format == "" {
		format = config.GetArchiveFormat()
	}
	enc, err := artifact.NewEncoder(format)
	if err != nil {
		return session.Pipeline{}, err
	}

	configured, err := config.GetCollectOptions()
	if err != nil {
		return session.Pipeline{}, err
	}
	if opts.Collision == "" {
		opts.Collision = configured.Collision
	}
	if opts.MaxConcurrency == 0 {
		opts.MaxConcurrency = configured.MaxConcurrency
	}

	rules := withOutputNames(config.GetRules(), enc)

	return session.Pipeline{
		Source:  newProvider(rules),
		Rules:   rules,
		Encoder: enc,
		Collect: opts,
		Logger:  newLogger(),
	}, nil
}

// withOutputNames ignores our own artifacts so an output directory inside
// the selected folder is never exported into itself
func withOutputNames(rules filter.Rules, enc artifact.Encoder) filter.Rules {
	ignore := make([]string, 0, len(rules.IgnoreList)+2)
	ignore = append(ignore, rules.IgnoreList...)
	ignore = append(ignore, models.JSONFileName, models.ArchiveBaseName+enc.Extension())
	rules.IgnoreList = ignore
	return rules
}
