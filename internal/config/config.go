package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/pders01/stackpack/internal/collector"
	"github.com/pders01/stackpack/internal/filter"
)

// Keys understood in config.toml and as STACKPACK_* environment variables
const (
	KeyIgnore          = "filter.ignore"
	KeyExtensions      = "filter.extensions"
	KeyCollisionPolicy = "collect.collision_policy"
	KeyMaxConcurrency  = "collect.max_concurrency"
	KeyArchiveFormat   = "archive.format"
	KeyOutputDir       = "output.dir"
	KeyLogLevel        = "log.level"
	KeyWatchDebounce   = "watch.debounce"
)

// File is the on-disk layout of config.toml
type File struct {
	Filter  FilterSection  `toml:"filter"`
	Collect CollectSection `toml:"collect"`
	Archive ArchiveSection `toml:"archive"`
	Output  OutputSection  `toml:"output"`
	Log     LogSection     `toml:"log"`
	Watch   WatchSection   `toml:"watch"`
}

type FilterSection struct {
	Ignore     []string `toml:"ignore"`
	Extensions []string `toml:"extensions"`
}

type CollectSection struct {
	CollisionPolicy string `toml:"collision_policy"`
	MaxConcurrency  int    `toml:"max_concurrency"`
}

type ArchiveSection struct {
	Format string `toml:"format"`
}

type OutputSection struct {
	Dir string `toml:"dir"`
}

type LogSection struct {
	Level string `toml:"level"`
}

type WatchSection struct {
	Debounce string `toml:"debounce"`
}

// Defaults returns the built-in configuration
func Defaults() File {
	rules := filter.DefaultRules()
	return File{
		Filter: FilterSection{
			Ignore:     rules.IgnoreList,
			Extensions: rules.AllowedExtensions,
		},
		Collect: CollectSection{
			CollisionPolicy: string(collector.CollisionOverwrite),
			MaxConcurrency:  0,
		},
		Archive: ArchiveSection{Format: "zip"},
		Output:  OutputSection{Dir: "."},
		Log:     LogSection{Level: "info"},
		Watch:   WatchSection{Debounce: "300ms"},
	}
}

// SetDefaults registers Defaults with viper
func SetDefaults() {
	d := Defaults()
	viper.SetDefault(KeyIgnore, d.Filter.Ignore)
	viper.SetDefault(KeyExtensions, d.Filter.Extensions)
	viper.SetDefault(KeyCollisionPolicy, d.Collect.CollisionPolicy)
	viper.SetDefault(KeyMaxConcurrency, d.Collect.MaxConcurrency)
	viper.SetDefault(KeyArchiveFormat, d.Archive.Format)
	viper.SetDefault(KeyOutputDir, d.Output.Dir)
	viper.SetDefault(KeyLogLevel, d.Log.Level)
	viper.SetDefault(KeyWatchDebounce, d.Watch.Debounce)
}

// GetRules returns the configured filter rules
func GetRules() filter.Rules {
	return filter.Rules{
		IgnoreList:        viper.GetStringSlice(KeyIgnore),
		AllowedExtensions: viper.GetStringSlice(KeyExtensions),
	}
}

// GetCollectOptions returns the validated collector options
func GetCollectOptions() (collector.Options, error) {
	policy, err := collector.ParseCollisionPolicy(viper.GetString(KeyCollisionPolicy))
	if err != nil {
		return collector.Options{}, err
	}
	return collector.Options{
		Collision:      policy,
		MaxConcurrency: viper.GetInt(KeyMaxConcurrency),
	}, nil
}

// GetArchiveFormat returns the archive format name
func GetArchiveFormat() string {
	return viper.GetString(KeyArchiveFormat)
}

// GetOutputDir returns where artifacts are written
func GetOutputDir() string {
	return viper.GetString(KeyOutputDir)
}

// GetLogLevel returns the logger level
func GetLogLevel() string {
	return viper.GetString(KeyLogLevel)
}

// GetWatchDebounce returns the quiet period before a change triggers a new
// selection. Unparsable values fall back to the default.
func GetWatchDebounce() time.Duration {
	d := viper.GetDuration(KeyWatchDebounce)
	if d <= 0 {
		d, _ = time.ParseDuration(Defaults().Watch.Debounce)
	}
	return d
}
