package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"

	"github.com/pders01/stackpack/internal/collector"
	"github.com/pders01/stackpack/internal/config"
	"github.com/pders01/stackpack/internal/filter"
	"github.com/pders01/stackpack/internal/models"
	"github.com/pders01/stackpack/internal/publish"
	"github.com/pders01/stackpack/internal/session"
)

var (
	watchOutput   string
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <folder>",
	Short: "Re-export a folder whenever it changes",
	Long: `Export <folder> once, then watch it and export again after every change.

A change that arrives while an export is still running cancels that export
and starts over, so the output directory always holds the newest complete
pair of artifacts. Press Ctrl+C to stop.

Examples:
  stackpack watch ./myapp
  stackpack watch ./myapp --output dist-artifacts --debounce 1s`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "Output directory (default: output.dir from config)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "Quiet period before re-exporting (default: watch.debounce from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	root, err := resolveFolder(args[0])
	if err != nil {
		return err
	}

	pipeline, err := newPipeline("", collector.Options{})
	if err != nil {
		return err
	}

	outputDir := watchOutput
	if outputDir == "" {
		outputDir = config.GetOutputDir()
	}
	debounce := watchDebounce
	if debounce <= 0 {
		debounce = config.GetWatchDebounce()
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := &folderWatcher{
		root:        root,
		outputDir:   outputDir,
		debounce:    debounce,
		rules:       pipeline.Rules,
		coordinator: session.NewCoordinator(pipeline),
		log:         pipeline.Logger,
	}

	fmt.Printf("Watching %s (Ctrl+C to stop)\n", root)
	return w.run(ctx)
}

// folderWatcher turns filesystem events into folder selections
type folderWatcher struct {
	root        string
	outputDir   string
	debounce    time.Duration
	rules       filter.Rules
	coordinator *session.Coordinator
	log         session.Logger
}

func (w *folderWatcher) run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.root); err != nil {
		return err
	}

	updates, unsubscribe := w.coordinator.Subscribe(16)

	var wg conc.WaitGroup
	wg.Go(func() {
		w.publishUpdates(updates)
	})

	var selections conc.WaitGroup
	trigger := func() {
		selections.Go(func() {
			// Outcomes are reported through updates
			if _, err := w.coordinator.Select(ctx, w.root); errors.Is(err, session.ErrSuperseded) {
				w.log.LogDebug("export superseded by a newer change")
			}
		})
	}

	trigger()
	err = w.loop(ctx, fw.Events, fw.Errors, func(path string) {
		if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
			if addErr := w.addTree(fw, path); addErr != nil {
				w.log.LogWarn(addErr.Error())
			}
		}
	}, trigger)

	selections.Wait()
	unsubscribe()
	wg.Wait()

	return err
}

// loop debounces relevant events into trigger calls until ctx is done.
// created is called for every Create event so new directories get watched.
func (w *folderWatcher) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, created func(path string), trigger func()) error {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.log.LogDebug(fmt.Sprintf("change: %s %s", event.Op, event.Name))
			if event.Has(fsnotify.Create) && created != nil {
				created(event.Name)
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			w.log.LogWarn(fmt.Sprintf("watch error: %v", err))

		case <-fire:
			fire = nil
			trigger()
		}
	}
}

// relevant drops events for our own output files and ignored paths
func (w *folderWatcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	name := filepath.Base(event.Name)
	switch {
	case name == models.JSONFileName,
		strings.HasPrefix(name, models.ArchiveBaseName),
		name == publish.LockFileName,
		strings.HasPrefix(name, ".tmp-"):
		return false
	}

	rel, err := filepath.Rel(filepath.Dir(w.root), event.Name)
	if err != nil {
		return true
	}
	return !w.rules.IgnoredPath(filepath.ToSlash(rel))
}

// addTree watches dir and every directory below it that is not ignored
func (w *folderWatcher) addTree(fw *fsnotify.Watcher, dir string) error {
	parent := filepath.Dir(w.root)
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root {
			if rel, relErr := filepath.Rel(parent, path); relErr == nil && w.rules.IgnoredPath(filepath.ToSlash(rel)) {
				return filepath.SkipDir
			}
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// publishUpdates writes every ready session until updates is closed
func (w *folderWatcher) publishUpdates(updates <-chan models.Session) {
	var lastID string
	for s := range updates {
		switch s.State {
		case models.StateReady:
			if s.ID == lastID {
				continue
			}
			lastID = s.ID
			paths, err := publish.Write(w.outputDir, s.Artifacts)
			if err != nil {
				w.log.LogError(fmt.Sprintf("failed to write artifacts: %v", err))
				continue
			}
			fmt.Printf("✓ Exported %d file(s) to %s\n", s.Artifacts.FileCount, strings.Join(paths, ", "))
		case models.StateFailed:
			fmt.Printf("✗ Export failed: %v\n", s.Err)
		}
	}
}
