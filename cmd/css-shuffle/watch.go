package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	cssshuffle "github.com/M3DZIK/css-shuffle"
	"github.com/M3DZIK/css-shuffle/internal/watcher"
)

const watchDebounce = 200 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [input] --output <dir>",
	Short: "Rebuild the output directory whenever the input changes",
	Long: `Run once, then watch the input directory and rerun on every change.
A separate --output directory is required: rewriting in place would feed the
watcher its own output.`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runWatch,
}

func init() {
	addRunFlags(watchCmd)
	addReportFlags(watchCmd)
}

var errWatchInPlace = errors.New("watch requires an --output directory different from the input")

func runWatch(cmd *cobra.Command, args []string) error {
	config := buildConfig(args)

	input, err := filepath.Abs(config.InputDir)
	if err != nil {
		return err
	}
	if config.OutputDir == "" {
		return errWatchInPlace
	}
	output, err := filepath.Abs(config.OutputDir)
	if err != nil {
		return err
	}
	if input == output {
		return errWatchInPlace
	}

	ctx := cmd.Context()
	log := config.Logger.WithComponent("watch")

	rebuild := func() error {
		result, err := cssshuffle.Obfuscate(ctx, config)
		if err != nil {
			return fmt.Errorf("obfuscation failed: %w", err)
		}
		if path := getStringWithFallback("mapping-file", "mapping.file", ""); path != "" {
			if err := writeMappingFile(path, result.Mapping()); err != nil {
				return err
			}
		}
		return writeReport(cmd.OutOrStdout(), result)
	}

	if err := rebuild(); err != nil {
		return err
	}

	fw, err := watcher.NewFileWatcher(watchDebounce, config.Logger)
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	fw.AddFilter(watcher.ExcludeDirFilter(output))
	fw.AddFilter(watcher.NoGitFilter)
	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		log.Info(ctx, "Input changed, rebuilding", "events", len(events), "first", events[0].Path)
		if err := rebuild(); err != nil {
			log.Error(ctx, err, "Rebuild failed")
		}
		return nil
	})
	if err := fw.AddRecursive(input); err != nil {
		_ = fw.Stop()
		return fmt.Errorf("watching %s: %w", input, err)
	}

	fw.Start(ctx)
	if !getBoolWithFallback("quiet", "quiet", false) {
		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", config.InputDir)
	}

	<-ctx.Done()
	if err := fw.Stop(); err != nil {
		return err
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}
