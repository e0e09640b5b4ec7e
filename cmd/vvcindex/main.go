// Command vvcindex indexes H.266/VVC Annex B elementary streams and prints
// the frame index, sequence parameter sets and bitrate summary of each file.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zsiec/vvcindex/pipeline"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "vvcindex:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		flagCfg    Config
		debug      bool
	)

	cmd := &cobra.Command{
		Use:           "vvcindex [flags] <file> [file...]",
		Short:         "Index H.266/VVC Annex B streams.",
		Long:          "Split VVC Annex B files into NAL units, detect access units and print a seekable frame index with a bitrate summary.",
		Args:          cobra.MinimumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("output") {
				cfg.Output = flagCfg.Output
			}
			if flags.Changed("log-format") {
				cfg.LogFormat = flagCfg.LogFormat
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = flagCfg.LogLevel
			}
			if flags.Changed("workers") {
				cfg.Workers = flagCfg.Workers
			}
			if flags.Changed("window") {
				cfg.Window = flagCfg.Window
			}
			if flags.Changed("frame-rate") {
				cfg.FrameRate = flagCfg.FrameRate
			}
			if flags.Changed("labels") {
				cfg.Labels = flagCfg.Labels
			}
			if flags.Changed("trace") {
				cfg.Trace = flagCfg.Trace
			}
			if debug {
				cfg.LogLevel = "debug"
			}
			if err := cfg.validate(); err != nil {
				return err
			}

			slog.SetDefault(newLogger(cmd.ErrOrStderr(), cfg))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reports, err := indexFiles(ctx, args, cfg)
			if err != nil {
				return err
			}
			return writeReports(cmd.OutOrStdout(), cfg.Output, reports)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "YAML config file")
	f.StringVarP(&flagCfg.Output, "output", "o", "text", "report format: text, json or yaml")
	f.StringVar(&flagCfg.LogFormat, "log-format", "console", "log format: console, text or json")
	f.StringVar(&flagCfg.LogLevel, "log-level", "info", "log level: debug, info, warn or error")
	f.IntVarP(&flagCfg.Workers, "workers", "j", 0, "files indexed in parallel (default: number of CPUs)")
	f.IntVar(&flagCfg.Window, "window", 0, "access units averaged for the windowed bitrate")
	f.Float64Var(&flagCfg.FrameRate, "frame-rate", 0, "frame rate assumed for bitrate figures")
	f.BoolVar(&flagCfg.Labels, "labels", false, "include one label per NAL unit")
	f.BoolVar(&flagCfg.Trace, "trace", false, "include the per-access-unit bitrate trace")
	f.BoolVar(&debug, "debug", false, "enable debug logging")

	return cmd
}

// indexFiles indexes every path concurrently, at most cfg.Workers at a time,
// and returns the reports in argument order. Each file gets its own parser.
func indexFiles(ctx context.Context, paths []string, cfg Config) ([]pipeline.Report, error) {
	reports := make([]pipeline.Report, len(paths))
	pcfg := pipeline.Config{
		Window:    cfg.Window,
		FrameRate: cfg.FrameRate,
		Labels:    cfg.Labels,
		Trace:     cfg.Trace,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			slog.Debug("indexing", "file", path)
			rep, err := pipeline.New(filepath.Base(path), f, pcfg).Run(ctx)
			if err != nil {
				return err
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
