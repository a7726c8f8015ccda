package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/libidevices/libidevices-support/array"
)

var (
	rootCmd = &cobra.Command{
		Use:   "example <device-names>",
		Short: "Match device names against a list of known identifiers",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}

	known   string
	delims  string
	verbose bool
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&known, "known", "iPhone,iPad,iPod", "list of known identifiers")
	flags.StringVar(&delims, "delims", ",", "characters separating identifiers")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func setupLogging() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		AddSource:  verbose,
		Level:      level,
		TimeFormat: time.DateTime,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)
	return logger
}

func run(cmd *cobra.Command, args []string) error {
	logger := setupLogging()

	ar := array.NewArena(array.WithLogger(logger))
	defer ar.Reset()

	knownIDs, err := array.Split(ar, known, delims)
	if err != nil {
		return fmt.Errorf("failed to parse known identifiers: %w", err)
	}
	array.Debug(logger, "known", knownIDs.Array)

	devices, err := array.Split(ar, args[0], delims)
	if err != nil {
		return fmt.Errorf("failed to parse device names: %w", err)
	}
	array.Debug(logger, "devices", devices.Array)

	all, err := array.Join(knownIDs.Array, devices.Array)
	if err != nil {
		return err
	}
	array.Debug(logger, "all", all)

	for index, device := range devices.Iter() {
		switch {
		case array.ContainsString(knownIDs.Array, device):
			fmt.Fprintf(cmd.OutOrStdout(), "%d: %s: known\n", index, device)
		case array.SubstringMatchAny(knownIDs.Array, device):
			fmt.Fprintf(cmd.OutOrStdout(), "%d: %s: model of a known family\n", index, device)
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "%d: %s: unknown\n", index, device)
		}
	}

	all.Release()
	if err := devices.ReleaseAll(); err != nil {
		return err
	}
	if err := knownIDs.ReleaseAll(); err != nil {
		return err
	}
	logger.Debug("released identifier arrays", "live", ar.Live())
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
