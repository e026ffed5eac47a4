// Command cifcheck is a thin front end over the cif package: load a file,
// optionally validate it against a dictionary, run a query against one of
// its categories, and write it back out. It is an external collaborator of
// the library, not part of it, and imports cif the way any other consumer
// would.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "cifcheck: %v\n", err)
		os.Exit(1)
	}
}

// cliOptions holds the persistent flags shared by every subcommand.
type cliOptions struct {
	logLevel      string
	dictionaryDir string
	dictionary    string
	strict        bool

	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:           "cifcheck",
		Short:         "Load, validate, query and rewrite CIF/mmCIF files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.logger = newLogger(opts.logLevel)
			slog.SetDefault(opts.logger)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.dictionaryDir, "dictionary-dir", "", "directory of on-disk dictionaries, watched for changes (optional)")
	root.PersistentFlags().StringVar(&opts.dictionary, "dictionary", "core_dictionary.cif", "name of the dictionary resource to compile and attach")
	root.PersistentFlags().BoolVar(&opts.strict, "strict", false, "fail on the first validation violation instead of accumulating a report")

	root.AddCommand(newValidateCmd(opts))
	root.AddCommand(newQueryCmd(opts))
	root.AddCommand(newWriteCmd(opts))
	return root
}

// newLogger builds the tint-backed slog.Logger every subcommand logs
// through, colorizing output when stderr is a terminal and suppressing
// color otherwise (e.g. when piped into a file or CI log collector).
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      lvl,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				if t, ok := a.Value.Any().(time.Time); ok && t.IsZero() {
					return slog.Attr{}
				}
			}
			return a
		},
	}))
}
