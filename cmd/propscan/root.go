package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gnana997/propscan/pkg/util"
)

const version = "0.1.0-dev"

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	getenv     func(string) string

	cfg    Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{getenv: os.Getenv}

	root := &cobra.Command{
		Use:   "propscan",
		Short: "Extract component props, events and docs from TypeScript declarations",
		Long: `propscan reads a component library's TypeScript declaration files and
writes one JSON contract per component: its props with rendered types,
required flags, JSDoc descriptions and defaults, and the on<Event> handlers.

Configuration is read from .propscan/config.yaml, then PROPSCAN_* environment
variables, then flags; later sources win.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", defaultConfigPath, "Path to the config file")
	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newScanCmd(a),
		newInspectCmd(a),
		newServeCmd(a),
		newWatchCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := resolveConfig(a.configPath, cmd.Flags(), a.getenv)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = util.NewLogger(util.LoggerConfig{
		Level:  util.ParseLogLevel(cfg.LogLevel),
		Format: util.ParseLogFormat(cfg.LogFormat),
		Output: cmd.ErrOrStderr(),
	})
	return nil
}

// libraryRoot returns the positional root argument at index i, or the
// configured root.
func (a *app) libraryRoot(args []string, i int) string {
	if len(args) > i && args[i] != "" {
		return args[i]
	}
	return a.cfg.LibraryRoot
}

// addExtractionFlags registers the flags shared by commands that extract.
func addExtractionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("import-prefix", "", "Import path prefix, e.g. @mui/material")
	f.StringSlice("include", nil, "Glob patterns of component sources to include")
	f.StringSlice("exclude", nil, "Glob patterns of component sources to exclude")
	f.Int("workers", 0, "Concurrent extraction workers (0 = auto)")
	f.Bool("allow-partial", false, "Extract from sources with syntax errors instead of failing them")
	f.Bool("summary-as-description", false, "Use untagged JSDoc text when a member has no @description")
	f.String("index-description", "", "Description stored in index.json")
	f.String("index-version", "", "Version stored in index.json")
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "propscan %s\n", version)
		},
	}
}
