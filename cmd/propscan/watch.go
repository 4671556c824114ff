package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/gnana997/propscan/pkg/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		debounce time.Duration
		ignore   []string
	)
	cmd := &cobra.Command{
		Use:   "watch [root]",
		Short: "Scan a library, then rescan whenever its sources change",
		Long: `Run scan once, then watch root and its subdirectories and run a full
scan again after changes to .ts, .tsx or .d.ts files settle. Stops on
interrupt.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			root := a.libraryRoot(args, 0)
			out := cmd.OutOrStdout()

			if _, err := a.scan(ctx, root, out); err != nil {
				return err
			}

			w, err := watch.New(root, func(changed []string) {
				a.logger.Info("sources changed", "files", len(changed))
				if _, err := a.scan(ctx, root, out); err != nil {
					a.logger.Warn("rescan failed", "error", err)
				}
			}, watch.Options{Debounce: debounce, Ignore: ignore}, a.logger)
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				return err
			}

			<-ctx.Done()
			return w.Stop()
		},
	}
	addExtractionFlags(cmd)
	cmd.Flags().String("out", defaultOutputDir, "Output directory")
	cmd.Flags().String("suffix", "", "Suffix appended to component file names")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before a rescan")
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "Glob patterns to ignore, relative to root")
	return cmd
}
