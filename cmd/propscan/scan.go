package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gnana997/propscan/pkg/discovery"
	"github.com/gnana997/propscan/pkg/extract"
	"github.com/gnana997/propscan/pkg/output"
)

// errComponentsFailed is returned by scan --strict when any component failed.
var errComponentsFailed = errors.New("some components failed to extract")

func newScanCmd(a *app) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "Extract every component of a library and write the results",
		Long: `Discover the components under root (one upper-case directory per
component), extract each one and write <name>[-suffix].json files, index.json
and all_components.json to the output directory.

Component failures are listed but do not fail the command unless --strict.

Examples:
  propscan scan node_modules/@mui/material --import-prefix @mui/material
  propscan scan ./lib --out ./meta --suffix auto --workers 8`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := a.libraryRoot(args, 0)
			run, err := a.scan(cmd.Context(), root, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if strict && len(run.Failures) > 0 {
				return fmt.Errorf("%w: %d of %d", errComponentsFailed,
					len(run.Failures), len(run.Failures)+len(run.Results))
			}
			return nil
		},
	}
	addExtractionFlags(cmd)
	cmd.Flags().String("out", defaultOutputDir, "Output directory")
	cmd.Flags().String("suffix", "", "Suffix appended to component file names")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any component fails")
	return cmd
}

func (a *app) writer() output.Writer {
	return output.Writer{Dir: a.cfg.OutputDir, Suffix: a.cfg.FileSuffix}
}

func (a *app) newExtractor() *extract.Extractor {
	return extract.NewExtractor(extract.Options{
		Workers:              a.cfg.Workers,
		AllowPartialParse:    a.cfg.AllowPartialParse,
		SummaryAsDescription: a.cfg.SummaryAsDescription,
		IndexDescription:     a.cfg.IndexDescription,
		IndexVersion:         a.cfg.IndexVersion,
		FileName:             a.writer().FileName,
	}, a.logger)
}

func (a *app) discoveryConfig() discovery.Config {
	dc := discovery.DefaultConfig()
	dc.ImportPrefix = a.cfg.ImportPrefix
	if len(a.cfg.Include) > 0 {
		dc.Include = a.cfg.Include
	}
	dc.Exclude = append(dc.Exclude, a.cfg.Exclude...)
	return dc
}

// extractLibrary discovers and extracts root without writing anything.
func (a *app) extractLibrary(ctx context.Context, root string) (*extract.RunResult, []string, error) {
	descs, err := discovery.DiscoverComponents(root, a.discoveryConfig())
	if err != nil {
		return nil, nil, err
	}
	exports, err := discovery.ReadExportMap(root)
	if err != nil {
		a.logger.Warn("package.json exports unreadable", "root", root, "error", err)
	}
	a.logger.Info("components discovered", "root", root, "components", len(descs), "exports", len(exports))

	ext := a.newExtractor()
	defer ext.Close()
	run, err := ext.Run(ctx, root, descs)
	if err != nil {
		return nil, nil, err
	}
	return run, exports, nil
}

// scan extracts root, writes the output directory and prints a summary.
func (a *app) scan(ctx context.Context, root string, out io.Writer) (*extract.RunResult, error) {
	run, exports, err := a.extractLibrary(ctx, root)
	if err != nil {
		return nil, err
	}
	w := a.writer()
	if err := w.WriteRun(run); err != nil {
		return nil, err
	}
	printScanSummary(out, root, w.Dir, run, exports)
	return run, nil
}

func printScanSummary(out io.Writer, root, dir string, run *extract.RunResult, exports []string) {
	props, events := 0, 0
	for _, r := range run.Results {
		props += len(r.Props)
		events += len(r.Events)
	}

	fmt.Fprintf(out, "Scanned %s\n", root)
	if len(exports) > 0 {
		fmt.Fprintf(out, "  %d components listed in package exports\n", len(exports))
	}
	fmt.Fprintf(out, "  %d components extracted (%d props, %d events)\n", len(run.Results), props, events)

	var noMatch []string
	for _, d := range run.Diagnostics {
		if d.Kind == extract.DiagNoMatchingInterface {
			noMatch = append(noMatch, d.ComponentName)
		}
	}
	if len(noMatch) > 0 {
		fmt.Fprintf(out, "  %d without a props declaration: %v\n", len(noMatch), noMatch)
	}

	if len(run.Failures) > 0 {
		fmt.Fprintf(out, "  %d failed\n", len(run.Failures))
		for _, f := range run.Failures {
			fmt.Fprintf(out, "    %s [%s] %s\n", f.ComponentName, f.Kind, f.Reason)
		}
	}
	fmt.Fprintf(out, "Wrote %s\n", filepath.Join(dir, output.IndexFile))
}
