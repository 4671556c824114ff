package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	mcpserver "github.com/gnana997/propscan/pkg/mcp"
	"github.com/gnana997/propscan/pkg/output"
	"github.com/gnana997/propscan/pkg/watch"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		dir       string
		root      string
		autoWatch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start an MCP server over extracted component metadata",
		Long: `Serve component metadata to MCP clients on stdin/stdout.

By default the server loads a directory written by "propscan scan". With
--root it extracts the library in memory instead, and with --watch it
re-extracts whenever a source changes.

Tools: list_components, get_component, get_index, search_props.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if autoWatch && root == "" {
				return errors.New("--watch requires --root")
			}
			if dir == "" {
				dir = a.cfg.OutputDir
			}

			lib, err := a.loadLibrary(cmd.Context(), dir, root)
			if err != nil {
				return err
			}

			calls, err := mcpserver.OpenCallLog(a.cfg.CallLog)
			if err != nil {
				return err
			}
			if calls != nil {
				defer calls.Close()
			}

			srv, err := mcpserver.NewServer(lib, calls, a.logger)
			if err != nil {
				return err
			}

			if autoWatch {
				w, err := watch.New(root, func(changed []string) {
					next, _, err := a.extractLibrary(cmd.Context(), root)
					if err != nil {
						a.logger.Warn("re-extraction failed", "error", err)
						return
					}
					srv.SetLibrary(output.FromRun(next))
				}, watch.Options{}, a.logger)
				if err != nil {
					return err
				}
				if err := w.Start(); err != nil {
					return err
				}
				defer w.Stop()
			}

			if err := srv.ServeStdio(); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
	addExtractionFlags(cmd)
	cmd.Flags().StringVar(&dir, "dir", "", "Output directory written by scan (default: configured output_dir)")
	cmd.Flags().StringVar(&root, "root", "", "Extract this library root in memory instead of loading --dir")
	cmd.Flags().BoolVar(&autoWatch, "watch", false, "Re-extract when sources under --root change")
	cmd.Flags().String("call-log", "", "Append a JSONL record per tool call to this file")
	return cmd
}

func (a *app) loadLibrary(ctx context.Context, dir, root string) (*output.Library, error) {
	if root == "" {
		lib, err := output.Load(dir)
		if err != nil {
			return nil, fmt.Errorf("load %s (run propscan scan first): %w", dir, err)
		}
		return lib, nil
	}
	run, _, err := a.extractLibrary(ctx, root)
	if err != nil {
		return nil, err
	}
	return output.FromRun(run), nil
}
