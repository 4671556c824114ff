package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gnana997/propscan/pkg/discovery"
	"github.com/gnana997/propscan/pkg/extract"
)

const noDefault = "—"

func newInspectCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect <component> [root]",
		Short: "Extract one component and print its props and events",
		Long: `Extract a single component and print a props table followed by its
events. The component is looked up among the discovered components of root,
case-insensitively.

Examples:
  propscan inspect Button node_modules/@mui/material
  propscan inspect textfield ./lib --json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := a.libraryRoot(args, 1)
			descs, err := discovery.DiscoverComponents(root, a.discoveryConfig())
			if err != nil {
				return err
			}
			desc, ok := findDescriptor(descs, args[0])
			if !ok {
				return fmt.Errorf("component %q not found under %s", args[0], root)
			}
			if !filepath.IsAbs(desc.SourcePath) {
				desc.SourcePath = filepath.Join(root, desc.SourcePath)
			}

			ext := a.newExtractor()
			defer ext.Close()
			res, diags, err := ext.ExtractComponent(cmd.Context(), desc)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printComponent(out, res, desc.SourcePath)
			for _, d := range diags {
				fmt.Fprintf(out, "\nnote: %s", d.Detail)
				if d.Member != "" {
					fmt.Fprintf(out, " (%s)", d.Member)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	addExtractionFlags(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the component record as JSON")
	return cmd
}

func findDescriptor(descs []extract.ComponentDescriptor, name string) (extract.ComponentDescriptor, bool) {
	for _, d := range descs {
		if d.Name == name {
			return d, true
		}
	}
	for _, d := range descs {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return extract.ComponentDescriptor{}, false
}

// printComponent prints a human-readable component summary.
func printComponent(out io.Writer, res *extract.ComponentResult, source string) {
	fmt.Fprintln(out, res.ComponentName)
	fmt.Fprintf(out, "  import from %q\n", res.ImportPath)
	fmt.Fprintf(out, "  source %s\n", source)

	fmt.Fprintln(out)
	printPropsSection(out, "Props", res.Props)

	fmt.Fprintln(out)
	printEventsSection(out, res.Events)
}

// printPropsSection renders the props table with dynamic column widths.
func printPropsSection(out io.Writer, title string, props []extract.MemberRecord) {
	if len(props) == 0 {
		fmt.Fprintf(out, "%s  (none)\n", title)
		return
	}

	fmt.Fprintln(out, title)

	nameW := len("NAME")
	typeW := len("TYPE")
	defW := len("DEFAULT")
	for _, p := range props {
		nameW = max(nameW, len(p.Name))
		typeW = max(typeW, len(p.Type))
		defW = max(defW, len(defaultText(p)))
	}

	sepLen := nameW + typeW + 5 + defW + 4
	fmt.Fprintf(out, "  %-*s  %-*s  %-3s  %-*s\n", nameW, "NAME", typeW, "TYPE", "REQ", defW, "DEFAULT")
	fmt.Fprintf(out, "  %s\n", strings.Repeat("─", sepLen))

	for _, p := range props {
		req := "no"
		if p.Required {
			req = "yes"
		}
		fmt.Fprintf(out, "  %-*s  %-*s  %-3s  %-*s\n",
			nameW, p.Name, typeW, p.Type, req, defW, defaultText(p))
		if p.Description != "" && p.Description != extract.FallbackDescription(p.Name) {
			fmt.Fprintf(out, "  %s  %s\n", strings.Repeat(" ", nameW), p.Description)
		}
	}
}

func printEventsSection(out io.Writer, events []extract.EventRecord) {
	if len(events) == 0 {
		fmt.Fprintln(out, "Events  (none)")
		return
	}
	fmt.Fprintln(out, "Events")
	nameW := 0
	for _, e := range events {
		nameW = max(nameW, len(e.Name))
	}
	for _, e := range events {
		fmt.Fprintf(out, "  %-*s  %s\n", nameW, e.Name, e.Type)
	}
}

// defaultText distinguishes an absent default from an empty one.
func defaultText(p extract.MemberRecord) string {
	switch {
	case p.Default == nil:
		return noDefault
	case *p.Default == "":
		return `""`
	default:
		return *p.Default
	}
}
