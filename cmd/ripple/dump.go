package main

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"ripple/internal/diag"
	"ripple/internal/driver"
	"ripple/internal/observ"
)

var flagDumpTypes bool

func init() {
	dumpCmd.Flags().BoolVar(&flagDumpTypes, "types", false, "spew the full type-info store, not just its summary")
}

var dumpCmd = &cobra.Command{
	Use:   "dump <file.rast>",
	Short: "Check one module and dump its type-info summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		m, err := resolveManifest()
		if err != nil {
			return err
		}
		loader := driver.NewLoader()
		bag := diag.NewBag(m.MaxWarnings)
		resolver := driver.NewResolver(loader, m, diag.BagReporter{Bag: bag})

		timer := observ.NewTimer()
		loaded, info, err := resolver.CheckFile(args[0], timer)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		b := loaded.Builder
		fmt.Fprintf(out, "module %s (%s)\n", b.Module.Name, loaded.Path)
		fmt.Fprintf(out, "  members:     %d\n", len(b.Module.Members))
		fmt.Fprintf(out, "  exprs:       %d\n", b.Exprs.Arena.Len())
		fmt.Fprintf(out, "  strings:     %d\n", b.Strings.Len())
		stats := info.Stats()
		fmt.Fprintf(out, "  types:       %d\n", stats.Types)
		fmt.Fprintf(out, "  constexprs:  %d\n", stats.Constexprs)
		fmt.Fprintf(out, "  invocations: %d\n", stats.Invocations)
		fmt.Fprintf(out, "  imports:     %d\n", stats.Imports)
		fmt.Fprintf(out, "  warnings:    %d\n", bag.Len())
		fmt.Fprint(out, timer.Summary())

		if flagDumpTypes {
			dumper := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
			dumper.Fdump(out, info)
		}
		if !flagQuiet && bag.Len() > 0 {
			bag.Sort()
			diag.Render(os.Stderr, bag, loader.FileSet(), diag.RenderOpts{Color: colorize(os.Stderr)})
		}
		return nil
	},
}
