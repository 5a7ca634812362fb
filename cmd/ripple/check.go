package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ripple/internal/diag"
	"ripple/internal/driver"
)

var (
	flagManifest string
	flagTimings  bool
)

func init() {
	checkCmd.Flags().StringVar(&flagManifest, "manifest", "", "path to ripple.toml (default: search upward from the working directory)")
	checkCmd.Flags().BoolVar(&flagTimings, "timings", false, "print per-module phase timings")
}

var checkCmd = &cobra.Command{
	Use:   "check <file.rast>...",
	Short: "Type check module archives",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		m, err := resolveManifest()
		if err != nil {
			return err
		}
		if flagMaxWarnings > 0 {
			m.MaxWarnings = flagMaxWarnings
		}

		p := driver.NewProject(m)
		results, err := p.CheckProject(cmd.Context(), args)
		if err != nil {
			return err
		}

		useColor := colorize(os.Stderr)
		failed := 0
		for _, res := range results {
			if !flagQuiet && res.Bag != nil && res.Bag.Len() > 0 {
				res.Bag.Sort()
				diag.Render(os.Stderr, res.Bag, p.Loader.FileSet(), diag.RenderOpts{Color: useColor})
			}
			if res.Err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "%s: %v\n", res.Path, res.Err)
				continue
			}
			if !flagQuiet {
				fmt.Fprintf(cmd.OutOrStdout(), "ok %s\n", res.Path)
			}
			if flagTimings {
				for _, p := range res.Timing.Phases {
					fmt.Fprintf(cmd.OutOrStdout(), "  %-8s %7.2f ms  %s\n", p.Name, p.DurationMS, p.Note)
				}
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d module(s) failed type checking", failed, len(results))
		}
		return nil
	},
}

// resolveManifest honors --manifest, falls back to walking up from the
// working directory, and synthesizes a bare manifest when none exists.
func resolveManifest() (driver.Manifest, error) {
	if flagManifest != "" {
		return driver.LoadManifest(flagManifest)
	}
	path, ok, err := driver.FindManifest(".")
	if err != nil {
		return driver.Manifest{}, err
	}
	if ok {
		return driver.LoadManifest(path)
	}
	return driver.DefaultManifest("."), nil
}
