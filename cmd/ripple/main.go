package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ripple/internal/prof"
	"ripple/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "ripple",
	Short: "Ripple hardware DSL type checker",
	Long:  `Ripple type-checks .rast module archives produced by the front end`,
}

var (
	flagColor       string
	flagQuiet       bool
	flagMaxWarnings int
	flagCPUProfile  string
	flagMemProfile  string
)

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().BoolVar(&flagQuiet, "quiet", false, "suppress warnings, print errors only")
	rootCmd.PersistentFlags().IntVar(&flagMaxWarnings, "max-warnings", 0, "cap collected diagnostics (0 uses the manifest setting)")
	rootCmd.PersistentFlags().StringVar(&flagCPUProfile, "cpuprofile", "", "write a CPU profile to the given file")
	rootCmd.PersistentFlags().StringVar(&flagMemProfile, "memprofile", "", "write a heap profile to the given file on exit")

	rootCmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		if flagCPUProfile == "" {
			return nil
		}
		return prof.StartCPU(flagCPUProfile)
	}
	rootCmd.PersistentPostRunE = func(*cobra.Command, []string) error {
		if flagCPUProfile != "" {
			prof.StopCPU()
		}
		if flagMemProfile != "" {
			return prof.WriteMem(flagMemProfile)
		}
		return nil
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// colorize resolves the --color mode against the output terminal and keeps
// the fatih/color global in agreement with it.
func colorize(f *os.File) bool {
	var on bool
	switch flagColor {
	case "on":
		on = true
	case "off":
		on = false
	default:
		on = isTerminal(f)
	}
	color.NoColor = !on
	return on
}
