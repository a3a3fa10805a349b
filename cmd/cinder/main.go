package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"cinder/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "cinder",
	Short: "Cinder bytecode virtual machine",
	Long:  `Cinder is a stack-based bytecode VM with mark-sweep garbage collection`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupColor(cmd)
	},
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupColor resolves the --color flag; "auto" enables color only when
// stdout is a terminal.
func setupColor(cmd *cobra.Command) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		color.NoColor = !isTerminal(os.Stdout)
	}
	return nil
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
