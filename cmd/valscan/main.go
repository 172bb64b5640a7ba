package main

import (
	"fmt"
	"os"

	"valscan/config"

	"github.com/spf13/cobra"
)

var cfg = config.New()

var rootCmd = &cobra.Command{
	Use:           "valscan",
	Short:         "Find and narrow down the addresses of a 32-bit value in a running process",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cfg.Init()
	},
}

func init() {
	cfg.MustViperize(rootCmd)

	rootCmd.AddCommand(psCmd)
	rootCmd.AddCommand(mapsCmd)
	rootCmd.AddCommand(scanCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
