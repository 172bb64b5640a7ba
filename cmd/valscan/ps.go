package main

import (
	"os"
	"strings"

	"valscan/process"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var psCmd = &cobra.Command{
	Use:   "ps [substring]",
	Short: "List processes, optionally only those whose command line contains substring",
	Args:  cobra.MaximumNArgs(1),
	RunE:  listProcesses,
}

func listProcesses(cmd *cobra.Command, args []string) error {
	procs, err := process.Discover(newDirectory(cfg))
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"PID", "Command line"})

	for _, info := range process.List(procs) {
		if len(args) > 0 && !strings.Contains(info.Name, args[0]) {
			continue
		}
		t.AppendRow(table.Row{info.PID, info.Name})
	}

	t.Render()
	return nil
}
