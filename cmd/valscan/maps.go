package main

import (
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var mapsCmd = &cobra.Command{
	Use:   "maps",
	Short: "Show the memory regions of a process",
	RunE:  listRegions,
}

var (
	mapsPID  int
	mapsName string
)

func init() {
	mapsCmd.Flags().IntVar(&mapsPID, "pid", 0, "Process ID")
	mapsCmd.Flags().StringVar(&mapsName, "name", "", "Substring of the process command line")
}

func listRegions(cmd *cobra.Command, args []string) error {
	proc, err := getProcess(newDirectory(cfg), mapsPID, mapsName)
	if err != nil {
		return err
	}

	regions, err := proc.Regions()
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Range", "Perms", "Size", "Offset", "Path"})

	var readable uint64
	for _, region := range regions {
		if region.IsReadable() {
			readable += region.Size()
		}
		t.AppendRow(table.Row{region.Range, region.Perms, humanize.IBytes(region.Size()), region.Offset.ToString(), region.Pathname})
	}
	t.AppendFooter(table.Row{len(regions), "", humanize.IBytes(readable) + " readable", "", ""})

	t.Render()
	return nil
}
