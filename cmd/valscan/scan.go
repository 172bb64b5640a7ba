package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"valscan/process"
	"valscan/scan"

	"github.com/go-delve/liner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Interactively find the address of a value by scanning as it changes",
	Long: `Each number entered at the prompt runs one scan pass. The first pass
searches every readable region; later passes keep only the candidates that
hold the new value. Numbers may be decimal or 0x-prefixed hex.

Commands: list, history, reset, quit`,
	RunE: runScan,
}

var (
	scanPID  int
	scanName string
)

func init() {
	scanCmd.Flags().IntVar(&scanPID, "pid", 0, "Process ID")
	scanCmd.Flags().StringVar(&scanName, "name", "", "Substring of the process command line")
}

const prompt = "value> "

func runScan(cmd *cobra.Command, args []string) error {
	proc, err := getProcess(newDirectory(cfg), scanPID, scanName)
	if err != nil {
		return err
	}

	name, err := proc.DisplayName()
	if err != nil {
		name = "<<unknown>>"
	}
	fmt.Printf("Attached to process %d (%s)\n", proc.GetPID(), name)

	engine := scan.New(proc,
		scan.WithByteOrder(cfg.Order()),
		scan.WithWritableOnly(cfg.WritableOnly),
	)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt(prompt)
		if err != nil {
			if err == io.EOF || err == liner.ErrPromptAborted {
				fmt.Println()
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		switch input {
		case "quit", "exit":
			return nil
		case "list":
			printCandidates(proc, engine)
			continue
		case "history":
			printHistory(engine)
			continue
		case "reset":
			engine.Reset()
			fmt.Println("Candidate set cleared")
			continue
		}

		target, err := strconv.ParseUint(input, 0, 32)
		if err != nil {
			fmt.Printf("Not a 32-bit unsigned value: %s\n", input)
			continue
		}

		found, err := engine.Scan(uint32(target))
		if err != nil {
			if errors.Is(err, process.ErrProcessGone) {
				return err
			}
			fmt.Printf("Scan failed: %v\n", err)
			continue
		}

		fmt.Printf("%d candidates\n", found.Len())
		if found.Len() > 0 && found.Len() <= 10 {
			printCandidates(proc, engine)
		}
	}
}

func printCandidates(proc process.Process, engine *scan.Engine) {
	candidates := engine.Candidates()
	if candidates.Len() == 0 {
		fmt.Println("No candidates")
		return
	}

	reader, err := process.OpenRegionReader(proc, cfg.Order())
	if err != nil {
		fmt.Printf("Unable to read candidates: %v\n", err)
		return
	}
	defer reader.Close()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Address", "Current value"})

	for i, addr := range candidates {
		if cfg.ListLimit > 0 && i >= cfg.ListLimit {
			t.AppendFooter(table.Row{fmt.Sprintf("... %d more", candidates.Len()-i), ""})
			break
		}
		value, err := reader.Word(addr)
		if err != nil {
			t.AppendRow(table.Row{addr.ToString(), err.Error()})
			continue
		}
		t.AppendRow(table.Row{addr.ToString(), value})
	}

	t.Render()
}

func printHistory(engine *scan.Engine) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Pass", "Target", "Before", "After", "Regions"})
	for _, pass := range engine.History() {
		t.AppendRow(table.Row{pass.Number, pass.Target, pass.Before, pass.After, pass.Stats.Regions})
	}
	t.Render()
}
