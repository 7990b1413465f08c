package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// ErrorResponse is the JSON form of a fatal error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// renderSummary draws the bucket counts of a run as a table.
func renderSummary(resp *SyncResponse) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Footer = text.FormatDefault
	tw.AppendHeader(table.Row{"Outcome", "Entries"})

	s := resp.Summary
	rows := []struct {
		label string
		n     int
	}{
		{"Updated from DBLP", s.Updated},
		{"Not found", s.NotFound},
		{"Not matched", s.Unmatched},
		{"Request failed", s.Failed},
	}
	for _, r := range rows {
		tw.AppendRow(table.Row{r.label, strconv.Itoa(r.n)})
	}
	tw.AppendFooter(table.Row{"Total", strconv.Itoa(s.Total)})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	return tw.Render()
}

func printSyncSummary(resp *SyncResponse) {
	fmt.Println(renderSummary(resp))
	if resp.RecoveredDOIs > 0 {
		fmt.Printf("DOIs recovered from PDFs: %d\n", resp.RecoveredDOIs)
	}
	fmt.Printf("Bibliography: %s\n", resp.Files.BibTeX)
	fmt.Printf("Report:       %s\n", resp.Files.Info)
}
