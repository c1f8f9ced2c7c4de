package journal

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const timeLayout = "2006-01-02 15:04:05"

// RenderRuns writes one table row per run.
func RenderRuns(w io.Writer, runs []Run) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"RUN", "KIND", "STARTED", "FINISHED", "ENTRIES"})
	for _, r := range runs {
		t.AppendRow(table.Row{r.ID, r.Kind, r.Started.Local().Format(timeLayout), r.Finished.Local().Format(timeLayout), r.Entries})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d run(s)", len(runs))})
	t.Render()
}

// WriteEntries prints entries as log lines, oldest first.
func WriteEntries(w io.Writer, entries []Entry) {
	for _, e := range entries {
		fmt.Fprintf(w, "%s %-5s [%s %s] %s\n",
			e.Timestamp.Local().Format(timeLayout), strings.ToUpper(e.Level), e.Kind, shortID(e.RunID), e.Message)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
