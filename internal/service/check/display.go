package check

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// ANSI color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorRed    = "\033[31m"
)

// DisplaySummaries renders the successful endpoints as a table, fastest
// first.
func DisplaySummaries(summaries []TrialSummary) {
	if len(summaries) == 0 {
		return
	}

	fmt.Printf("\n=== Reachable Endpoints - %s ===\n\n", time.Now().Format("15:04:05"))

	sorted := make([]TrialSummary, len(summaries))
	copy(sorted, summaries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MeanMs < sorted[j].MeanMs
	})

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{
		"#",
		"Endpoint",
		"Mean (ms)",
		"Min (ms)",
		"Max (ms)",
		"StdDev (ms)",
	})

	for i, s := range sorted {
		stddev := "-"
		if s.HasStdDev {
			stddev = fmt.Sprintf("%.1f", s.StdDevMs)
		}
		t.AppendRow(table.Row{
			i + 1,
			s.Endpoint.Key(),
			colorLatency(s.MeanMs),
			s.MinMs,
			s.MaxMs,
			stddev,
		})
	}

	t.Render()
}

func colorLatency(ms uint32) string {
	switch {
	case ms < 100:
		return fmt.Sprintf("%s%d%s", ColorGreen, ms, ColorReset)
	case ms < 500:
		return fmt.Sprintf("%s%d%s", ColorYellow, ms, ColorReset)
	default:
		return fmt.Sprintf("%s%d%s", ColorRed, ms, ColorReset)
	}
}
