package score

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/laityts/iptest/config"
	"github.com/laityts/iptest/internal/endpoint"
	"github.com/laityts/iptest/internal/ledger"
	"github.com/laityts/iptest/pkg/tools/logger"
)

// Options are the per-invocation overrides for one scoring run.
type Options struct {
	// TopN overrides the configured report size when positive.
	TopN int
	// SpeedFile points at the external tool's throughput table. Empty means
	// score on latency alone.
	SpeedFile string
}

// Runner joins the success ledger with the throughput table and emits the
// ranked top-N report.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a new score runner instance
func New(cfg *config.Config) *Runner {
	return &Runner{
		cfg:    cfg,
		logger: logger.WithModule("SCORE").Logger,
	}
}

// Execute ranks the ledger derived from inputParam and writes the report.
// It returns the ranked rows so callers (the run pipeline, notifications)
// can reuse them.
func (r *Runner) Execute(inputParam string, opts Options) ([]ScoredEndpoint, error) {
	inputPath := endpoint.ResolveInputParam(inputParam)
	ledgerPath := ledger.PathForInput(inputPath)
	return r.ExecuteLedger(ledgerPath, opts)
}

// ExecuteLedger ranks an explicit ledger file. Used when the caller already
// holds the ledger path from a preceding check run.
func (r *Runner) ExecuteLedger(ledgerPath string, opts Options) ([]ScoredEndpoint, error) {
	fmt.Printf("🚀 Scoring ledger %s\n", ledgerPath)

	store := ledger.NewStore(ledgerPath)
	entries, err := store.Snapshot()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("ledger '%s' has no entries to score", ledgerPath)
	}

	speeds := r.loadSpeeds(opts.SpeedFile)

	topN := r.cfg.Score.TopN
	if opts.TopN > 0 {
		topN = opts.TopN
	}
	ranked := Rank(entries, speeds, topN, r.cfg.Score)

	Display(ranked)

	if r.cfg.Report.Enable {
		reportPath, err := r.writeReport(ledgerPath, ranked)
		if err != nil {
			r.logger.Error("Report write failed", "error", err)
		} else {
			fmt.Printf("📄 Report written: %s\n", reportPath)
		}
	}

	r.logger.Info("Scoring completed", "entries", len(entries), "ranked", len(ranked))
	return ranked, nil
}

// loadSpeeds reads the throughput table when one was supplied. A missing or
// unreadable table degrades to latency-only scoring, never a failure.
func (r *Runner) loadSpeeds(path string) *Table {
	if path == "" {
		r.logger.Info("No speed file supplied, scoring on latency alone")
		return nil
	}
	speeds, err := LoadTable(path)
	if err != nil {
		r.logger.Warn("Speed file unusable, scoring on latency alone", "file", path, "error", err)
		return nil
	}
	r.logger.Info("Speed table loaded", "file", path, "hosts", speeds.Len())
	return speeds
}

func (r *Runner) writeReport(ledgerPath string, ranked []ScoredEndpoint) (string, error) {
	if err := os.MkdirAll(r.cfg.Report.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory '%s': %w", r.cfg.Report.Dir, err)
	}

	base := strings.TrimSuffix(filepath.Base(ledgerPath), filepath.Ext(ledgerPath))
	path := filepath.Join(r.cfg.Report.Dir, fmt.Sprintf("%s_top%d_%s.txt", base, len(ranked), time.Now().Format("20060102_150405")))

	var b strings.Builder
	fmt.Fprintf(&b, "# Top %d endpoints by composite score\n", len(ranked))
	fmt.Fprintf(&b, "# Source ledger: %s\n", ledgerPath)
	fmt.Fprintf(&b, "# Generated: %s\n", time.Now().Format(time.RFC3339))
	for _, s := range ranked {
		fmt.Fprintf(&b, "%s %dms %s %.2f\n", s.Key, s.LatencyMs, s.RawSpeedText, s.Composite)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write report '%s': %w", path, err)
	}
	return path, nil
}

// Display renders the ranked endpoints as a table.
func Display(ranked []ScoredEndpoint) {
	if len(ranked) == 0 {
		return
	}

	fmt.Printf("\n=== Composite Ranking - %s ===\n\n", time.Now().Format("15:04:05"))

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{
		"Rank",
		"Endpoint",
		"Latency (ms)",
		"Speed",
		"Latency Score",
		"Speed Score",
		"Composite",
	})

	for i, s := range ranked {
		speed := s.RawSpeedText
		if speed == "" {
			speed = "-"
		}
		t.AppendRow(table.Row{
			i + 1,
			s.Key,
			s.LatencyMs,
			speed,
			fmt.Sprintf("%.2f", s.LatencyScore),
			fmt.Sprintf("%.2f", s.SpeedScore),
			fmt.Sprintf("%.2f", s.Composite),
		})
	}

	t.Render()
}
