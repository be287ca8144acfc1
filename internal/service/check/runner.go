package check

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/laityts/iptest/config"
	"github.com/laityts/iptest/internal/endpoint"
	"github.com/laityts/iptest/internal/ledger"
	"github.com/laityts/iptest/pkg/tools/logger"
)

// Options are the per-invocation overrides for one check run.
type Options struct {
	// Concurrency overrides the configured worker budget when positive.
	Concurrency int
	// Resolve expands domain endpoints into one endpoint per resolved IP
	// before probing.
	Resolve bool
}

// Runner drives the whole verification workflow for one input batch:
// load endpoints, probe them concurrently, persist survivors to the
// ledger and write the run report.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a new check runner instance
func New(cfg *config.Config) *Runner {
	return &Runner{
		cfg:    cfg,
		logger: logger.WithModule("CHECK").Logger,
	}
}

// Execute runs the verification workflow for the given input parameter.
// It returns the batch counters together with the ledger path so callers
// (the run pipeline, notifications) can chain on the output.
func (r *Runner) Execute(ctx context.Context, inputParam string, opts Options) (BatchStats, string, error) {
	started := time.Now()

	// Step 1: Resolve and load the input batch
	inputPath := endpoint.ResolveInputParam(inputParam)
	fmt.Printf("🚀 Starting proxy verification for %s\n", inputPath)

	endpoints, skipped, err := endpoint.ReadEndpoints(inputPath)
	if err != nil {
		return BatchStats{}, "", err
	}
	if len(endpoints) == 0 {
		return BatchStats{}, "", fmt.Errorf("no valid endpoints in '%s' (%d lines rejected)", inputPath, skipped)
	}

	if opts.Resolve {
		endpoints = r.resolveDomains(endpoints)
	}

	workers := r.cfg.ClampConcurrency(opts.Concurrency)
	fmt.Printf("📋 Loaded %d endpoints (%d rejected), %d workers, %d trials each\n",
		len(endpoints), skipped, workers, r.cfg.Trials)
	r.logger.Info("Batch loaded",
		"input", inputPath, "endpoints", len(endpoints), "skipped", skipped,
		"workers", workers, "timeout_seconds", r.cfg.TimeoutSeconds)

	// Step 2: Probe everything under the worker budget
	store := ledger.NewStore(ledger.PathForInput(inputPath))
	sampler := NewSampler(NewClient(r.cfg), r.cfg.Trials, time.Duration(r.cfg.TrialIntervalMs)*time.Millisecond)
	dispatcher := NewDispatcher(sampler, workers)

	done := 0
	var successes []TrialSummary
	stats := dispatcher.Run(ctx, endpoints, func(summary TrialSummary) {
		done++
		printResult(done, len(endpoints), summary)

		if summary.Status != StatusSuccess {
			return
		}
		successes = append(successes, summary)
		if err := store.Upsert(summary.Endpoint.Key(), summary.MeanMs); err != nil {
			r.logger.Error("Ledger upsert failed", "endpoint", summary.Endpoint.Key(), "error", err)
		}
	})

	// Step 3: Summarize and persist the report
	elapsed := time.Since(started).Round(time.Millisecond)
	fmt.Printf("\n✅ Verification finished in %s: %d/%d reachable (%d%%), %d timeouts\n",
		elapsed, stats.Success, stats.Total, stats.SuccessRate(), stats.Timeout)
	if stats.Success > 0 {
		DisplaySummaries(successes)
		fmt.Printf("📄 Ledger updated: %s\n", store.Path())
	}

	if r.cfg.Report.Enable {
		reportPath, err := r.writeReport(inputPath, successes, stats, elapsed)
		if err != nil {
			r.logger.Error("Report write failed", "error", err)
		} else {
			fmt.Printf("📄 Report written: %s\n", reportPath)
		}
	}

	r.logger.Info("Check completed",
		"total", stats.Total, "success", stats.Success,
		"failed", stats.Failed, "timeout", stats.Timeout, "elapsed", elapsed.String())
	return stats, store.Path(), nil
}

// resolveDomains expands domain endpoints in place. Resolution failures keep
// the original entry so the probe can still report on it.
func (r *Runner) resolveDomains(endpoints []endpoint.Endpoint) []endpoint.Endpoint {
	var out []endpoint.Endpoint
	for _, ep := range endpoints {
		expanded, err := endpoint.ResolveHost(ep)
		if err != nil {
			r.logger.Warn("DNS resolution failed, probing as-is", "endpoint", ep.Key(), "error", err)
			out = append(out, ep)
			continue
		}
		if len(expanded) > 1 {
			r.logger.Info("Domain expanded", "host", ep.Host, "addresses", len(expanded))
		}
		out = append(out, expanded...)
	}
	return out
}

// printResult prints one live progress line. Ratings follow the latency
// bands users of this tool are used to: under 100ms is excellent, under
// 500ms is acceptable, anything above drags.
func printResult(done, total int, summary TrialSummary) {
	prefix := fmt.Sprintf("[%d/%d] %s", done, total, summary.Endpoint.Key())

	if summary.Status != StatusSuccess {
		reason := summary.FailureKind.String()
		if summary.FailureMessage != "" {
			reason = fmt.Sprintf("%s: %s", reason, summary.FailureMessage)
		}
		fmt.Printf("%s ❌ failed at trial %d (%s)\n", prefix, summary.FailedTrial, reason)
		return
	}

	rating := "🐢"
	switch {
	case summary.MeanMs < 100:
		rating = "⚡"
	case summary.MeanMs < 500:
		rating = "⏱️"
	}
	fmt.Printf("%s %s %dms (min %d / max %d)\n",
		prefix, rating, summary.MeanMs, summary.MinMs, summary.MaxMs)
}

// writeReport persists the run report under the configured report directory.
func (r *Runner) writeReport(inputPath string, successes []TrialSummary, stats BatchStats, elapsed time.Duration) (string, error) {
	if err := os.MkdirAll(r.cfg.Report.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory '%s': %w", r.cfg.Report.Dir, err)
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	path := filepath.Join(r.cfg.Report.Dir, fmt.Sprintf("%s_results_%s.txt", base, time.Now().Format("20060102_150405")))

	var b strings.Builder
	fmt.Fprintf(&b, "# Verification report for %s\n", inputPath)
	fmt.Fprintf(&b, "# Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "# Total: %d  Success: %d  Failed: %d  Timeout: %d  Rate: %d%%  Elapsed: %s\n",
		stats.Total, stats.Success, stats.Failed, stats.Timeout, stats.SuccessRate(), elapsed)
	for _, s := range successes {
		if s.HasStdDev {
			fmt.Fprintf(&b, "%s %dms min=%d max=%d stddev=%.1f\n",
				s.Endpoint.Key(), s.MeanMs, s.MinMs, s.MaxMs, s.StdDevMs)
		} else {
			fmt.Fprintf(&b, "%s %dms min=%d max=%d\n", s.Endpoint.Key(), s.MeanMs, s.MinMs, s.MaxMs)
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write report '%s': %w", path, err)
	}
	return path, nil
}
