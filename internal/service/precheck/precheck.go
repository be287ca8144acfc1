// Package precheck pings the distinct hosts of an input batch before the
// HTTP verification pass. The result is informational: it tells the operator
// which hosts are ICMP-dead before spending probe trials on them, but never
// filters the batch, since many proxy hosts drop ICMP while serving TCP.
package precheck

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	probing "github.com/prometheus-community/pro-bing"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/laityts/iptest/config"
	"github.com/laityts/iptest/internal/endpoint"
	"github.com/laityts/iptest/pkg/tools/logger"
)

const (
	pingCount   = 3
	pingTimeout = 5 * time.Second
)

// Result is the ICMP verdict for one host.
type Result struct {
	Host       string        `json:"host"`
	Reachable  bool          `json:"reachable"`
	PacketLoss float64       `json:"packet_loss"`
	AvgRtt     time.Duration `json:"avg_rtt"`
	Error      string        `json:"error,omitempty"`
}

// Summary aggregates one precheck pass.
type Summary struct {
	TotalHosts     int      `json:"total_hosts"`
	ReachableCount int      `json:"reachable_count"`
	Results        []Result `json:"results"`
}

// Checker runs the ICMP precheck pass.
type Checker struct {
	cfg    *config.Config
	logger *slog.Logger
	ping   func(ctx context.Context, host string) Result
}

// New creates a new precheck checker instance
func New(cfg *config.Config) *Checker {
	c := &Checker{
		cfg:    cfg,
		logger: logger.WithModule("PRECHECK").Logger,
	}
	c.ping = c.pingHost
	return c
}

// Execute pings every distinct host among the endpoints under the configured
// worker budget and returns the aggregated verdicts, sorted by host.
func (c *Checker) Execute(ctx context.Context, endpoints []endpoint.Endpoint) *Summary {
	hosts := lo.Uniq(lo.Map(endpoints, func(ep endpoint.Endpoint, _ int) string {
		return ep.Host
	}))

	c.logger.Info("Starting ICMP precheck", "hosts", len(hosts))

	workers := c.cfg.Concurrency
	if workers < 1 {
		workers = 1
	}

	results := make([]Result, len(hosts))
	var eg errgroup.Group
	eg.SetLimit(workers)
	for i, host := range hosts {
		eg.Go(func() error {
			results[i] = c.ping(ctx, host)
			return nil
		})
	}
	_ = eg.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].Host < results[j].Host
	})

	summary := &Summary{
		TotalHosts: len(results),
		Results:    results,
	}
	for _, r := range results {
		if r.Reachable {
			summary.ReachableCount++
		}
	}

	c.logger.Info("Precheck completed",
		"hosts", summary.TotalHosts, "reachable", summary.ReachableCount)
	return summary
}

// pingHost runs one host's ping round. Unprivileged UDP mode keeps the check
// usable without CAP_NET_RAW.
func (c *Checker) pingHost(ctx context.Context, host string) Result {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return Result{Host: host, Error: err.Error()}
	}
	pinger.Count = pingCount
	pinger.Timeout = pingTimeout
	pinger.SetPrivileged(false)

	if err := pinger.RunWithContext(ctx); err != nil {
		c.logger.Debug("Ping failed", "host", host, "error", err)
		return Result{Host: host, Error: err.Error()}
	}

	stats := pinger.Statistics()
	return Result{
		Host:       host,
		Reachable:  stats.PacketsRecv > 0,
		PacketLoss: stats.PacketLoss,
		AvgRtt:     stats.AvgRtt,
	}
}

// Display renders the precheck verdicts as a table.
func Display(summary *Summary) {
	fmt.Printf("\n=== ICMP Precheck - %s ===\n\n", time.Now().Format("15:04:05"))

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{
		"#",
		"Host",
		"ICMP",
		"Loss (%)",
		"Avg RTT",
	})

	for i, r := range summary.Results {
		icmp := "✅"
		rtt := r.AvgRtt.Round(time.Millisecond).String()
		if !r.Reachable {
			icmp = "❌"
			rtt = "-"
		}
		if r.Error != "" {
			icmp = "⚠️"
		}
		t.AppendRow(table.Row{
			i + 1,
			r.Host,
			icmp,
			fmt.Sprintf("%.0f", r.PacketLoss),
			rtt,
		})
	}

	t.Render()

	fmt.Printf("\nSummary: %d/%d hosts answer ICMP (non-responders are still probed over HTTP)\n",
		summary.ReachableCount, summary.TotalHosts)
}
