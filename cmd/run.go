package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/laityts/iptest/internal/notify"
	"github.com/laityts/iptest/internal/service/check"
	"github.com/laityts/iptest/internal/service/score"
	"github.com/laityts/iptest/internal/service/speedtest"
	"github.com/laityts/iptest/pkg/tools/logger"
)

var (
	runConcurrency int
	runResolve     bool
	runNotify      bool
)

var runCmd = &cobra.Command{
	Use:   "run <input>",
	Short: "Run the full pipeline: verify, speed test, score, notify",
	Long: `Run the complete workflow for one input batch:

  1. Verify every endpoint and update the success ledger
  2. Run the external bulk speed test over the ledger (if enabled)
  3. Rank the ledger by composite score and write the top-N report
  4. Deliver a summary to the notification gateway (if enabled)
`,
	Args: cobra.ExactArgs(1),
	Run:  runPipeline,
}

func init() {
	runCmd.Flags().IntVarP(&runConcurrency, "concurrency", "n", 0, "worker budget override (1-100)")
	runCmd.Flags().BoolVar(&runResolve, "resolve", false, "expand domain endpoints via DNS before probing")
	runCmd.Flags().BoolVar(&runNotify, "notify", false, "force notification delivery even when disabled in config")
}

func runPipeline(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Error reading config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	fmt.Println("🚀 Starting complete iptest workflow...")

	// Step 1: Verification
	fmt.Println("\n📋 Step 1/4: Verifying endpoints...")
	stats, ledgerPath, err := check.New(cfg).Execute(ctx, args[0], check.Options{
		Concurrency: runConcurrency,
		Resolve:     runResolve,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if stats.Success == 0 {
		fmt.Println("\n❌ No endpoint survived verification, nothing to score.")
		os.Exit(1)
	}

	// Step 2: External speed test (optional, failure degrades to
	// latency-only scoring)
	speedFile := ""
	if cfg.SpeedTest.Enable {
		fmt.Println("\n📥 Step 2/4: Measuring download throughput...")
		speedFile, err = speedtest.New(cfg).Execute(ctx, ledgerPath)
		if err != nil {
			logger.Warn("Speed test unavailable, scoring on latency alone", "error", err)
			speedFile = ""
		}
	} else {
		fmt.Println("\n📥 Step 2/4: Speed test disabled, skipping...")
	}

	// Step 3: Composite scoring
	fmt.Println("\n📊 Step 3/4: Ranking by composite score...")
	ranked, err := score.New(cfg).ExecuteLedger(ledgerPath, score.Options{SpeedFile: speedFile})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	// Step 4: Notification
	if cfg.Notify.Enable || runNotify {
		fmt.Println("\n📨 Step 4/4: Delivering summary...")
		message := buildSummaryMessage(args[0], stats, ranked)
		if err := notify.New(cfg).Send(ctx, message); err != nil {
			logger.Error("Notification delivery failed", "error", err)
		}
	} else {
		fmt.Println("\n📨 Step 4/4: Notification disabled, skipping...")
	}

	fmt.Println("\n✅ Workflow completed!")
}

func buildSummaryMessage(input string, stats check.BatchStats, ranked []score.ScoredEndpoint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "iptest %s: %d/%d reachable (%d%%)\n",
		input, stats.Success, stats.Total, stats.SuccessRate())
	for i, s := range ranked {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "%d. %s %dms score %.2f\n", i+1, s.Key, s.LatencyMs, s.Composite)
	}
	return strings.TrimRight(b.String(), "\n")
}
