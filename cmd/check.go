package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/laityts/iptest/internal/endpoint"
	"github.com/laityts/iptest/internal/service/check"
	"github.com/laityts/iptest/internal/service/precheck"
)

var (
	checkConcurrency int
	checkResolve     bool
	checkPing        bool
)

var checkCmd = &cobra.Command{
	Use:   "check <input>",
	Short: "Verify a batch of proxy endpoints and update the success ledger",
	Long: `Verify every endpoint of an input batch against the remote checking
service and persist the reachable ones to the batch's success ledger,
sorted by latency.

The input accepts an AS-number shorthand or a file path:

  iptest check 123                  # as123/iptest_as123.txt
  iptest check as123                # same
  iptest check path/to/proxies.txt  # explicit file (txt or csv)
`,
	Args: cobra.ExactArgs(1),
	Run:  runCheck,
}

func init() {
	checkCmd.Flags().IntVarP(&checkConcurrency, "concurrency", "n", 0, "worker budget override (1-100)")
	checkCmd.Flags().BoolVar(&checkResolve, "resolve", false, "expand domain endpoints via DNS before probing")
	checkCmd.Flags().BoolVar(&checkPing, "ping", false, "run an ICMP precheck over the batch's hosts first")
}

func runCheck(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Error reading config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if checkPing {
		inputPath := endpoint.ResolveInputParam(args[0])
		endpoints, _, err := endpoint.ReadEndpoints(inputPath)
		if err != nil {
			fmt.Printf("Error reading input: %v\n", err)
			os.Exit(1)
		}
		precheck.Display(precheck.New(cfg).Execute(ctx, endpoints))
	}

	stats, _, err := check.New(cfg).Execute(ctx, args[0], check.Options{
		Concurrency: checkConcurrency,
		Resolve:     checkResolve,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if stats.Success == 0 {
		fmt.Println("\n❌ No endpoint survived verification.")
		os.Exit(1)
	}
}
