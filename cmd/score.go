package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/laityts/iptest/internal/service/score"
)

var (
	scoreTopN      int
	scoreSpeedFile string
)

var scoreCmd = &cobra.Command{
	Use:   "score <input>",
	Short: "Rank a batch's success ledger by composite latency/speed score",
	Long: `Rank the verified endpoints of a batch by a composite score that blends
probe latency with externally measured download throughput, and write the
top-N report.

Example:
  iptest score as123 --speed-file as123/as123_speed.csv --top 10
`,
	Args: cobra.ExactArgs(1),
	Run:  runScore,
}

func init() {
	scoreCmd.Flags().IntVar(&scoreTopN, "top", 0, "report size override")
	scoreCmd.Flags().StringVar(&scoreSpeedFile, "speed-file", "", "throughput table from the external speed test tool")
}

func runScore(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Error reading config: %v\n", err)
		os.Exit(1)
	}

	if _, err := score.New(cfg).Execute(args[0], score.Options{
		TopN:      scoreTopN,
		SpeedFile: scoreSpeedFile,
	}); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
