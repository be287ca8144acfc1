// Package speedtest shells out to the external bulk download tester. The
// tool reads a success ledger and writes a throughput table; everything in
// between is its own business.
package speedtest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/laityts/iptest/config"
	"github.com/laityts/iptest/pkg/tools/logger"
)

// Runner invokes the external speed test binary over a ledger file.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a new speedtest runner instance
func New(cfg *config.Config) *Runner {
	return &Runner{
		cfg:    cfg,
		logger: logger.WithModule("SPEEDTEST").Logger,
	}
}

// OutputPathFor derives the throughput table path for a ledger file.
func OutputPathFor(ledgerPath string) string {
	base := strings.TrimSuffix(filepath.Base(ledgerPath), filepath.Ext(ledgerPath))
	return filepath.Join(filepath.Dir(ledgerPath), base+"_speed.csv")
}

// Execute runs the external tool against the ledger and returns the path of
// the throughput table it produced. A missing binary or a non-zero exit is
// returned as an error; callers degrade to latency-only scoring.
func (r *Runner) Execute(ctx context.Context, ledgerPath string) (string, error) {
	binary := r.cfg.SpeedTest.Binary
	if _, err := exec.LookPath(binary); err != nil {
		return "", fmt.Errorf("speed test binary '%s' not found: %w", binary, err)
	}

	outFile := OutputPathFor(ledgerPath)
	args := []string{
		"-file", ledgerPath,
		"-outfile", outFile,
		fmt.Sprintf("-tls=%t", r.cfg.SpeedTest.TLS),
	}

	fmt.Printf("🚀 Running speed test: %s %s\n", binary, strings.Join(args, " "))
	r.logger.Info("Starting external speed test", "binary", binary, "ledger", ledgerPath, "outfile", outFile)

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("speed test binary failed: %w", err)
	}

	if _, err := os.Stat(outFile); err != nil {
		return "", fmt.Errorf("speed test produced no output file '%s': %w", outFile, err)
	}

	r.logger.Info("Speed test completed", "outfile", outFile)
	return outFile, nil
}
