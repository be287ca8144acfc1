package check

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/laityts/iptest/internal/endpoint"
	"github.com/laityts/iptest/pkg/tools/logger"
)

// SummaryStatus is the all-or-nothing verdict for one endpoint's trials.
type SummaryStatus string

const (
	StatusSuccess SummaryStatus = "success"
	StatusFailed  SummaryStatus = "failed"
)

// TrialSummary aggregates N trials against one endpoint. Latencies and the
// derived statistics are only present on success; a single failed trial
// fails the whole sample.
type TrialSummary struct {
	Endpoint  endpoint.Endpoint `json:"endpoint"`
	Status    SummaryStatus     `json:"status"`
	Latencies []uint32          `json:"latencies,omitempty"`
	MeanMs    uint32            `json:"mean_ms,omitempty"`
	MinMs     uint32            `json:"min_ms,omitempty"`
	MaxMs     uint32            `json:"max_ms,omitempty"`
	StdDevMs  float64           `json:"stddev_ms,omitempty"`
	HasStdDev bool              `json:"has_stddev,omitempty"`

	// Failure annotation: which trial failed and why.
	FailedTrial    int         `json:"failed_trial,omitempty"`
	FailureKind    OutcomeKind `json:"failure_kind,omitempty"`
	FailureMessage string      `json:"failure_message,omitempty"`
}

// Sampler runs repeated sequential trials against a single endpoint.
// Trials are deliberately not parallelized against themselves, and a fixed
// pacing delay separates them, to avoid hammering one remote path.
type Sampler struct {
	prober Prober
	trials int
	pacing time.Duration
	logger *slog.Logger
}

// NewSampler creates a sampler issuing `trials` probes per endpoint with
// `pacing` between consecutive trials.
func NewSampler(prober Prober, trials int, pacing time.Duration) *Sampler {
	if trials < 1 {
		trials = 1
	}
	return &Sampler{
		prober: prober,
		trials: trials,
		pacing: pacing,
		logger: logger.WithModule("SAMPLER").Logger,
	}
}

// Sample runs the configured number of trials in strict order,
// short-circuiting on the first non-success outcome. Trial i+1 never starts
// before trial i's outcome is known.
func (s *Sampler) Sample(ctx context.Context, ep endpoint.Endpoint) TrialSummary {
	latencies := make([]uint32, 0, s.trials)

	for trial := 1; trial <= s.trials; trial++ {
		if trial > 1 && s.pacing > 0 {
			time.Sleep(s.pacing)
		}

		outcome := s.prober.Probe(ctx, ep)
		if outcome.Kind != OutcomeSuccess {
			s.logger.Debug("Trial failed, short-circuiting sample",
				"endpoint", ep.Key(), "trial", trial, "kind", outcome.Kind.String())
			return TrialSummary{
				Endpoint:       ep,
				Status:         StatusFailed,
				FailedTrial:    trial,
				FailureKind:    outcome.Kind,
				FailureMessage: outcome.Message,
			}
		}
		latencies = append(latencies, outcome.LatencyMs)
	}

	summary := TrialSummary{
		Endpoint:  ep,
		Status:    StatusSuccess,
		Latencies: latencies,
	}
	summary.MeanMs, summary.MinMs, summary.MaxMs = latencyStats(latencies)
	if len(latencies) >= 2 {
		summary.StdDevMs = sampleStdDev(latencies)
		summary.HasStdDev = true
	}
	return summary
}

func latencyStats(latencies []uint32) (mean, min, max uint32) {
	min, max = latencies[0], latencies[0]
	var sum uint64
	for _, l := range latencies {
		sum += uint64(l)
		if l < min {
			min = l
		}
		if l > max {
			max = l
		}
	}
	mean = uint32(math.Round(float64(sum) / float64(len(latencies))))
	return mean, min, max
}

// sampleStdDev computes the sample (n-1) standard deviation. Callers must
// pass at least two samples.
func sampleStdDev(latencies []uint32) float64 {
	var sum float64
	for _, l := range latencies {
		sum += float64(l)
	}
	avg := sum / float64(len(latencies))

	var sq float64
	for _, l := range latencies {
		d := float64(l) - avg
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(latencies)-1))
}
