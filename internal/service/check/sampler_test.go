package check

import (
	"context"
	"math"
	"testing"

	"github.com/laityts/iptest/internal/endpoint"
)

// scriptedProber replays a fixed sequence of outcomes and records how many
// probes were actually issued.
type scriptedProber struct {
	outcomes []Outcome
	issued   int
}

func (p *scriptedProber) Probe(ctx context.Context, ep endpoint.Endpoint) Outcome {
	outcome := p.outcomes[p.issued]
	p.issued++
	return outcome
}

func successOutcome(latency uint32) Outcome {
	return Outcome{Kind: OutcomeSuccess, LatencyMs: latency}
}

func TestSampleAllTrialsSucceed(t *testing.T) {
	prober := &scriptedProber{outcomes: []Outcome{
		successOutcome(80), successOutcome(100), successOutcome(120),
	}}
	sampler := NewSampler(prober, 3, 0)

	summary := sampler.Sample(context.Background(), endpoint.Endpoint{Host: "1.2.3.4", Port: 443})

	if summary.Status != StatusSuccess {
		t.Fatalf("status = %s, want %s", summary.Status, StatusSuccess)
	}
	if prober.issued != 3 {
		t.Errorf("issued %d probes, want 3", prober.issued)
	}
	if summary.MeanMs != 100 || summary.MinMs != 80 || summary.MaxMs != 120 {
		t.Errorf("stats = mean %d min %d max %d, want 100/80/120",
			summary.MeanMs, summary.MinMs, summary.MaxMs)
	}
	if !summary.HasStdDev {
		t.Fatal("HasStdDev = false, want true for 3 trials")
	}
	if math.Abs(summary.StdDevMs-20.0) > 0.001 {
		t.Errorf("stddev = %v, want 20.0", summary.StdDevMs)
	}
}

func TestSampleShortCircuits(t *testing.T) {
	prober := &scriptedProber{outcomes: []Outcome{
		successOutcome(90),
		{Kind: OutcomeServiceError, Message: "unreachable"},
		successOutcome(95), // must never be reached
	}}
	sampler := NewSampler(prober, 3, 0)

	summary := sampler.Sample(context.Background(), endpoint.Endpoint{Host: "1.2.3.4", Port: 443})

	if summary.Status != StatusFailed {
		t.Fatalf("status = %s, want %s", summary.Status, StatusFailed)
	}
	if prober.issued != 2 {
		t.Errorf("issued %d probes, want 2 (no trial after the failure)", prober.issued)
	}
	if summary.FailedTrial != 2 {
		t.Errorf("FailedTrial = %d, want 2", summary.FailedTrial)
	}
	if summary.FailureKind != OutcomeServiceError {
		t.Errorf("FailureKind = %s, want %s", summary.FailureKind, OutcomeServiceError)
	}
	if summary.FailureMessage != "unreachable" {
		t.Errorf("FailureMessage = %q, want %q", summary.FailureMessage, "unreachable")
	}
}

func TestSampleFirstTrialTimeout(t *testing.T) {
	prober := &scriptedProber{outcomes: []Outcome{
		{Kind: OutcomeTimeout, Message: "request timed out"},
	}}
	sampler := NewSampler(prober, 3, 0)

	summary := sampler.Sample(context.Background(), endpoint.Endpoint{Host: "1.2.3.4", Port: 443})

	if summary.Status != StatusFailed || summary.FailedTrial != 1 {
		t.Errorf("summary = %+v, want failed at trial 1", summary)
	}
	if prober.issued != 1 {
		t.Errorf("issued %d probes, want 1", prober.issued)
	}
}

func TestSampleSingleTrialHasNoStdDev(t *testing.T) {
	prober := &scriptedProber{outcomes: []Outcome{successOutcome(150)}}
	sampler := NewSampler(prober, 1, 0)

	summary := sampler.Sample(context.Background(), endpoint.Endpoint{Host: "1.2.3.4", Port: 443})

	if summary.Status != StatusSuccess {
		t.Fatalf("status = %s, want %s", summary.Status, StatusSuccess)
	}
	if summary.HasStdDev {
		t.Error("HasStdDev = true, want false for a single trial")
	}
	if summary.MeanMs != 150 || summary.MinMs != 150 || summary.MaxMs != 150 {
		t.Errorf("stats = mean %d min %d max %d, want 150 across the board",
			summary.MeanMs, summary.MinMs, summary.MaxMs)
	}
}

func TestSampleIdenticalLatencies(t *testing.T) {
	prober := &scriptedProber{outcomes: []Outcome{
		successOutcome(100), successOutcome(100), successOutcome(100),
	}}
	sampler := NewSampler(prober, 3, 0)

	summary := sampler.Sample(context.Background(), endpoint.Endpoint{Host: "1.2.3.4", Port: 443})

	if summary.StdDevMs != 0 {
		t.Errorf("stddev = %v, want 0 for identical latencies", summary.StdDevMs)
	}
}
