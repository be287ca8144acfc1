package check

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/laityts/iptest/internal/endpoint"
	"github.com/laityts/iptest/pkg/tools/logger"
)

// Sampleable is what the dispatcher drives per endpoint.
type Sampleable interface {
	Sample(ctx context.Context, ep endpoint.Endpoint) TrialSummary
}

// BatchStats are the shared run counters. All updates happen inside the
// dispatcher's single synchronized accumulation point, so lost increments
// are impossible.
type BatchStats struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Timeout int `json:"timeout"`
}

// SuccessRate returns the whole-percent success rate (integer division,
// matching the reports this tool has always produced).
func (s BatchStats) SuccessRate() int {
	if s.Total == 0 {
		return 0
	}
	return s.Success * 100 / s.Total
}

// Dispatcher fans the sampler out over the endpoint set under a bounded
// worker budget. Results are delivered in completion order.
type Dispatcher struct {
	sampler Sampleable
	workers int
	logger  *slog.Logger

	mu    sync.Mutex
	stats BatchStats
}

// NewDispatcher creates a dispatcher with at most `workers` samples in
// flight.
func NewDispatcher(sampler Sampleable, workers int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		sampler: sampler,
		workers: workers,
		logger:  logger.WithModule("DISPATCH").Logger,
	}
}

// Run executes the sampler for every endpoint with the configured worker
// budget and invokes onResult for each summary as it completes. Callbacks
// are serialized: counter update, console output and ledger upsert for one
// endpoint happen atomically with respect to its siblings.
//
// A sampler failure — including a panic inside a worker — is contained,
// logged and counted as failed; it never aborts in-flight siblings.
func (d *Dispatcher) Run(ctx context.Context, endpoints []endpoint.Endpoint, onResult func(TrialSummary)) BatchStats {
	var eg errgroup.Group
	eg.SetLimit(d.workers)

	for _, ep := range endpoints {
		eg.Go(func() error {
			summary := d.sampleSafely(ctx, ep)
			d.collect(summary, onResult)
			return nil
		})
	}
	// Workers never return errors; failures are counted, not propagated.
	_ = eg.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// sampleSafely shields the batch from an unexpected fault in one sample.
func (d *Dispatcher) sampleSafely(ctx context.Context, ep endpoint.Endpoint) (summary TrialSummary) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Sampler panic recovered", "endpoint", ep.Key(), "panic", r)
			summary = TrialSummary{
				Endpoint:       ep,
				Status:         StatusFailed,
				FailureKind:    OutcomeTransportError,
				FailureMessage: fmt.Sprintf("internal fault: %v", r),
			}
		}
	}()
	return d.sampler.Sample(ctx, ep)
}

func (d *Dispatcher) collect(summary TrialSummary, onResult func(TrialSummary)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stats.Total++
	switch summary.Status {
	case StatusSuccess:
		d.stats.Success++
	default:
		d.stats.Failed++
		if summary.FailureKind == OutcomeTimeout {
			d.stats.Timeout++
		}
	}

	if onResult != nil {
		onResult(summary)
	}
}

// Stats returns a snapshot of the counters accumulated so far.
func (d *Dispatcher) Stats() BatchStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}
