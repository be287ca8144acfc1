// Package score ranks verified endpoints by blending probe latency with
// externally measured download throughput into a 0-100 composite score.
package score

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/laityts/iptest/config"
	"github.com/laityts/iptest/internal/ledger"
	"github.com/laityts/iptest/pkg/tools/logger"
)

const (
	// Latency at or above this scores zero.
	latencyCeilingMs = 2000
	// Scaled throughput is clamped here before mapping to [0,100].
	speedCeiling = 5000
)

var leadingNumber = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)`)

// ScoredEndpoint is one ranked row of the final report.
type ScoredEndpoint struct {
	Key          string  `json:"key"`
	LatencyMs    uint32  `json:"latency_ms"`
	RawSpeedText string  `json:"raw_speed_text"`
	SpeedScore   float64 `json:"speed_score"`
	LatencyScore float64 `json:"latency_score"`
	Composite    float64 `json:"composite"`
}

// LatencyScore maps a latency measurement to [0,100]: 0ms scores 100,
// 2000ms and above scores 0, linear in between.
func LatencyScore(latencyMs uint32) float64 {
	if latencyMs == 0 {
		return 100
	}
	if latencyMs >= latencyCeilingMs {
		return 0
	}
	return 100 * (1 - float64(latencyMs)/latencyCeilingMs)
}

// SpeedScore maps raw throughput text ("12.5 MB/s", "800kB/s", "512") to
// [0,100]. The leading numeric token is scaled by its unit, clamped to the
// ceiling and mapped linearly. Absent or unparsable text scores 0; an
// unrecognized unit falls back to the kB/s scale with a warning, since
// misreading MB/s data on that scale would bury a fast endpoint.
func SpeedScore(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}

	m := leadingNumber.FindStringSubmatch(raw)
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}

	unit := strings.ToLower(strings.TrimSpace(raw[len(m[1]):]))
	switch {
	case strings.Contains(unit, "mb"):
		value *= 100
	case strings.Contains(unit, "kb"):
		value *= 0.1
	default:
		if unit != "" {
			logger.Warn("Unrecognized speed unit, assuming kB/s scale", "text", raw)
		}
		value *= 0.1
	}

	if value < 0 {
		value = 0
	}
	if value > speedCeiling {
		value = speedCeiling
	}
	return value / speedCeiling * 100
}

// Composite blends the two sub-scores with the configured weights, rounded
// to two decimal places.
func Composite(latencyMs uint32, rawSpeed string, weights config.ScoreConfig) float64 {
	score := weights.LatencyWeight*LatencyScore(latencyMs) + weights.SpeedWeight*SpeedScore(rawSpeed)
	return math.Round(score*100) / 100
}

// Rank joins every ledger entry with its throughput record (outer join,
// missing throughput contributes zero) and returns the top N by composite
// score, descending. Ties break toward the lower latency.
func Rank(entries []ledger.Entry, speeds *Table, topN int, weights config.ScoreConfig) []ScoredEndpoint {
	scored := make([]ScoredEndpoint, 0, len(entries))
	for _, e := range entries {
		raw := ""
		if speeds != nil {
			raw, _ = speeds.Lookup(e.Key)
		}
		scored = append(scored, ScoredEndpoint{
			Key:          e.Key,
			LatencyMs:    e.LatencyMs,
			RawSpeedText: raw,
			SpeedScore:   math.Round(SpeedScore(raw)*100) / 100,
			LatencyScore: math.Round(LatencyScore(e.LatencyMs)*100) / 100,
			Composite:    Composite(e.LatencyMs, raw, weights),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Composite != scored[j].Composite {
			return scored[i].Composite > scored[j].Composite
		}
		return scored[i].LatencyMs < scored[j].LatencyMs
	})

	if topN > 0 && len(scored) > topN {
		scored = scored[:topN]
	}
	return scored
}
