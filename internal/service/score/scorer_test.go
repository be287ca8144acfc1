package score

import (
	"math"
	"testing"

	"github.com/laityts/iptest/config"
	"github.com/laityts/iptest/internal/ledger"
)

func defaultWeights() config.ScoreConfig {
	return config.ScoreConfig{TopN: 10, LatencyWeight: 0.6, SpeedWeight: 0.4}
}

func TestLatencyScore(t *testing.T) {
	tests := []struct {
		name      string
		latencyMs uint32
		want      float64
	}{
		{"zero latency is perfect", 0, 100},
		{"ceiling scores zero", 2000, 0},
		{"above ceiling scores zero", 5000, 0},
		{"midpoint", 1000, 50},
		{"quarter", 500, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LatencyScore(tt.latencyMs); math.Abs(got-tt.want) > 0.001 {
				t.Errorf("LatencyScore(%d) = %v, want %v", tt.latencyMs, got, tt.want)
			}
		})
	}
}

func TestSpeedScore(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"empty text", "", 0},
		{"no leading number", "fast", 0},
		{"MB per second", "10 MB/s", 20},    // 10*100=1000 -> 20
		{"MB no space", "12.5MB/s", 25},     // 1250 -> 25
		{"kB per second", "800 kB/s", 1.6},  // 800*0.1=80 -> 1.6
		{"unknown unit kB scale", "800", 1.6},
		{"clamped at ceiling", "999 MB/s", 100}, // 99900 clamps to 5000
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SpeedScore(tt.raw); math.Abs(got-tt.want) > 0.001 {
				t.Errorf("SpeedScore(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCompositeWithoutThroughput(t *testing.T) {
	got := Composite(500, "", defaultWeights())
	if got != 45.0 {
		t.Errorf("Composite(500, \"\") = %v, want 45.0", got)
	}
}

func TestCompositeRounding(t *testing.T) {
	// latency 333 -> 83.35 exactly; weighted 50.01
	got := Composite(333, "", defaultWeights())
	if got != 50.01 {
		t.Errorf("Composite(333, \"\") = %v, want 50.01", got)
	}
}

func TestRankOrdersDescendingAndTruncates(t *testing.T) {
	entries := []ledger.Entry{
		{Key: "1.1.1.1:443", LatencyMs: 1500},
		{Key: "2.2.2.2:443", LatencyMs: 100},
		{Key: "3.3.3.3:443", LatencyMs: 800},
	}

	ranked := Rank(entries, nil, 2, defaultWeights())

	if len(ranked) != 2 {
		t.Fatalf("Rank() returned %d rows, want 2", len(ranked))
	}
	if ranked[0].Key != "2.2.2.2:443" {
		t.Errorf("top endpoint = %s, want 2.2.2.2:443", ranked[0].Key)
	}
	if ranked[0].Composite < ranked[1].Composite {
		t.Errorf("ranking not descending: %v", ranked)
	}
}

func TestRankOuterJoinMissingThroughput(t *testing.T) {
	entries := []ledger.Entry{
		{Key: "1.1.1.1:443", LatencyMs: 500},
		{Key: "2.2.2.2:443", LatencyMs: 500},
	}
	speeds := &Table{
		exact:  map[string]string{"1.1.1.1:443": "10 MB/s"},
		byHost: map[string]string{"1.1.1.1": "10 MB/s"},
	}

	ranked := Rank(entries, speeds, 0, defaultWeights())

	if len(ranked) != 2 {
		t.Fatalf("Rank() returned %d rows, want 2 (missing throughput is legal)", len(ranked))
	}
	if ranked[0].Key != "1.1.1.1:443" {
		t.Errorf("endpoint with throughput should rank first, got %s", ranked[0].Key)
	}
	// 0.6*75 + 0.4*20 = 53; the other gets 45
	if ranked[0].Composite != 53.0 {
		t.Errorf("composite with speed = %v, want 53.0", ranked[0].Composite)
	}
	if ranked[1].Composite != 45.0 {
		t.Errorf("composite without speed = %v, want 45.0", ranked[1].Composite)
	}
}

func TestRankTieBreaksOnLatency(t *testing.T) {
	entries := []ledger.Entry{
		{Key: "slow:443", LatencyMs: 2200},
		{Key: "slower:443", LatencyMs: 3000},
	}

	ranked := Rank(entries, nil, 0, defaultWeights())

	// Both score 0; lower latency wins the tie.
	if ranked[0].Key != "slow:443" {
		t.Errorf("tie break failed: %v", ranked)
	}
}
