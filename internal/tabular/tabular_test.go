package tabular

import "testing"

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   rune
	}{
		{"comma", "ip,port,speed", ','},
		{"semicolon", "ip;port;speed", ';'},
		{"tab", "ip\tport\tspeed", '\t'},
		{"mixed picks majority", "ip;port;speed,extra", ';'},
		{"no delimiter defaults to comma", "ip", ','},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectDelimiter(tt.header); got != tt.want {
				t.Errorf("DetectDelimiter(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestResolveColumns(t *testing.T) {
	aliases := Aliases{
		"ip":    {"ip", "ip address"},
		"speed": {"speed", "下载速度"},
	}

	tests := []struct {
		name   string
		header []string
		want   map[string]int
	}{
		{
			name:   "exact match",
			header: []string{"ip", "port", "speed"},
			want:   map[string]int{"ip": 0, "speed": 2},
		},
		{
			name:   "case insensitive with spaces",
			header: []string{" IP Address ", "Port", "SPEED"},
			want:   map[string]int{"ip": 0, "speed": 2},
		},
		{
			name:   "unmatched yields -1",
			header: []string{"addr", "port", "rate"},
			want:   map[string]int{"ip": -1, "speed": -1},
		},
		{
			name:   "chinese alias",
			header: []string{"ip", "下载速度"},
			want:   map[string]int{"ip": 0, "speed": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveColumns(tt.header, aliases)
			for field, idx := range tt.want {
				if got[field] != idx {
					t.Errorf("ResolveColumns()[%s] = %d, want %d", field, got[field], idx)
				}
			}
		})
	}
}

func TestMerge(t *testing.T) {
	a := Aliases{"ip": {"ip"}}
	b := Aliases{"ip": {"ip", "address"}, "speed": {"speed"}}

	merged := Merge(a, b)

	if len(merged["ip"]) != 2 {
		t.Errorf("merged ip aliases = %v, want deduplicated union of 2", merged["ip"])
	}
	if len(merged["speed"]) != 1 {
		t.Errorf("merged speed aliases = %v, want 1", merged["speed"])
	}
}
