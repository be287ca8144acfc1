package endpoint

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveInputParam(t *testing.T) {
	tests := []struct {
		name  string
		param string
		want  string
	}{
		{"bare number", "123", filepath.Join("as123", "iptest_as123.txt")},
		{"as prefix", "as123", filepath.Join("as123", "iptest_as123.txt")},
		{"full file name", "iptest_as123.txt", filepath.Join("as123", "iptest_as123.txt")},
		{"unknown format passed through", "some/other/path.txt", "some/other/path.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveInputParam(tt.param); got != tt.want {
				t.Errorf("ResolveInputParam(%q) = %q, want %q", tt.param, got, tt.want)
			}
		})
	}
}

func TestResolveInputParamExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proxies.txt")
	if err := os.WriteFile(path, []byte("1.2.3.4 443\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if got := ResolveInputParam(path); got != path {
		t.Errorf("ResolveInputParam(%q) = %q, want the path unchanged", path, got)
	}
}

func TestReadEndpointsText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.txt")
	content := "1.2.3.4 443\n5.6.7.8 abc\n# comment\n\n9.9.9.9:50001\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	endpoints, skipped, err := ReadEndpoints(path)
	if err != nil {
		t.Fatalf("ReadEndpoints() error = %v", err)
	}
	if len(endpoints) != 2 {
		t.Fatalf("ReadEndpoints() = %v, want 2 endpoints", endpoints)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
}

func TestReadEndpointsMissingFile(t *testing.T) {
	_, _, err := ReadEndpoints(filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("ReadEndpoints() expected error for missing file")
	}
}

func TestReadEndpointsCSV(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "named columns",
			content: "IP Address,Port,Speed\n1.2.3.4,443,12 kB/s\n5.6.7.8,8443,3 MB/s\n",
			want:    []string{"1.2.3.4:443", "5.6.7.8:8443"},
		},
		{
			name:    "semicolon delimited",
			content: "ip;port\n1.2.3.4;443\n",
			want:    []string{"1.2.3.4:443"},
		},
		{
			name:    "chinese headers",
			content: "ip地址,端口\n1.2.3.4,443\n",
			want:    []string{"1.2.3.4:443"},
		},
		{
			name:    "positional fallback",
			content: "addr,prt\n1.2.3.4,443\n",
			want:    []string{"1.2.3.4:443"},
		},
		{
			name:    "bad rows skipped",
			content: "ip,port\n1.2.3.4,443\n5.6.7.8,abc\n",
			want:    []string{"1.2.3.4:443"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "input.csv")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			endpoints, _, err := ReadEndpoints(path)
			if err != nil {
				t.Fatalf("ReadEndpoints() error = %v", err)
			}
			if len(endpoints) != len(tt.want) {
				t.Fatalf("ReadEndpoints() = %v, want %d endpoints", endpoints, len(tt.want))
			}
			for i, key := range tt.want {
				if endpoints[i].Key() != key {
					t.Errorf("endpoints[%d] = %s, want %s", i, endpoints[i].Key(), key)
				}
			}
		})
	}
}
