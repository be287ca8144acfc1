package score

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSpeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "speeds.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTableNamedColumns(t *testing.T) {
	path := writeSpeedFile(t, "IP,Port,Download Speed\n1.1.1.1,443,10 MB/s\n2.2.2.2,8443,800 kB/s\n")

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}

	if raw, ok := table.Lookup("1.1.1.1:443"); !ok || raw != "10 MB/s" {
		t.Errorf("Lookup(1.1.1.1:443) = (%q, %v), want (10 MB/s, true)", raw, ok)
	}
	if raw, ok := table.Lookup("2.2.2.2:8443"); !ok || raw != "800 kB/s" {
		t.Errorf("Lookup(2.2.2.2:8443) = (%q, %v), want (800 kB/s, true)", raw, ok)
	}
}

func TestLoadTableChineseHeaders(t *testing.T) {
	path := writeSpeedFile(t, "ip地址,端口,下载速度\n1.1.1.1,443,12.5 MB/s\n")

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	if raw, ok := table.Lookup("1.1.1.1:443"); !ok || raw != "12.5 MB/s" {
		t.Errorf("Lookup() = (%q, %v), want (12.5 MB/s, true)", raw, ok)
	}
}

func TestLoadTableSemicolonDelimiter(t *testing.T) {
	path := writeSpeedFile(t, "ip;port;speed\n1.1.1.1;443;5 MB/s\n")

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	if raw, ok := table.Lookup("1.1.1.1:443"); !ok || raw != "5 MB/s" {
		t.Errorf("Lookup() = (%q, %v), want (5 MB/s, true)", raw, ok)
	}
}

func TestLoadTablePositionalFallback(t *testing.T) {
	path := writeSpeedFile(t, "address,latency,throughput\n1.1.1.1,30ms,3 MB/s\n")

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	// No port column: host-only fallback must serve any port.
	if raw, ok := table.Lookup("1.1.1.1:2053"); !ok || raw != "3 MB/s" {
		t.Errorf("Lookup() = (%q, %v), want (3 MB/s, true)", raw, ok)
	}
}

func TestLookupHostFallback(t *testing.T) {
	path := writeSpeedFile(t, "ip,port,speed\n1.1.1.1,443,10 MB/s\n")

	table, err := LoadTable(path)
	if err != nil {
		t.Fatal(err)
	}
	// Different port than measured: the host-level record still applies.
	if raw, ok := table.Lookup("1.1.1.1:8443"); !ok || raw != "10 MB/s" {
		t.Errorf("Lookup() = (%q, %v), want host fallback to (10 MB/s, true)", raw, ok)
	}
	if _, ok := table.Lookup("9.9.9.9:443"); ok {
		t.Error("Lookup() found a record for an unknown host")
	}
}

func TestLoadTableSkipsBadRows(t *testing.T) {
	path := writeSpeedFile(t, "ip,port,speed\n1.1.1.1,443,10 MB/s\n,,\nshort\n")

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	if table.Len() != 1 {
		t.Errorf("Len() = %d, want 1", table.Len())
	}
}

func TestLoadTableMissingFile(t *testing.T) {
	if _, err := LoadTable(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Error("LoadTable() on missing file succeeded, want error")
	}
}
