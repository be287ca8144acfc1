package score

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/laityts/iptest/internal/tabular"
	"github.com/laityts/iptest/pkg/tools/logger"
)

// Header spellings the external speed test tool has used across versions.
var speedAliases = tabular.Aliases{
	"ip":    {"ip", "ip地址", "ip 地址", "ip address", "ip_address"},
	"port":  {"port", "端口", "端口号"},
	"speed": {"speed", "下载速度", "download speed", "downloadspeed", "速度"},
}

// Table holds throughput records keyed by endpoint identity. Lookups fall
// back from the exact "host:port" key to the bare host, because older tool
// versions omit the port column.
type Table struct {
	exact  map[string]string
	byHost map[string]string
}

// Lookup returns the raw throughput text for an endpoint key.
func (t *Table) Lookup(key string) (string, bool) {
	if raw, ok := t.exact[key]; ok {
		return raw, true
	}
	host := key
	if i := strings.LastIndex(key, ":"); i > 0 {
		host = key[:i]
	}
	raw, ok := t.byHost[host]
	return raw, ok
}

// Len returns the number of distinct hosts with a throughput record.
func (t *Table) Len() int {
	return len(t.byHost)
}

// LoadTable reads the external tool's tabular output. The delimiter is
// auto-detected and the ip/port/speed columns are located by header alias,
// falling back to first column for the IP and last column for the speed.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open speed file '%s': %w", path, err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	headerLine, err := reader.ReadString('\n')
	if err != nil && headerLine == "" {
		return nil, fmt.Errorf("failed to read speed file header from '%s': %w", path, err)
	}

	delim := tabular.DetectDelimiter(headerLine)
	headerReader := csv.NewReader(strings.NewReader(headerLine))
	headerReader.Comma = delim
	header, err := headerReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to parse speed file header from '%s': %w", path, err)
	}

	columns := tabular.ResolveColumns(header, speedAliases)
	ipCol, portCol, speedCol := columns["ip"], columns["port"], columns["speed"]
	if ipCol == -1 && len(header) > 0 {
		ipCol = 0
		logger.Warn("No IP column matched, falling back to first column", "file", path, "column", header[0])
	}
	if speedCol == -1 && len(header) > 1 {
		speedCol = len(header) - 1
		logger.Warn("No speed column matched, falling back to last column", "file", path, "column", header[speedCol])
	}
	if ipCol == -1 || speedCol == -1 || ipCol == speedCol {
		return nil, fmt.Errorf("no usable ip/speed columns in '%s'", path)
	}

	body := csv.NewReader(reader)
	body.Comma = delim
	body.FieldsPerRecord = -1

	table := &Table{
		exact:  make(map[string]string),
		byHost: make(map[string]string),
	}
	for {
		row, err := body.Read()
		if err != nil {
			break
		}
		if len(row) <= ipCol || len(row) <= speedCol {
			continue
		}
		host := strings.TrimSpace(row[ipCol])
		speed := strings.TrimSpace(row[speedCol])
		if host == "" || speed == "" {
			continue
		}
		table.byHost[host] = speed
		if portCol != -1 && len(row) > portCol {
			port := strings.TrimSpace(row[portCol])
			if port != "" {
				table.exact[fmt.Sprintf("%s:%s", host, port)] = speed
			}
		}
	}

	return table, nil
}
