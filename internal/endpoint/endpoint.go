package endpoint

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Endpoint is a host/port pair to be probed. Immutable once parsed.
type Endpoint struct {
	Host string `json:"host"`
	Port uint16 `json:"port"`
}

// Key returns the endpoint identity used across the ledger and reports.
func (e Endpoint) Key() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

func (e Endpoint) String() string {
	return e.Key()
}

// ParseLine turns one raw input line into an Endpoint. It returns ok=false
// for blank lines, comment lines (leading '#') and malformed entries; a bad
// line never aborts the batch.
//
// Accepted formats: "host port" (whitespace separated) and "host:port".
func ParseLine(line string) (Endpoint, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Endpoint{}, false
	}

	var tokens []string
	if strings.ContainsAny(line, " \t") {
		tokens = strings.Fields(line)
	} else {
		tokens = strings.Split(line, ":")
	}
	if len(tokens) < 2 {
		return Endpoint{}, false
	}

	host := strings.TrimSpace(tokens[0])
	portStr := strings.TrimSpace(tokens[1])
	if host == "" {
		return Endpoint{}, false
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return Endpoint{}, false
	}

	return Endpoint{Host: host, Port: uint16(port)}, true
}

// ParseLines parses a whole batch. Malformed lines are counted and skipped.
// The returned endpoints are deduplicated by identity key, first occurrence
// wins.
func ParseLines(lines []string) (endpoints []Endpoint, skipped int) {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		ep, ok := ParseLine(trimmed)
		if !ok {
			skipped++
			continue
		}
		endpoints = append(endpoints, ep)
	}
	endpoints = lo.UniqBy(endpoints, Endpoint.Key)
	return endpoints, skipped
}

// IsIPAddress reports whether host is a literal IP address.
func IsIPAddress(host string) bool {
	return net.ParseIP(host) != nil
}

// ResolveHost expands a domain endpoint into one endpoint per resolved IP.
// Literal IP endpoints are returned as-is. Resolution failure returns an
// error; callers decide whether that is fatal for the entry.
func ResolveHost(ep Endpoint) ([]Endpoint, error) {
	if IsIPAddress(ep.Host) {
		return []Endpoint{ep}, nil
	}
	addrs, err := net.LookupHost(ep.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", ep.Host, err)
	}
	var out []Endpoint
	for _, addr := range addrs {
		out = append(out, Endpoint{Host: addr, Port: ep.Port})
	}
	return lo.UniqBy(out, Endpoint.Key), nil
}
