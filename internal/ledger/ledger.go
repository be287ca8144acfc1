// Package ledger implements the persistent ranked store of verified
// endpoints: a flat text file with one "host:port#<latency>ms" entry per
// endpoint, deduplicated by endpoint key and kept sorted ascending by
// latency after every write.
package ledger

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/laityts/iptest/pkg/tools/logger"
)

// Latency assigned to entries whose latency field cannot be parsed, so they
// sort after every real measurement.
const unparsableLatency = 99999

var (
	entryLatency = regexp.MustCompile(`#(\d+)`)
	asNumber     = regexp.MustCompile(`as\d+`)
)

// Entry is one persisted ledger record.
type Entry struct {
	Key       string `json:"key"`
	LatencyMs uint32 `json:"latency_ms"`
}

// Store is a key-sorted store backed by a flat file. All mutation goes
// through Upsert, which holds one coarse lock across the whole
// read-modify-write so concurrent dispatcher workers cannot interleave.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// NewStore creates a store over the ledger file at path. The file is created
// on first upsert.
func NewStore(path string) *Store {
	return &Store{
		path:   path,
		logger: logger.WithModule("LEDGER").Logger,
	}
}

// Path returns the ledger file location.
func (s *Store) Path() string {
	return s.path
}

// PathForInput derives the canonical ledger path for an input batch:
// "<dir>/<asNNN>_success.txt" where asNNN comes from the input directory or
// file name, falling back to the input's base name.
func PathForInput(inputPath string) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	dir := filepath.Dir(inputPath)

	name := ""
	if m := asNumber.FindString(dir); m != "" {
		name = m
	} else if m := asNumber.FindString(base); m != "" {
		name = m
	} else {
		name = base
	}

	return filepath.Join(dir, name+"_success.txt")
}

// Upsert inserts or replaces the entry for key and rewrites the ledger
// sorted ascending by latency. The whole read-modify-write runs under the
// store lock.
func (s *Store) Upsert(key string, latencyMs uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.readLines()
	if err != nil {
		return err
	}

	newLine := formatEntry(key, latencyMs)
	updated := false
	for i, line := range lines {
		if strings.HasPrefix(line, key+"#") {
			lines[i] = newLine
			updated = true
			break
		}
	}
	if !updated {
		lines = append(lines, newLine)
	}

	sortByLatency(lines)

	if err := s.writeAtomic(lines); err != nil {
		return err
	}

	s.logger.Debug("Ledger upserted", "key", key, "latency_ms", latencyMs, "entries", len(lines))
	return nil
}

// Snapshot reads the ledger back as parsed entries, in file order (ascending
// latency). Unparsable lines are skipped.
func (s *Store) Snapshot() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.readLines()
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, line := range lines {
		key, latency, ok := parseEntry(line)
		if !ok {
			continue
		}
		entries = append(entries, Entry{Key: key, LatencyMs: latency})
	}
	return entries, nil
}

func (s *Store) readLines() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger '%s': %w", s.path, err)
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func (s *Store) writeAtomic(lines []string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create ledger directory '%s': %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".ledger-*")
	if err != nil {
		return fmt.Errorf("failed to create temp ledger file: %w", err)
	}
	tmpName := tmp.Name()

	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close ledger: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace ledger '%s': %w", s.path, err)
	}
	return nil
}

func formatEntry(key string, latencyMs uint32) string {
	return fmt.Sprintf("%s#%dms", key, latencyMs)
}

func parseEntry(line string) (key string, latencyMs uint32, ok bool) {
	hash := strings.Index(line, "#")
	if hash <= 0 {
		return "", 0, false
	}
	key = line[:hash]
	m := entryLatency.FindStringSubmatch(line)
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return "", 0, false
	}
	return key, uint32(n), true
}

// sortByLatency orders ledger lines ascending by the numeric value after
// '#'. Lines without a parsable latency sort last.
func sortByLatency(lines []string) {
	sortKey := func(line string) uint32 {
		_, latency, ok := parseEntry(line)
		if !ok {
			return unparsableLatency
		}
		return latency
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return sortKey(lines[i]) < sortKey(lines[j])
	})
}
