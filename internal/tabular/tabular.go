// Package tabular locates columns in delimited text files whose headers vary
// across tool versions and locales. Callers declare canonical fields with the
// header spellings they accept; resolution happens once per file, with an
// explicit positional fallback when nothing matches.
package tabular

import (
	"strings"

	"github.com/samber/lo"
)

// Delimiters considered during auto-detection.
var candidateDelims = []rune{',', ';', '\t'}

// Aliases maps a canonical field name to the accepted header spellings
// (matched case-insensitively after trimming).
type Aliases map[string][]string

// Merge combines alias tables; later entries extend earlier ones.
func Merge(tables ...Aliases) Aliases {
	out := Aliases{}
	for _, t := range tables {
		for field, names := range t {
			out[field] = lo.Union(out[field], names)
		}
	}
	return out
}

// DetectDelimiter picks the delimiter with the most occurrences in the
// header line, defaulting to comma.
func DetectDelimiter(header string) rune {
	best := ','
	bestCount := 0
	for _, d := range candidateDelims {
		count := strings.Count(header, string(d))
		if count > bestCount {
			best = d
			bestCount = count
		}
	}
	return best
}

// ResolveColumns maps each canonical field to its column index in the header
// row, or -1 when no accepted spelling matches. Matching is case-insensitive
// on the trimmed header cell.
func ResolveColumns(header []string, aliases Aliases) map[string]int {
	columns := make(map[string]int, len(aliases))
	for field := range aliases {
		columns[field] = -1
	}

	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		for field, names := range aliases {
			if columns[field] != -1 {
				continue
			}
			for _, accepted := range names {
				if name == strings.ToLower(accepted) {
					columns[field] = i
					break
				}
			}
		}
	}

	return columns
}
