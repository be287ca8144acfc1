package endpoint

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/laityts/iptest/internal/tabular"
	"github.com/laityts/iptest/pkg/tools/logger"
)

var (
	numericParam = regexp.MustCompile(`^[0-9]+$`)
	asParam      = regexp.MustCompile(`^as[0-9]+$`)
	asFileParam  = regexp.MustCompile(`^iptest_as([0-9]+)\.txt$`)
)

// Header spellings accepted when extracting endpoints from tabular input.
var inputAliases = tabular.Aliases{
	"ip":   {"ip", "ip地址", "ip 地址", "ip address", "ip_address"},
	"port": {"port", "端口", "端口号"},
}

// ResolveInputParam maps the user's shorthand to an input file path:
//
//	"123"                   -> as123/iptest_as123.txt
//	"as123"                 -> as123/iptest_as123.txt
//	"iptest_as123.txt"      -> iptest_as123.txt if present, else as123/iptest_as123.txt
//	anything else           -> treated as a path
func ResolveInputParam(param string) string {
	if _, err := os.Stat(param); err == nil {
		return param
	}
	if asParam.MatchString(param) {
		num := strings.TrimPrefix(param, "as")
		return filepath.Join(param, fmt.Sprintf("iptest_as%s.txt", num))
	}
	if numericParam.MatchString(param) {
		return filepath.Join("as"+param, fmt.Sprintf("iptest_as%s.txt", param))
	}
	if m := asFileParam.FindStringSubmatch(param); m != nil {
		return filepath.Join("as"+m[1], param)
	}
	return param
}

// ReadEndpoints loads a batch from a plain-text or CSV input file. It returns
// the parsed endpoints and the count of rejected lines. An unreadable file is
// the caller's fatal condition; bad lines are not.
func ReadEndpoints(path string) ([]Endpoint, int, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return readEndpointsCSV(path)
	}
	return readEndpointsText(path)
}

func readEndpointsText(path string) ([]Endpoint, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open input file '%s': %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read input file '%s': %w", path, err)
	}

	endpoints, skipped := ParseLines(lines)
	if skipped > 0 {
		logger.Warn("Skipped malformed input lines", "file", path, "skipped", skipped)
	}
	return endpoints, skipped, nil
}

func readEndpointsCSV(path string) ([]Endpoint, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open input file '%s': %w", path, err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	headerLine, err := reader.ReadString('\n')
	if err != nil && headerLine == "" {
		return nil, 0, fmt.Errorf("failed to read CSV header from '%s': %w", path, err)
	}

	delim := tabular.DetectDelimiter(headerLine)
	headerReader := csv.NewReader(strings.NewReader(headerLine))
	headerReader.Comma = delim
	header, err := headerReader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse CSV header from '%s': %w", path, err)
	}

	columns := tabular.ResolveColumns(header, inputAliases)
	ipCol, portCol := columns["ip"], columns["port"]
	if ipCol == -1 && len(header) > 0 {
		ipCol = 0
		logger.Warn("No IP column matched, falling back to first column", "file", path, "column", header[0])
	}
	if portCol == -1 && len(header) > 1 {
		portCol = 1
		logger.Warn("No port column matched, falling back to second column", "file", path, "column", header[1])
	}
	if ipCol == -1 || portCol == -1 {
		return nil, 0, fmt.Errorf("no usable ip/port columns in '%s'", path)
	}

	body := csv.NewReader(reader)
	body.Comma = delim
	body.FieldsPerRecord = -1

	var lines []string
	for {
		row, err := body.Read()
		if err != nil {
			break
		}
		if len(row) <= ipCol || len(row) <= portCol {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s", strings.TrimSpace(row[ipCol]), strings.TrimSpace(row[portCol])))
	}

	endpoints, skipped := ParseLines(lines)
	if skipped > 0 {
		logger.Warn("Skipped malformed CSV rows", "file", path, "skipped", skipped)
	}
	return endpoints, skipped, nil
}
