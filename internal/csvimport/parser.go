package csvimport

import (
	"fmt"
	"strings"

	"tradlyst/internal/domain"
	"tradlyst/internal/ports"
)

// Parse splits CSV text into a normalized header and one RawRow per
// non-blank data line. Quoted fields containing commas are not supported.
// A leading UTF-8 byte order mark is dropped.
func Parse(text string) (*domain.ParsedCSV, error) {
	text = strings.TrimPrefix(text, byteOrderMark)
	lines := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("%w: CSV file must have at least a header and one data row", ports.ErrMalformedInput)
	}

	headers := splitLine(lines[0])
	for i, h := range headers {
		headers[i] = strings.ToLower(h)
	}

	rows := make([]domain.RawRow, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := splitLine(line)
		row := make(domain.RawRow, len(headers))
		for i, h := range headers {
			if i < len(values) {
				row[h] = values[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}

	return &domain.ParsedCSV{Headers: headers, Rows: rows}, nil
}

const byteOrderMark = "\ufeff"

func splitLine(line string) []string {
	fields := strings.Split(line, ",")
	for i, f := range fields {
		fields[i] = strings.ReplaceAll(strings.TrimSpace(f), `"`, "")
	}
	return fields
}
