package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Column headers for the upload template. Header matching is case-insensitive
// and tolerant of column order; underscores are treated as spaces so exported
// files round-trip.
const (
	colTitle         = "title"
	colContent       = "content"
	colCustomerName  = "customer name"
	colCustomerEmail = "customer email"
	colRating        = "rating"
	colCreatedAt     = "created at"
	colExternalID    = "external review id"
)

// timeLayouts are tried in order when parsing the Created At column.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// ParseResult carries the parsed records plus the count of rows that were
// structurally unusable (wrong field count, unreadable). The malformed count
// is independent of the normalizer's own reject count.
type ParseResult struct {
	Records   []Record
	Malformed int
}

// ParseCSV reads an uploaded CSV stream into intermediate records. The first
// row must be a header containing at least Title, Content, and Customer Name
// columns. A malformed data row is counted and skipped, never fatal.
func ParseCSV(r io.Reader) (*ParseResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, col := range header {
		key := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(col, "_", " ")))
		idx[key] = i
	}

	for _, required := range []string{colTitle, colContent, colCustomerName} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("csv header missing required column %q", required)
		}
	}

	result := &ParseResult{}
	width := len(header)

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Malformed++
			continue
		}
		if len(row) != width {
			result.Malformed++
			continue
		}

		rec := Record{
			Title:        field(row, idx, colTitle),
			Content:      field(row, idx, colContent),
			CustomerName: field(row, idx, colCustomerName),
		}

		if v := field(row, idx, colCustomerEmail); v != "" {
			rec.CustomerEmail = &v
		}
		if v := field(row, idx, colExternalID); v != "" {
			rec.ExternalID = &v
		}
		if v := field(row, idx, colRating); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				rec.Rating = &n
			}
		}
		if v := field(row, idx, colCreatedAt); v != "" {
			if t, ok := parseTime(v); ok {
				rec.CreatedAt = &t
			}
		}

		result.Records = append(result.Records, rec)
	}

	return result, nil
}

func field(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseTime tries the supported layouts. An unparsable value reports false and
// the row keeps going with the import time as its created_at.
func parseTime(v string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TemplateCSV is the static template served for download, matching the
// columns the upload parser accepts.
const TemplateCSV = "Title,Content,Customer Name,Customer Email,Rating,Created At\n" +
	"Great quality,Arrived quickly and works as described,Jane Doe,jane@example.com,5,2024-01-15\n"
