package importer

import (
	"encoding/json"
	"fmt"
	"io"
)

// jsonRow is the accepted shape for one element of an uploaded JSON array.
// Field names mirror the CSV template columns.
type jsonRow struct {
	ExternalReviewID *string `json:"external_review_id"`
	Title            string  `json:"title"`
	Content          string  `json:"content"`
	CustomerName     string  `json:"customer_name"`
	CustomerEmail    *string `json:"customer_email"`
	Rating           *int    `json:"rating"`
	CreatedAt        *string `json:"created_at"`
	ProductID        *string `json:"product_id"`
}

// ParseJSON reads an uploaded JSON array into intermediate records. The
// payload must be a top-level array; elements that fail to decode as objects
// are counted malformed and skipped.
func ParseJSON(r io.Reader) (*ParseResult, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read json payload: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("json payload must be an array of review objects")
	}

	result := &ParseResult{}
	for dec.More() {
		// Decode the raw element first so a bad field type in one object does
		// not terminate the stream and swallow the rows after it.
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			// Broken JSON syntax is unrecoverable; report what was parsed so
			// far plus one malformed row.
			result.Malformed++
			return result, nil
		}

		var row jsonRow
		if err := json.Unmarshal(raw, &row); err != nil {
			result.Malformed++
			continue
		}

		rec := Record{
			ExternalID:    row.ExternalReviewID,
			Title:         row.Title,
			Content:       row.Content,
			CustomerName:  row.CustomerName,
			CustomerEmail: row.CustomerEmail,
			Rating:        row.Rating,
			ProductID:     row.ProductID,
		}
		if row.CreatedAt != nil {
			if t, ok := parseTime(*row.CreatedAt); ok {
				rec.CreatedAt = &t
			}
		}

		result.Records = append(result.Records, rec)
	}

	return result, nil
}
