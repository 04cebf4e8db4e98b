// Package export writes result sets to CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/buildscout/buildscout/internal/search"
)

// csvHeader fixes the column order for CSV output.
var csvHeader = []string{
	"source", "title", "body", "author", "date", "url", "score", "comments_count", "tags",
}

// WriteCSV writes the result set as CSV with a fixed header row. Dates are
// RFC 3339 in UTC; records without a date leave the column empty.
func WriteCSV(w io.Writer, rs search.ResultSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range rs {
		date := ""
		if rec.Date != nil {
			date = rec.Date.UTC().Format(time.RFC3339)
		}
		row := []string{
			rec.Source,
			rec.Title,
			rec.Body,
			rec.Author,
			date,
			rec.URL,
			strconv.FormatFloat(rec.Score, 'f', -1, 64),
			strconv.Itoa(rec.CommentsCount),
			strings.Join(rec.Tags, ","),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// jsonDocument is the shape of JSON exports: results plus the metadata of
// the search that produced them.
type jsonDocument struct {
	Metadata search.Metadata  `json:"metadata"`
	Results  search.ResultSet `json:"results"`
}

// WriteJSON writes the result set and its search metadata as indented JSON.
func WriteJSON(w io.Writer, rs search.ResultSet, meta search.Metadata) error {
	data, err := json.MarshalIndent(jsonDocument{Metadata: meta, Results: rs}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}
