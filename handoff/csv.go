package handoff

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// Delimiter separates the table columns.
const Delimiter = '|'

// WriteCSV writes rows as a pipe-delimited table headed
// "key|<source locale>|<target locale>". A field holding the delimiter or a
// double quote is wrapped in double quotes with inner quotes doubled.
func WriteCSV(w io.Writer, rows []Row, sourceLocale, targetLocale string) error {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter

	if err := cw.Write([]string{"key", sourceLocale, targetLocale}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Key, r.Source, r.Target}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a table written by WriteCSV and returns the non-empty
// target texts by key. The header row is required.
func ReadCSV(r io.Reader) (map[string]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = Delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty table")
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) < 3 || header[0] != "key" {
		return nil, fmt.Errorf("unexpected header %q, want key|<source>|<target>", header)
	}

	out := make(map[string]string)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 3 || rec[0] == "" || rec[2] == "" {
			continue
		}
		out[rec[0]] = rec[2]
	}
	return out, nil
}
