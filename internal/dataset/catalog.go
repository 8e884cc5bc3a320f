// Package dataset loads the cumulative KOI catalogue used for offline
// training. The catalogue is the CSV export of the NASA Exoplanet Archive
// cumulative table, which prefixes the header with '#' comment lines.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Row is a single catalogue record keyed by header column name.
type Row map[string]string

// Disposition labels recognized for training. Rows with any other
// disposition (e.g. CANDIDATE) are excluded from the training corpus.
const (
	DispositionConfirmed     = "CONFIRMED"
	DispositionFalsePositive = "FALSE POSITIVE"
)

// Disposition returns the row's ground-truth label, trimmed and upper-cased.
func (r Row) Disposition() string {
	return strings.ToUpper(strings.TrimSpace(r["koi_disposition"]))
}

// ReadCatalog parses the catalogue CSV from r. Comment lines starting with
// '#' are skipped; the first remaining line is the mandatory header.
func ReadCatalog(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("catalogue has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read catalogue header: %w", err)
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalogue row %d: %w", len(rows)+1, err)
		}

		row := make(Row, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("catalogue has no data rows")
	}
	return rows, nil
}

// ReadCatalogFile opens and parses a catalogue file from disk.
func ReadCatalogFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalogue %s: %w", path, err)
	}
	defer f.Close()
	return ReadCatalog(f)
}
