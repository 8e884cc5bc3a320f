// Package batch turns an uploaded CSV or JSON payload into per-record
// classification results. Decoding failures abort the request; a bad record
// inside a decoded batch only ever fails that record.
package batch

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Decode failures are caller faults.
var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmptyFile       = errors.New("empty file")
	ErrMissingHeader   = errors.New("missing CSV header")
	ErrNoDataRows      = errors.New("no data rows")
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// DecodeUpload converts raw upload bytes into an ordered batch of records.
// The format is chosen by file extension first, content type second. Records
// are returned as decoded JSON values; entries that are not objects survive
// decoding and are rejected per-record by the aggregator.
func DecodeUpload(data []byte, filename, contentType string) ([]interface{}, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	switch format(filename, contentType) {
	case "json":
		return decodeJSON(data)
	case "csv":
		return decodeCSV(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, filename)
	}
}

func format(filename, contentType string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return "json"
	case ".csv":
		return "csv"
	}

	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch mediaType {
	case "application/json":
		return "json"
	case "text/csv", "application/csv":
		return "csv"
	}
	return ""
}

func decodeJSON(data []byte) ([]interface{}, error) {
	data = bytes.TrimPrefix(data, bom)
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("payload is not valid UTF-8")
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var payload interface{}
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	switch value := payload.(type) {
	case map[string]interface{}:
		return []interface{}{value}, nil
	case []interface{}:
		return value, nil
	default:
		return nil, fmt.Errorf("JSON payload must be an object or an array of objects")
	}
}

func decodeCSV(data []byte) ([]interface{}, error) {
	data = bytes.TrimPrefix(data, bom)
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("payload is not valid UTF-8")
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("invalid CSV header: %w", err)
	}

	var records []interface{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid CSV: %w", err)
		}
		if blankRow(row) {
			continue
		}

		record := make(map[string]interface{}, len(header))
		for i, name := range header {
			if i < len(row) {
				record[strings.TrimSpace(name)] = strings.TrimSpace(row[i])
			}
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, ErrNoDataRows
	}
	return records, nil
}

func blankRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
