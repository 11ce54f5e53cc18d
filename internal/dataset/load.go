package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

var (
	// ErrEmptyCSV is returned when a CSV stream has no header row.
	ErrEmptyCSV = errors.New("csv has no header row")
	// ErrNotArray is returned when a JSON document is not an array of objects.
	ErrNotArray = errors.New("json document is not an array of objects")
)

// nullValues are the spellings upstream tooling uses for a missing value.
var nullValues = map[string]struct{}{
	"nan":  {},
	"NaN":  {},
	"null": {},
	"None": {},
}

// Normalize trims whitespace and maps null spellings to the empty string.
func Normalize(v string) string {
	v = strings.TrimSpace(v)
	if _, ok := nullValues[v]; ok {
		return ""
	}

	return v
}

// ParseCSV reads a CSV stream whose first row names the fields.
func ParseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyCSV
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	fields := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}

		fields[i] = strings.TrimSpace(h)
	}

	rows := make([]Row, 0, 1024)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", len(rows)+1, err)
		}

		row := make(Row, len(fields))

		for i, field := range fields {
			if i >= len(record) {
				row[field] = ""

				continue
			}

			if _, dup := row[field]; dup {
				continue
			}

			row[field] = Normalize(record[i])
		}

		rows = append(rows, row)
	}

	return New(dedupe(fields), rows...), nil
}

// ParseJSON reads a JSON array of objects. The field set is the union of
// object keys in first-seen order.
func ParseJSON(data []byte) (*Table, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var objects []map[string]any
	if err := decoder.Decode(&objects); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, ErrNotArray
		}

		return nil, fmt.Errorf("failed to decode json: %w", err)
	}

	fields := make([]string, 0, 16)
	seen := make(map[string]bool, 16)
	rows := make([]Row, 0, len(objects))

	for _, obj := range objects {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		row := make(Row, len(obj))

		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				fields = append(fields, k)
			}

			v, err := stringify(obj[k])
			if err != nil {
				return nil, fmt.Errorf("failed to encode field %q: %w", k, err)
			}

			row[k] = Normalize(v)
		}

		rows = append(rows, row)
	}

	return New(fields, rows...), nil
}

func stringify(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		if val {
			return "true", nil
		}

		return "false", nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", err
		}

		return string(b), nil
	}
}

func dedupe(fields []string) []string {
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))

	for _, f := range fields {
		if seen[f] {
			continue
		}

		seen[f] = true
		out = append(out, f)
	}

	return out
}

// WriteCSV writes the table header followed by every row.
func WriteCSV(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(t.Fields); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, len(t.Fields))

	for _, row := range t.Rows {
		for i, field := range t.Fields {
			record[i] = row[field]
		}

		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	writer.Flush()

	return writer.Error()
}
