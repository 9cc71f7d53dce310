package table

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
)

// CSV serializes the table as UTF-8 CSV text: one header line with the
// reconciled column set, one data line per row. List-valued cells are
// joined with ", "; absent and nil cells are empty. An empty table
// produces an empty string, as there is no first row to anchor a
// header on.
func (t Table) CSV() (string, error) {
	fields := t.fields()
	if fields == nil {
		return "", nil
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(fields); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}

	line := make([]string, len(fields))
	for _, row := range t {
		for i, field := range fields {
			value, _ := row.Get(field)
			line[i] = formatCell(value)
		}
		if err := writer.Write(line); err != nil {
			return "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.String(), nil
}

// JSON serializes the table as an insertion-ordered JSON array of row
// objects, the raw format's wire form.
func (t Table) JSON() (string, error) {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode table: %w", err)
	}
	return string(data) + "\n", nil
}

// formatCell renders one cell value as CSV field text.
func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, formatCell(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}
