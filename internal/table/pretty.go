package table

import (
	"strings"
	"unicode/utf8"
)

// Pretty renders the table as a bordered grid for terminal display:
//
//	+------+-----+
//	| name | age |
//	+======+=====+
//	| ada  | 36  |
//	+------+-----+
//
// The column set is reconciled the same way as for CSV. The output is
// for humans, not for parsing.
func (t Table) Pretty() string {
	fields := t.fields()
	if fields == nil {
		return ""
	}

	cells := make([][]string, 0, len(t))
	widths := make([]int, len(fields))
	for i, field := range fields {
		widths[i] = utf8.RuneCountInString(field)
	}

	for _, row := range t {
		line := make([]string, len(fields))
		for i, field := range fields {
			value, _ := row.Get(field)
			line[i] = formatCell(value)
			if n := utf8.RuneCountInString(line[i]); n > widths[i] {
				widths[i] = n
			}
		}
		cells = append(cells, line)
	}

	var b strings.Builder
	writeRule(&b, widths, '-')
	writeLine(&b, widths, fields)
	writeRule(&b, widths, '=')
	for _, line := range cells {
		writeLine(&b, widths, line)
		writeRule(&b, widths, '-')
	}

	return b.String()
}

func writeRule(b *strings.Builder, widths []int, fill rune) {
	for _, width := range widths {
		b.WriteByte('+')
		b.WriteString(strings.Repeat(string(fill), width+2))
	}
	b.WriteString("+\n")
}

func writeLine(b *strings.Builder, widths []int, cells []string) {
	for i, cell := range cells {
		b.WriteString("| ")
		b.WriteString(cell)
		b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell)+1))
	}
	b.WriteString("|\n")
}
