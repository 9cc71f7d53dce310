package table

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jacoelho/rex/internal/column"
	"github.com/jacoelho/rex/internal/query"
	"github.com/jacoelho/rex/internal/record"
)

func mapOf(pairs ...any) *record.Map {
	m := record.NewMap()
	for i := 0; i < len(pairs); i += 2 {
		m.Set(pairs[i].(string), pairs[i+1])
	}
	return m
}

func TestBuildOneRowPerRecord(t *testing.T) {
	t.Parallel()

	records := []any{
		mapOf("title", "first", "author", "ada"),
		mapOf("title", "second"),
	}
	columns := column.Columns{
		{Name: "Title", Spec: column.Spec{PatternPath: column.PatternPath{"^title$"}}},
		{Name: "Author", Spec: column.Spec{PatternPath: column.PatternPath{"^author$"}}},
	}

	table, err := Build(records, columns)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("Build() returned %d rows, want 2", len(table))
	}

	if got := table[0].Keys(); fmt.Sprint(got) != "[Title Author]" {
		t.Fatalf("row keys = %v, want [Title Author]", got)
	}

	value, _ := table[0].Get("Author")
	if value != "ada" {
		t.Fatalf("first row Author = %v, want ada", value)
	}

	// missing match still produces the declared column, holding nil
	value, ok := table[1].Get("Author")
	if !ok || value != nil {
		t.Fatalf("second row Author = %v, %v, want nil, true", value, ok)
	}
}

func TestBuildMergesMultipleColumns(t *testing.T) {
	t.Parallel()

	records := []any{
		mapOf("title", "x", "extras", mapOf("license", "mit", "size", "10")),
	}
	columns := column.Columns{
		{Name: "Title", Spec: column.Spec{PatternPath: column.PatternPath{"^title$"}}},
		{Name: "Extras", Spec: column.Spec{
			PatternPath:           column.PatternPath{"^extras$", ".*"},
			ReturnMultipleColumns: true,
		}},
	}

	table, err := Build(records, columns)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// derived keys merge into the row; the declared name is not used
	if got := table[0].Keys(); fmt.Sprint(got) != "[Title extras_license extras_size]" {
		t.Fatalf("row keys = %v, want [Title extras_license extras_size]", got)
	}
}

func TestBuildMultipleColumnsCollisionLastWins(t *testing.T) {
	t.Parallel()

	records := []any{mapOf("key", "value")}
	columns := column.Columns{
		{Name: "first", Spec: column.Spec{
			PatternPath:           column.PatternPath{"^key$"},
			ReturnMultipleColumns: true,
		}},
		{Name: "second", Spec: column.Spec{
			PatternPath:           column.PatternPath{"^key$"},
			ReturnMultipleColumns: true,
			StringTransformations: []string{"upper"},
		}},
	}

	table, err := Build(records, columns)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if got := table[0].Keys(); fmt.Sprint(got) != "[key]" {
		t.Fatalf("row keys = %v, want [key]", got)
	}
	value, _ := table[0].Get("key")
	if fmt.Sprint(value) != "[VALUE]" {
		t.Fatalf("key = %v, want [VALUE] (last column wins)", value)
	}
}

func TestBuildMultipleColumnsNoMatchAddsNothing(t *testing.T) {
	t.Parallel()

	records := []any{mapOf("other", "x")}
	columns := column.Columns{
		{Name: "derived", Spec: column.Spec{
			PatternPath:           column.PatternPath{"^missing$"},
			ReturnMultipleColumns: true,
		}},
	}

	table, err := Build(records, columns)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if table[0].Len() != 0 {
		t.Fatalf("row keys = %v, want none", table[0].Keys())
	}
}

func TestBuildAbortsOnError(t *testing.T) {
	t.Parallel()

	records := []any{
		mapOf("tag_one", "a", "tag_two", "b"),
	}
	columns := column.Columns{
		{Name: "tag", Spec: column.Spec{
			PatternPath: column.PatternPath{"^tag"},
			Unique:      true,
		}},
	}

	_, err := Build(records, columns)
	if !errors.Is(err, query.ErrUnique) {
		t.Fatalf("Build() error = %v, want ErrUnique", err)
	}
	if !strings.Contains(err.Error(), `"tag"`) {
		t.Fatalf("Build() error %q does not name the failing column", err)
	}
}

func TestCSVReconcilesColumns(t *testing.T) {
	t.Parallel()

	table := Table{
		mapOf("x", "1", "y", "2"),
		mapOf("x", "3", "y", "4", "z", "5"),
	}

	got, err := table.CSV()
	if err != nil {
		t.Fatalf("CSV() error = %v", err)
	}

	want := "x,y,z\n1,2,\n3,4,5\n"
	if got != want {
		t.Fatalf("CSV() = %q, want %q", got, want)
	}
}

func TestCSVExtraColumnsSorted(t *testing.T) {
	t.Parallel()

	table := Table{
		mapOf("x", "1"),
		mapOf("x", "2", "c", "3", "a", "4"),
		mapOf("x", "5", "b", "6"),
	}

	got, err := table.CSV()
	if err != nil {
		t.Fatalf("CSV() error = %v", err)
	}
	if !strings.HasPrefix(got, "x,a,b,c\n") {
		t.Fatalf("CSV() header = %q, want x,a,b,c", strings.SplitN(got, "\n", 2)[0])
	}
}

func TestCSVJoinsListCells(t *testing.T) {
	t.Parallel()

	table := Table{
		mapOf("tags", []any{"a", "b"}, "count", 2),
	}

	got, err := table.CSV()
	if err != nil {
		t.Fatalf("CSV() error = %v", err)
	}

	want := "tags,count\n\"a, b\",2\n"
	if got != want {
		t.Fatalf("CSV() = %q, want %q", got, want)
	}
}

func TestCSVQuotesSpecialCharacters(t *testing.T) {
	t.Parallel()

	table := Table{
		mapOf("a", "has,comma", "b", "has \"quote\"", "c", "has\nnewline"),
	}

	got, err := table.CSV()
	if err != nil {
		t.Fatalf("CSV() error = %v", err)
	}

	want := "a,b,c\n\"has,comma\",\"has \"\"quote\"\"\",\"has\nnewline\"\n"
	if got != want {
		t.Fatalf("CSV() = %q, want %q", got, want)
	}
}

func TestCSVEmptyTable(t *testing.T) {
	t.Parallel()

	got, err := Table{}.CSV()
	if err != nil {
		t.Fatalf("CSV() error = %v", err)
	}
	if got != "" {
		t.Fatalf("CSV() = %q, want empty string", got)
	}
}

func TestPretty(t *testing.T) {
	t.Parallel()

	table := Table{
		mapOf("name", "ada", "age", 36),
		mapOf("name", "grace", "age", 85),
	}

	want := strings.Join([]string{
		"+-------+-----+",
		"| name  | age |",
		"+=======+=====+",
		"| ada   | 36  |",
		"+-------+-----+",
		"| grace | 85  |",
		"+-------+-----+",
		"",
	}, "\n")

	if got := table.Pretty(); got != want {
		t.Fatalf("Pretty() =\n%s\nwant\n%s", got, want)
	}
}

func TestPrettyEmptyTable(t *testing.T) {
	t.Parallel()

	if got := (Table{}).Pretty(); got != "" {
		t.Fatalf("Pretty() = %q, want empty string", got)
	}
}

func TestJSONPreservesOrder(t *testing.T) {
	t.Parallel()

	table := Table{
		mapOf("z", "1", "a", []any{"x", "y"}),
	}

	got, err := table.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	zIndex := strings.Index(got, `"z"`)
	aIndex := strings.Index(got, `"a"`)
	if zIndex < 0 || aIndex < 0 || zIndex > aIndex {
		t.Fatalf("JSON() = %s, want z before a", got)
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{name: "raw", want: FormatRaw},
		{name: "csv", want: FormatCSV},
		{name: "pretty", want: FormatPretty},
		{name: "grid", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseFormat(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrFormat) {
					t.Fatalf("ParseFormat(%q) error = %v, want ErrFormat", tt.name, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseFormat(%q) = %v, %v, want %v, nil", tt.name, got, err, tt.want)
			}
		})
	}
}

func TestProduce(t *testing.T) {
	t.Parallel()

	records := []any{mapOf("title", "x")}
	columns := column.Columns{
		{Name: "title", Spec: column.Spec{PatternPath: column.PatternPath{"^title$"}}},
	}

	csvOut, err := Produce(records, columns, FormatCSV)
	if err != nil {
		t.Fatalf("Produce(csv) error = %v", err)
	}
	if csvOut != "title\nx\n" {
		t.Fatalf("Produce(csv) = %q", csvOut)
	}

	rawOut, err := Produce(records, columns, FormatRaw)
	if err != nil {
		t.Fatalf("Produce(raw) error = %v", err)
	}
	if !strings.Contains(rawOut, `"title": "x"`) {
		t.Fatalf("Produce(raw) = %q", rawOut)
	}

	prettyOut, err := Produce(records, columns, FormatPretty)
	if err != nil {
		t.Fatalf("Produce(pretty) error = %v", err)
	}
	if !strings.Contains(prettyOut, "| title |") {
		t.Fatalf("Produce(pretty) = %q", prettyOut)
	}
}
