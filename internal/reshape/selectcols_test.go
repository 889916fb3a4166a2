package reshape

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectColumnsKeepsStandardsAndMapsDict(t *testing.T) {
	input := mustTable(t, []string{"date", "emp", "emp_id", "q1_sales", "notes"}, [][]any{
		{"2024-01-31", "Alice", "42.0", "100", "n/a"},
	})
	dict := []ColumnMapping{
		{Old: "q1_sales", New: "sales"},
		{Old: "missing", New: "never"},
	}

	res, err := SelectColumns(input, dict)
	require.NoError(t, err)
	require.Equal(t, []string{"data_dt", "emp_id", "emp_nm", "sales"}, res.Table.Columns)
	require.Equal(t, []any{"2024-01-31", "42", "Alice", "100"}, res.Table.Rows[0])
	require.Equal(t, "4 selected columns", res.Summary)
}

func TestSelectColumnsIDTrimmedNotPadded(t *testing.T) {
	input := mustTable(t, []string{"emp_id", "v"}, [][]any{
		{"7.0", "1"},
	})
	res, err := SelectColumns(input, []ColumnMapping{{Old: "v", New: "value"}})
	require.NoError(t, err)
	idIdx := res.Table.ColumnIndex("emp_id")
	require.Equal(t, "7", res.Table.Rows[0][idIdx])
}

func TestSelectColumnsDictCannotShadowStandard(t *testing.T) {
	input := mustTable(t, []string{"emp", "region"}, [][]any{
		{"Alice", "EMEA"},
	})
	dict := []ColumnMapping{{Old: "region", New: "emp_nm"}}

	res, err := SelectColumns(input, dict)
	require.NoError(t, err)
	require.Equal(t, []string{"emp_nm"}, res.Table.Columns)
	require.Equal(t, "Alice", res.Table.Rows[0][0])
}

func TestSelectColumnsCaseInsensitiveDictMatch(t *testing.T) {
	input := mustTable(t, []string{"emp", "Q1_Sales"}, [][]any{
		{"Alice", "100"},
	})
	res, err := SelectColumns(input, []ColumnMapping{{Old: "q1_sales", New: "sales"}})
	require.NoError(t, err)
	require.Equal(t, []string{"emp_nm", "sales"}, res.Table.Columns)
}

func TestSelectColumnsErrors(t *testing.T) {
	input := mustTable(t, []string{"emp"}, [][]any{{"Alice"}})

	_, err := SelectColumns(input, nil)
	require.ErrorContains(t, err, "dictionary is empty")

	noIdentity := mustTable(t, []string{"sales"}, [][]any{{"1"}})
	_, err = SelectColumns(noIdentity, []ColumnMapping{{Old: "sales", New: "s"}})
	require.ErrorContains(t, err, "employee name or id column")

	empty := &Table{Columns: []string{"emp"}}
	_, err = SelectColumns(empty, []ColumnMapping{{Old: "x", New: "y"}})
	require.ErrorContains(t, err, "insufficient data")
}

func TestAutoSelectColumnsUsesOnlyDict(t *testing.T) {
	input := mustTable(t, []string{"emp", "q1", "q2"}, [][]any{
		{"Alice", "1", "2"},
	})
	dict := []ColumnMapping{
		{Old: "q2", New: "second"},
		{Old: "q1", New: "first"},
	}

	res, err := AutoSelectColumns(input, dict)
	require.NoError(t, err)
	require.Equal(t, []string{"second", "first"}, res.Table.Columns)
	require.Equal(t, []any{"2", "1"}, res.Table.Rows[0])
}

func TestAutoSelectColumnsErrorsWhenNothingMatches(t *testing.T) {
	input := mustTable(t, []string{"emp"}, [][]any{{"Alice"}})
	_, err := AutoSelectColumns(input, []ColumnMapping{{Old: "nope", New: "x"}})
	require.ErrorContains(t, err, "no dictionary columns matched")
}
