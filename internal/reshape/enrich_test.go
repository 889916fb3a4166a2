package reshape

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, header []string, rows [][]any) *Table {
	t.Helper()
	tbl, err := New(header, rows)
	require.NoError(t, err)
	return tbl
}

func TestEnrichJoinsOnNameAndPadsID(t *testing.T) {
	input := mustTable(t, []string{"emp", "sales"}, [][]any{
		{"Alice", "100"},
		{"Bob", "200"},
	})
	lookup := mustTable(t, []string{"emp_nm", "emp_id", "grp"}, [][]any{
		{"Alice", "42", "North"},
		{"Bob", "7", "South"},
	})

	res, err := Enrich(input, lookup)
	require.NoError(t, err)
	require.Equal(t, []string{"grp", "emp_id", "emp_nm", "sales"}, res.Table.Columns)
	require.Equal(t, []any{"North", "00000042", "Alice", "100"}, res.Table.Rows[0])
	require.Equal(t, []any{"South", "00000007", "Bob", "200"}, res.Table.Rows[1])
	require.Equal(t, "2 records enriched with employee info", res.Summary)
}

func TestEnrichInputIDWins(t *testing.T) {
	input := mustTable(t, []string{"emp", "emp_id", "sales"}, [][]any{
		{"Alice", "7", "100"},
	})
	lookup := mustTable(t, []string{"emp_nm", "emp_id"}, [][]any{
		{"Alice", "42"},
	})

	res, err := Enrich(input, lookup)
	require.NoError(t, err)
	idIdx := res.Table.ColumnIndex("emp_id")
	require.Equal(t, "00000007", res.Table.Rows[0][idIdx])
}

func TestEnrichUnmatchedRowGetsPlaceholderID(t *testing.T) {
	input := mustTable(t, []string{"emp"}, [][]any{
		{"Zed"},
	})
	lookup := mustTable(t, []string{"emp_nm", "emp_id", "grp"}, [][]any{
		{"Alice", "42", "North"},
	})

	res, err := Enrich(input, lookup)
	require.NoError(t, err)
	idIdx := res.Table.ColumnIndex("emp_id")
	grpIdx := res.Table.ColumnIndex("grp")
	require.Equal(t, "00000000", res.Table.Rows[0][idIdx])
	require.Nil(t, res.Table.Rows[0][grpIdx])
}

func TestEnrichJoinsOnIDWhenNoNameColumn(t *testing.T) {
	input := mustTable(t, []string{"id", "sales"}, [][]any{
		{"42", "100"},
	})
	lookup := mustTable(t, []string{"emp_id", "emp_nm", "grp"}, [][]any{
		{"00000042", "Alice", "North"},
	})

	res, err := Enrich(input, lookup)
	require.NoError(t, err)
	require.Equal(t, []string{"grp", "emp_id", "emp_nm", "sales"}, res.Table.Columns)
	require.Equal(t, []any{"North", "00000042", "Alice", "100"}, res.Table.Rows[0])
}

func TestEnrichRenamesDateAndOrdersColumns(t *testing.T) {
	input := mustTable(t, []string{"sales", "date", "emp"}, [][]any{
		{"100", "2024-01-31", "Alice"},
	})
	lookup := mustTable(t, []string{"emp_nm", "emp_id", "grp"}, [][]any{
		{"Alice", "42", "North"},
	})

	res, err := Enrich(input, lookup)
	require.NoError(t, err)
	require.Equal(t, []string{"data_dt", "grp", "emp_id", "emp_nm", "sales"}, res.Table.Columns)
	require.Equal(t, []any{"2024-01-31", "North", "00000042", "Alice", "100"}, res.Table.Rows[0])
}

func TestEnrichLookupGroupOverridesInput(t *testing.T) {
	input := mustTable(t, []string{"emp", "grp"}, [][]any{
		{"Alice", "Stale"},
	})
	lookup := mustTable(t, []string{"emp_nm", "grp"}, [][]any{
		{"Alice", "North"},
	})

	res, err := Enrich(input, lookup)
	require.NoError(t, err)
	grpIdx := res.Table.ColumnIndex("grp")
	require.Equal(t, "North", res.Table.Rows[0][grpIdx])
}

func TestEnrichChineseHeaders(t *testing.T) {
	input := mustTable(t, []string{"姓名", "销量"}, [][]any{
		{"张三", "9"},
	})
	lookup := mustTable(t, []string{"员工姓名", "工号", "小组"}, [][]any{
		{"张三", "1", "东区"},
	})

	res, err := Enrich(input, lookup)
	require.NoError(t, err)
	require.Equal(t, []string{"grp", "emp_id", "emp_nm", "销量"}, res.Table.Columns)
	require.Equal(t, []any{"东区", "00000001", "张三", "9"}, res.Table.Rows[0])
}

func TestEnrichErrors(t *testing.T) {
	empty := &Table{Columns: []string{"emp"}}
	one := mustTable(t, []string{"emp_nm"}, [][]any{{"Alice"}})

	_, err := Enrich(one, empty)
	require.Error(t, err)

	_, err = Enrich(empty, one)
	require.Error(t, err)

	noIdentity := mustTable(t, []string{"sales"}, [][]any{{"1"}})
	_, err = Enrich(noIdentity, one)
	require.ErrorContains(t, err, "employee name or id column")

	badLookup := mustTable(t, []string{"whatever"}, [][]any{{"x"}})
	_, err = Enrich(one, badLookup)
	require.ErrorContains(t, err, "employee lookup")
}
