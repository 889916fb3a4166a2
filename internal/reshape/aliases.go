// Package reshape implements the tabular transforms behind the info, slc and
// sum tools: employee-metadata enrichment, dictionary-driven column
// selection, and roster-filtered aggregation with subtotal rows. Tables are
// plain in-memory values; reading and writing sheets is the caller's job.
package reshape

import "strings"

// Alias groups: interchangeable header spellings (including localized ones)
// all denoting one semantic role. Matching is case-insensitive and the first
// header in table order wins.
var (
	NameAliases  = []string{"emp_nm", "emp", "employee", "usr_nm", "name", "员工", "员工姓名", "姓名"}
	IDAliases    = []string{"emp_id", "employee_id", "usr_id", "id", "员工编号", "工号", "编号"}
	DateAliases  = []string{"date", "data_dt", "dt_date", "dt", "datetime", "日期", "时间", "time"}
	GroupAliases = []string{"grp", "group", "team", "组", "小组"}
)

// Standardized column names used in reshape output.
const (
	ColDate  = "data_dt"
	ColGroup = "grp"
	ColID    = "emp_id"
	ColName  = "emp_nm"
)

// FindColumn returns the first header (in header order) whose lower-cased
// form equals any alias in the group. Blank headers never match.
func FindColumn(headers []string, aliases []string) (string, bool) {
	for _, h := range headers {
		if strings.TrimSpace(h) == "" {
			continue
		}
		low := strings.ToLower(h)
		for _, a := range aliases {
			if low == strings.ToLower(a) {
				return h, true
			}
		}
	}
	return "", false
}
