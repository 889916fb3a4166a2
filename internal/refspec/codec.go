package refspec

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// ColumnIndex converts a column label ("A", "AA", ...) to its 1-based index.
// The label is trimmed and upper-cased first; anything that is not purely
// letters reports false. This is bijective base-26: "Z" is 26, "AA" is 27.
func ColumnIndex(letters string) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(letters))
	if !isLetters(s) {
		return 0, false
	}
	n, err := excelize.ColumnNameToNumber(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ColumnName is the inverse of ColumnIndex for indices >= 1. It returns ""
// for out-of-range input.
func ColumnName(index int) string {
	name, err := excelize.ColumnNumberToName(index)
	if err != nil {
		return ""
	}
	return name
}

func isLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

func hasDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
