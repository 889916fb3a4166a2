package reshape

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/peelpotato/fastbi/config"
)

// Locator finds the employee roster and column dictionary workbooks. A
// user-maintained copy in DataDir takes precedence; the embedded copy that
// ships alongside the binary in BundleDir is the fallback.
type Locator struct {
	DataDir   string
	BundleDir string
}

// NewLocatorFromEnv builds a Locator from FASTBI_DATA_DIR (defaulting to the
// working directory) with the bundle directory next to the executable.
func NewLocatorFromEnv() Locator {
	dataDir := strings.TrimSpace(os.Getenv(config.EnvDataDir))
	if dataDir == "" {
		dataDir = "."
	}
	bundleDir := ""
	if exe, err := os.Executable(); err == nil {
		bundleDir = filepath.Join(filepath.Dir(exe), "data")
	}
	return Locator{DataDir: dataDir, BundleDir: bundleDir}
}

// LoadEmployees reads the employee roster workbook and returns its table
// along with the path it was loaded from.
func (l Locator) LoadEmployees() (*Table, string, error) {
	path, err := l.resolve(config.EmployeeWorkbook, config.EmployeeEmbeddedWorkbook)
	if err != nil {
		return nil, "", err
	}
	t, err := loadSheetTable(path, config.EmployeeSheet)
	if err != nil {
		return nil, "", err
	}
	return t, path, nil
}

// LoadDictionary reads the column dictionary workbook. Rows need an old and
// a new header; rows with an empty new header are dropped.
func (l Locator) LoadDictionary() ([]ColumnMapping, string, error) {
	path, err := l.resolve(config.DictWorkbook, config.DictEmbeddedWorkbook)
	if err != nil {
		return nil, "", err
	}
	t, err := loadSheetTable(path, config.DictSheet)
	if err != nil {
		return nil, "", err
	}
	oldIdx := t.ColumnIndex("old")
	newIdx := t.ColumnIndex("new")
	if oldIdx < 0 || newIdx < 0 {
		return nil, "", fmt.Errorf("dictionary %s needs old and new columns; found: %s",
			path, strings.Join(t.Columns, ", "))
	}
	var dict []ColumnMapping
	for _, row := range t.Rows {
		old := cellString(row[oldIdx])
		nw := cellString(row[newIdx])
		if old == "" || nw == "" {
			continue
		}
		dict = append(dict, ColumnMapping{Old: old, New: nw})
	}
	return dict, path, nil
}

// resolve returns the user copy when it exists, otherwise the bundled copy.
// The error names both searched paths so a missing file is actionable.
func (l Locator) resolve(userName, bundledName string) (string, error) {
	userPath := filepath.Join(l.DataDir, userName)
	if fileExists(userPath) {
		return userPath, nil
	}
	bundledPath := filepath.Join(l.BundleDir, bundledName)
	if l.BundleDir != "" && fileExists(bundledPath) {
		return bundledPath, nil
	}
	return "", fmt.Errorf("lookup workbook not found; searched %s and %s", userPath, bundledPath)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// loadSheetTable opens a workbook read-only and converts one sheet into a
// Table. The first sheet is used when the named one is absent.
func loadSheetTable(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read %s sheet %s: %w", path, sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s sheet %s is empty", path, sheet)
	}
	header := rows[0]
	body := make([][]any, 0, len(rows)-1)
	for _, r := range rows[1:] {
		row := make([]any, len(r))
		for i, v := range r {
			row[i] = v
		}
		body = append(body, row)
	}
	return New(header, body)
}
