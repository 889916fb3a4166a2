package config

import "time"

// Default runtime limits and guardrails for the FastBI Excel server.
// Conservative values, overridable via FASTBI_* environment variables or
// flags where a component documents one.

const (
	// Concurrency
	DefaultMaxConcurrentRequests = 10
	DefaultMaxOpenWorkbooks      = 4

	// Payload and row limits
	DefaultMaxCellsPerOp   = 10_000
	DefaultPreviewRowLimit = 10
)

const (
	// Timeouts
	DefaultOperationTimeout      = 30 * time.Second
	DefaultAcquireRequestTimeout = 2 * time.Second

	// Workbook handle lifecycle
	DefaultWorkbookIdleTTL       = 10 * time.Minute
	DefaultWorkbookCleanupPeriod = time.Minute
)

// Lookup workbooks consumed by the reshape tools. The user file is looked up
// in the data directory first; the embedded file ships next to the binary and
// acts as the fallback.
const (
	EmployeeWorkbook         = "emp.xlsx"
	EmployeeEmbeddedWorkbook = "emp_embed.xlsx"
	EmployeeSheet            = "emp"

	DictWorkbook         = "dict.xlsx"
	DictEmbeddedWorkbook = "dict_embed.xlsx"
	DictSheet            = "dict"
)

// Result sheets written by the reshape tools. An existing sheet with the
// same name is replaced.
const (
	EnrichResultSheet = "info"
	SelectResultSheet = "slc"
	SumResultSheet    = "sum"
)

// Environment variables read at startup.
const (
	// EnvDataDir names the directory searched for user-supplied lookup
	// workbooks; when unset the current working directory is used.
	EnvDataDir = "FASTBI_DATA_DIR"

	// EnvAllowedDirs lists directories workbooks may be opened from,
	// separated by os.PathListSeparator. Empty means deny-by-default.
	EnvAllowedDirs = "FASTBI_ALLOWED_DIRS"

	// EnvEnableWrites gates registration of tools that modify workbooks.
	EnvEnableWrites = "FASTBI_ENABLE_WRITES"
)
