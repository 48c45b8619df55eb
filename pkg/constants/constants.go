// Package constants provides shared constants used throughout the respawn codebase.
// This includes directory layout, output file names, limits, and file permissions
// that should be consistent between the library and the CLI.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// LoadTimeout bounds loading a single source file
	LoadTimeout = 2 * time.Minute
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// MaxConcurrentLoads is the default number of sources loaded in parallel
	MaxConcurrentLoads = 5

	// MaxDuplicateRowsReported caps the row positions listed in a duplicate key error
	MaxDuplicateRowsReported = 10

	// MinCompleteness is the percentage of set cells a source needs to pass validation
	MinCompleteness = 50.0
)

// Directory defaults, relative to the working directory.
const (
	// DefaultRawDir holds raw source files before cleaning
	DefaultRawDir = "respawn_data"

	// DefaultInputDir holds cleaned source files read by the merge
	DefaultInputDir = "respawn_data_cleaned"

	// DefaultOutputDir receives merged datasets and the summary report
	DefaultOutputDir = "respawn_data_merged"

	// DefaultConfigFile is the config file name looked up in $HOME and the working directory
	DefaultConfigFile = ".respawn"
)

// Output file names written by the merge.
const (
	// MasterFileName is the master dataset CSV
	MasterFileName = "master_gaming_mental_health_dataset.csv"

	// SpecializedFileSuffix is appended to a specialized dataset name to form its CSV name
	SpecializedFileSuffix = "_analysis_dataset.csv"

	// SummaryFileName is the plain-text merge summary
	SummaryFileName = "merge_summary_report.txt"

	// SummaryMarkdownFileName is the markdown rendering of the merge summary
	SummaryMarkdownFileName = "merge_summary_report.md"

	// LineageFileName records the source row behind every merged row
	LineageFileName = "merge_lineage.yaml"

	// DefaultSQLiteFile is the database written when SQLite export is enabled without a path
	DefaultSQLiteFile = "respawn_metrics.db"
)

// Dataset names.
const (
	// MasterDataset is the name of the cross-source master table
	MasterDataset = "master"

	// UnknownGameTitle replaces blank game titles during cleaning
	UnknownGameTitle = "Unknown Game"

	// SampleSeed seeds the deterministic sample generators
	SampleSeed = 42
)

// Format constants
const (
	// TimeFormatDate is the layout for date-only cells
	TimeFormatDate = "2006-01-02"

	// TimeFormatReport is used for timestamps in the summary report
	TimeFormatReport = "2006-01-02 15:04:05 MST"
)
