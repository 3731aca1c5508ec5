// Package log defines standard attribute keys for numeric table operations.
//
// Keys follow a hierarchical naming convention ("table.rows", "block.start")
// so that log lines from different layouts can be filtered together.

package log

// Table context.
const (
	// ComponentKey identifies the package emitting the record.
	ComponentKey = "component"

	// LayoutKey names the storage layout: "homogen", "matrix", "aos", "csr",
	// "packed", "merged", "row_merged".
	LayoutKey = "table.layout"

	// RowsKey is the logical row count of a table.
	RowsKey = "table.rows"

	// ColumnsKey is the logical column count of a table.
	ColumnsKey = "table.columns"

	// ConstituentsKey is the number of tables attached to a composite table.
	ConstituentsKey = "table.constituents"

	// ElementTypeKey is the element type of a block or a column.
	ElementTypeKey = "table.element_type"
)

// Block context.
const (
	// OperationKey names the block operation, see the Operation* values.
	OperationKey = "block.operation"

	// BlockStartKey is the first row of a block.
	BlockStartKey = "block.start"

	// BlockCountKey is the number of rows in a block.
	BlockCountKey = "block.count"

	// BlockColumnKey is the column of a column block.
	BlockColumnKey = "block.column"

	// AccessModeKey is the block access mode.
	AccessModeKey = "block.mode"
)

// Loader and algorithm context.
const (
	// SourceKey identifies a data source, typically a file path.
	SourceKey = "source.name"

	// SamplesKey indicates the number of rows processed.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of columns processed.
	FeaturesKey = "data.features"

	// BatchSizeKey indicates the size of processing batches.
	BatchSizeKey = "data.batch_size"

	// ModelNameKey identifies an estimator consuming tables.
	ModelNameKey = "model.name"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Error context.
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// SuggestionKey provides a hint for resolving the issue.
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationAcquireRows   = "acquire_rows"
	OperationReleaseRows   = "release_rows"
	OperationAcquireColumn = "acquire_column"
	OperationReleaseColumn = "release_column"
	OperationAttach        = "attach"
	OperationAppend        = "append"
	OperationLoad          = "load"
	OperationFit           = "fit"
	OperationTransform     = "transform"

	ErrorConcurrentAccess  = "CONCURRENT_ACCESS"
	ErrorOutOfRange        = "OUT_OF_RANGE"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorInvalidLayout     = "INVALID_LAYOUT"
)
