package ir

// Version constants for the export format and the tool.
const (
	// ExportVersion is the schema version of exported item records.
	ExportVersion = "1"

	// ToolVersion is the tracegraph version.
	ToolVersion = "0.1.0"
)
