package ir

// Version constants for the record schema and the tool.
const (
	// RecordVersion is the interaction record schema version.
	RecordVersion = "1"

	// ToolVersion is the comptonseq version.
	ToolVersion = "0.1.0"
)
