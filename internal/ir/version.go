package ir

// Version constants for the call schema and the tool.
const (
	// IRVersion is the version of the lowered call schema (see Call.Canonical).
	IRVersion = "1"

	// ToolVersion is the mpilower version.
	ToolVersion = "0.1.0"
)
