package compiler

import (
	_ "embed"

	"cuelang.org/go/cue"
)

//go:embed schema.cue
var schemaSource string

// manifestSchema returns the #Manifest definition compiled in cctx.
// CUE values from different contexts cannot be unified, so the schema is
// compiled into the caller's context.
func manifestSchema(cctx *cue.Context) cue.Value {
	return cctx.CompileString(schemaSource, cue.Filename("schema.cue")).
		LookupPath(cue.ParsePath("#Manifest"))
}

// Schema returns the CUE source of the manifest schema.
func Schema() string {
	return schemaSource
}
