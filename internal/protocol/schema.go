package protocol

import (
	_ "embed"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/trace.schema.json
var traceSchemaJSON string

var traceSchema = jsonschema.MustCompileString("trace.schema.json", traceSchemaJSON)

// ValidateTrace checks an encoded trace event against the published schema.
func ValidateTrace(raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return traceSchema.Validate(v)
}
