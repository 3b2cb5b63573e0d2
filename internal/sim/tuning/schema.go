package tuning

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

var (
	//go:embed schemas/settings.schema.json
	settingsSchemaJSON string
	//go:embed schemas/tuning.schema.json
	tuningSchemaJSON string

	settingsSchema = jsonschema.MustCompileString("settings.schema.json", settingsSchemaJSON)
	tuningSchema   = jsonschema.MustCompileString("tuning.schema.json", tuningSchemaJSON)
)

// validateYAML decodes raw as YAML, normalizes it to JSON values and validates it.
func validateYAML(s *jsonschema.Schema, source string, raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return NewConfigError(source, err)
	}
	if doc == nil {
		return nil
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return NewConfigError(source, fmt.Errorf("not representable as json: %w", err))
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return NewConfigError(source, err)
	}
	if err := s.Validate(v); err != nil {
		return NewConfigError(source, err)
	}
	return nil
}
