package matrix

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

func newReflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		Anonymous:                  true,
		DoNotReference:             true,
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
	}
}

// JSONSchema describes skills as a mapping of skill key to entry, which is
// how they are written even though SkillEntries decodes into a slice
func (SkillEntries) JSONSchema() *jsonschema.Schema {
	entry := newReflector().Reflect(&SkillEntry{})
	entry.Version = ""
	return &jsonschema.Schema{
		Type:                 "object",
		AdditionalProperties: entry,
	}
}

// Schema returns the JSON Schema of the matrix file format
func Schema() *jsonschema.Schema {
	s := newReflector().Reflect(&File{})
	s.Title = "skillstack matrix"
	s.Description = "Skill catalog consumed by skillstack"
	return s
}

// SchemaJSON returns the matrix file JSON Schema, indented
func SchemaJSON() ([]byte, error) {
	data, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal schema")
	}
	return data, nil
}

// SchemaError is a single schema violation
type SchemaError struct {
	Field       string
	Description string
}

func (e SchemaError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Description)
}

// ValidateDocument validates a raw YAML matrix document against the schema and
// returns every violation. An error is returned only when the document cannot
// be parsed at all.
func ValidateDocument(data []byte) ([]SchemaError, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse matrix document")
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}

	// Strip the draft marker; gojsonschema detects drafts up to 7 only
	schema := Schema()
	schema.Version = ""
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal schema")
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to validate matrix document")
	}

	var violations []SchemaError
	for _, e := range result.Errors() {
		violations = append(violations, SchemaError{
			Field:       e.Field(),
			Description: e.Description(),
		})
	}
	return violations, nil
}
