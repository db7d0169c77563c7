package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// fileSchema describes config.yml. Both sections are optional: credentials
// can come from the ambient environment and the project from GCP_PROJECT.
const fileSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "authentication": {
      "type": "object",
      "additionalProperties": false,
      "required": ["type", "service_account_path"],
      "properties": {
        "type": {"type": "string", "enum": ["service_account"]},
        "service_account_path": {"type": "string", "minLength": 1}
      }
    },
    "gcp": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "project_id": {"type": "string", "minLength": 1},
        "impersonate_service_account": {"type": "string", "minLength": 1}
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(fileSchema)

// validateSchema checks a generically decoded document against fileSchema.
func validateSchema(doc map[string]interface{}) error {
	// Convert data to JSON for validation
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal data for validation: %w", err)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(jsonData))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		return fmt.Errorf("schema validation failed:\n  - %s", strings.Join(errorMessages, "\n  - "))
	}

	return nil
}
