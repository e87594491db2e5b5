package datamodel

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const taskSchemaID = "https://github.com/gavinlouuu-kpt/label-studio-processor/blob/main/config/schema/task.json"

const taskSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["id", "annotations"],
  "properties": {
    "id": { "type": "integer" },
    "annotations": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "was_cancelled": { "type": "boolean" },
          "result": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["type", "value"],
              "properties": {
                "type": { "type": "string" },
                "value": { "type": "object" },
                "original_width": { "type": "integer", "minimum": 0 },
                "original_height": { "type": "integer", "minimum": 0 }
              }
            }
          }
        }
      }
    },
    "data": { "type": "object" }
  }
}`

// TaskJSONSchema validates raw task documents before they enter the pipeline.
var TaskJSONSchema = jsonschema.MustCompileString(taskSchemaID, taskSchema)

// ValidateTaskJSON checks a raw task document against the task schema.
func ValidateTaskJSON(doc []byte) error {
	var v interface{}
	if err := json.Unmarshal(doc, &v); err != nil {
		return err
	}
	return TaskJSONSchema.Validate(v)
}
