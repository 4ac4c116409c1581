package grading

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const rubricSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["category", "criteria"],
    "properties": {
      "category": {"type": "string", "minLength": 1},
      "criteria": {
        "type": "array",
        "minItems": 1,
        "items": {
          "type": "object",
          "required": ["score", "label", "description"],
          "properties": {
            "score": {"type": "integer"},
            "label": {"type": "string"},
            "description": {"type": "string"}
          }
        }
      }
    }
  }
}`

var compiledRubricSchema = jsonschema.MustCompileString("rubric.schema.json", rubricSchema)

// LoadFile reads a rubric from a JSON file. An empty path yields the built-in notebook rubric.
func LoadFile(path string) (Definition, error) {
	if strings.TrimSpace(path) == "" {
		return NotebookRubric(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("read rubric file: %w", err)
	}

	return Parse(raw)
}

// Parse validates a JSON rubric document against the rubric schema and its invariants.
func Parse(raw []byte) (Definition, error) {
	var doc interface{}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return Definition{}, fmt.Errorf("decode rubric: %w", err)
	}
	if err := compiledRubricSchema.Validate(doc); err != nil {
		return Definition{}, fmt.Errorf("invalid rubric document: %w", err)
	}

	var categories []Category
	if err := json.Unmarshal(raw, &categories); err != nil {
		return Definition{}, fmt.Errorf("decode rubric categories: %w", err)
	}

	return NewDefinition(categories)
}
