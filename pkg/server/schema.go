package server

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/avast/epstats/pkg/apierrors"
)

// evaluateSchema is the JSON Schema for POST /evaluate's shape: required
// fields, array/object shapes, and the check type enum. Cross-field
// invariants (date ordering, metric id uniqueness, expression parseability)
// are hand-checked afterwards in buildExperiment.
const evaluateSchema = `{
  "type": "object",
  "required": ["id", "control_variant", "unit_type", "metrics"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "control_variant": {"type": "string", "minLength": 1},
    "unit_type": {"type": "string", "minLength": 1},
    "variants": {"type": "array", "items": {"type": "string"}},
    "date_from": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
    "date_to": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
    "date_for": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
    "confidence_level": {"type": "number"},
    "metrics": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "nominator", "denominator"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "nominator": {"type": "string", "minLength": 1},
          "denominator": {"type": "string", "minLength": 1},
          "minimum_effect": {"type": "number"},
          "format": {"type": "string"},
          "value_multiplier": {"type": "number"}
        }
      }
    },
    "checks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "denominator"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "type": {"type": "string", "enum": ["SRM", "SumRatio"]},
          "nominator": {"type": "string"},
          "denominator": {"type": "string", "minLength": 1},
          "max_ratio": {"type": "number"},
          "confidence_level": {"type": "number"}
        }
      }
    },
    "filters": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["dimension", "value", "scope"],
        "properties": {
          "dimension": {"type": "string"},
          "value": {"type": "array", "items": {"type": "string"}},
          "scope": {"type": "string", "enum": ["exposure", "goal"]}
        }
      }
    },
    "query_parameters": {"type": "object"}
  }
}`

var evaluateSchemaLoader = gojsonschema.NewStringLoader(evaluateSchema)

// validateShape runs body against evaluateSchema and returns a
// *apierrors.ValidationError carrying one field error per schema violation,
// or nil when body conforms.
func validateShape(body []byte) error {
	result, err := gojsonschema.Validate(evaluateSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return apierrors.NewValidationError("malformed_json", err.Error())
	}
	if result.Valid() {
		return nil
	}
	verr := apierrors.NewValidationError("schema_violation", "request body does not match the evaluate schema")
	for _, e := range result.Errors() {
		field := e.Field()
		if field == "" || field == "(root)" {
			field = "body"
		}
		verr.AddFieldError(field, fmt.Sprintf("%s: %s", e.Type(), e.Description()))
	}
	return verr
}
