// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// OfferSchema describes the payload accepted for a new application.
const OfferSchema = `{
  "type": "object",
  "required": ["culture", "quantity", "price", "currency", "payment_form", "region"],
  "properties": {
    "fullname":     {"type": "string"},
    "fgh_name":     {"type": "string"},
    "edrpou":       {"type": "string", "pattern": "^[0-9]{0,10}$"},
    "group":        {"type": "string"},
    "culture":      {"type": "string", "minLength": 1},
    "quantity":     {"type": ["string", "number"], "pattern": "^[0-9]+([.,][0-9]+)?$", "minimum": 0},
    "region":       {"type": "string", "minLength": 1},
    "district":     {"type": "string"},
    "city":         {"type": "string"},
    "extra_fields": {"type": "object", "additionalProperties": {"type": ["string", "number"]}},
    "payment_form": {"type": "string", "minLength": 1},
    "currency":     {"type": "string", "enum": ["dollar", "euro", "uah"]},
    "price":        {"type": ["string", "number"], "pattern": "^[0-9]+([.,][0-9]+)?$", "minimum": 0},
    "manager_price":{"type": "string"},
    "phone":        {"type": "string"}
  }
}`

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Schema is a compiled JSON schema safe for concurrent use.
type Schema struct {
	schema *gojsonschema.Schema
}

func NewSchema(schemaJSON string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{schema: s}, nil
}

// MustSchema is NewSchema for package-level schemas.
func MustSchema(schemaJSON string) *Schema {
	s, err := NewSchema(schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks a decoded document (maps, slices, scalars).
func (s *Schema) Validate(document interface{}) (*ValidationResult, error) {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("validate document: %w", err)
	}
	return toResult(result), nil
}

// ValidateJSON checks a raw JSON document.
func (s *Schema) ValidateJSON(raw []byte) (*ValidationResult, error) {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("validate document: %w", err)
	}
	return toResult(result), nil
}

func toResult(result *gojsonschema.Result) *ValidationResult {
	out := &ValidationResult{Valid: result.Valid()}
	for _, e := range result.Errors() {
		field := e.Field()
		if req, ok := e.Details()["property"].(string); ok && e.Type() == "required" {
			field = req
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: e.Description(),
			Code:    strings.ToUpper(e.Type()),
		})
	}
	return out
}

var offerSchema = MustSchema(OfferSchema)

// ValidateOffer checks a decoded offer payload against OfferSchema.
func ValidateOffer(payload map[string]interface{}) *ValidationResult {
	res, err := offerSchema.Validate(payload)
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "INVALID_DOCUMENT"}}}
	}
	return res
}

func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}
