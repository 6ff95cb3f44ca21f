package llm

import (
	"fmt"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"github.com/xeipuuv/gojsonschema"
	"google.golang.org/genai"
)

// Schema is a provider neutral subset of JSON schema. Each backend converts
// it to its own representation.
type Schema struct {
	Type        string // object|array|string|integer|number|boolean
	Description string
	Properties  map[string]*Schema
	Required    []string
	Items       *Schema
	MinItems    *int64
	MaxItems    *int64
	Minimum     *float64
	Maximum     *float64
}

func Int(v int64) *int64       { return &v }
func Float(v float64) *float64 { return &v }

// JSONSchema renders s as a JSON schema document. The root object forbids
// unknown properties.
func (s *Schema) JSONSchema() map[string]any {
	return s.jsonSchema(true)
}

func (s *Schema) jsonSchema(root bool) map[string]any {
	out := map[string]any{"type": s.Type}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for k, p := range s.Properties {
			props[k] = p.jsonSchema(false)
		}
		out["properties"] = props
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	if root && s.Type == "object" {
		out["additionalProperties"] = false
	}
	if s.Items != nil {
		out["items"] = s.Items.jsonSchema(false)
	}
	if s.MinItems != nil {
		out["minItems"] = *s.MinItems
	}
	if s.MaxItems != nil {
		out["maxItems"] = *s.MaxItems
	}
	if s.Minimum != nil {
		out["minimum"] = *s.Minimum
	}
	if s.Maximum != nil {
		out["maximum"] = *s.Maximum
	}
	return out
}

// Validate checks raw against s.
func Validate(s *Schema, raw []byte) error {
	res, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(s.JSONSchema()),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("llm: validate result: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("llm: result does not match schema: %s", strings.Join(msgs, "; "))
}

func (s *Schema) vertex() *vertexgenai.Schema {
	if s == nil {
		return nil
	}
	out := &vertexgenai.Schema{
		Description: s.Description,
		Required:    s.Required,
		Items:       s.Items.vertex(),
	}
	switch s.Type {
	case "object":
		out.Type = vertexgenai.TypeObject
	case "array":
		out.Type = vertexgenai.TypeArray
	case "integer":
		out.Type = vertexgenai.TypeInteger
	case "number":
		out.Type = vertexgenai.TypeNumber
	case "boolean":
		out.Type = vertexgenai.TypeBoolean
	default:
		out.Type = vertexgenai.TypeString
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*vertexgenai.Schema, len(s.Properties))
		for k, p := range s.Properties {
			out.Properties[k] = p.vertex()
		}
	}
	if s.MinItems != nil {
		out.MinItems = *s.MinItems
	}
	if s.MaxItems != nil {
		out.MaxItems = *s.MaxItems
	}
	if s.Minimum != nil {
		out.Minimum = *s.Minimum
	}
	if s.Maximum != nil {
		out.Maximum = *s.Maximum
	}
	return out
}

func (s *Schema) genai() *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
		Items:       s.Items.genai(),
		MinItems:    s.MinItems,
		MaxItems:    s.MaxItems,
		Minimum:     s.Minimum,
		Maximum:     s.Maximum,
	}
	switch s.Type {
	case "object":
		out.Type = genai.TypeObject
	case "array":
		out.Type = genai.TypeArray
	case "integer":
		out.Type = genai.TypeInteger
	case "number":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	default:
		out.Type = genai.TypeString
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, p := range s.Properties {
			out.Properties[k] = p.genai()
		}
	}
	return out
}
