// Package schema derives JSON Schemas for tool inputs from Go struct types.
package schema

import (
	"github.com/invopop/jsonschema"
)

// Generate produces a JSON Schema object (as a plain map, ready for the
// OpenAI function-parameters shape) from a Go struct type T. Struct tags
// (json, jsonschema) drive the derivation.
func Generate[T any]() map[string]any {
	var zero T
	root := resolveRef(jsonschema.Reflect(&zero))

	out := map[string]any{"type": "object"}
	if root.Properties != nil {
		out["properties"] = flattenProperties(root)
	}
	if len(root.Required) > 0 {
		out["required"] = root.Required
	}
	return out
}

// resolveRef follows the reflector's top-level $ref into $defs, where the
// struct's actual object schema lives.
func resolveRef(s *jsonschema.Schema) *jsonschema.Schema {
	if s.Ref == "" || s.Definitions == nil {
		return s
	}
	for _, def := range s.Definitions {
		if def.Type == "object" {
			return def
		}
	}
	return s
}

func flattenProperties(s *jsonschema.Schema) map[string]any {
	props := make(map[string]any, s.Properties.Len())
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		props[pair.Key] = flatten(pair.Value)
	}
	return props
}

// flatten reduces one property schema to a serializable map. The type comes
// from the schema itself, or from the non-null branch when a pointer field
// reflects as anyOf [T, null].
func flatten(s *jsonschema.Schema) map[string]any {
	m := map[string]any{}

	switch {
	case s.Properties != nil:
		m["type"] = "object"
		m["properties"] = flattenProperties(s)
		if len(s.Required) > 0 {
			m["required"] = s.Required
		}
	case s.Type != "":
		m["type"] = s.Type
	default:
		for _, branch := range s.AnyOf {
			if branch.Type != "" && branch.Type != "null" {
				m["type"] = branch.Type
				break
			}
		}
	}

	if s.Description != "" {
		m["description"] = s.Description
	}
	if s.Default != nil {
		m["default"] = s.Default
	}
	if len(s.Enum) > 0 {
		m["enum"] = s.Enum
	}
	if s.Items != nil {
		m["items"] = flatten(s.Items)
	}
	return m
}
