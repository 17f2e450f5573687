package ai

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
)

// Type is a schema node type, named the way provider schemas name them.
type Type string

const (
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
)

// Schema is a provider-neutral description of the JSON a task must return.
// Adapters translate it to their own structured-output format.
type Schema struct {
	Type        Type
	Description string
	Properties  map[string]*Schema
	Items       *Schema
	Required    []string
	Nullable    bool
	Enum        []string
}

// PropertyNames returns the property names in a stable order.
func (s *Schema) PropertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SchemaError reports where a decoded document departs from its schema.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema mismatch at %s: %s", e.Path, e.Reason)
}

// Validate checks a document decoded with json.Decoder.UseNumber against s.
// Unknown object keys are rejected.
func (s *Schema) Validate(doc any) error {
	return s.validate("$", doc)
}

func (s *Schema) validate(path string, v any) error {
	if v == nil {
		if s.Nullable {
			return nil
		}
		return &SchemaError{Path: path, Reason: "null is not allowed"}
	}

	switch s.Type {
	case TypeObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return &SchemaError{Path: path, Reason: "expected object"}
		}
		for _, key := range s.Required {
			if _, ok := obj[key]; !ok {
				return &SchemaError{Path: path, Reason: fmt.Sprintf("missing required field %q", key)}
			}
		}
		keys := make([]string, 0, len(obj))
		for key := range obj {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			prop, ok := s.Properties[key]
			if !ok {
				return &SchemaError{Path: path, Reason: fmt.Sprintf("unknown field %q", key)}
			}
			if err := prop.validate(path+"."+key, obj[key]); err != nil {
				return err
			}
		}
	case TypeArray:
		arr, ok := v.([]any)
		if !ok {
			return &SchemaError{Path: path, Reason: "expected array"}
		}
		if s.Items == nil {
			return nil
		}
		for i, item := range arr {
			if err := s.Items.validate(fmt.Sprintf("%s[%d]", path, i), item); err != nil {
				return err
			}
		}
	case TypeString:
		str, ok := v.(string)
		if !ok {
			return &SchemaError{Path: path, Reason: "expected string"}
		}
		if len(s.Enum) > 0 && !slices.Contains(s.Enum, str) {
			return &SchemaError{Path: path, Reason: fmt.Sprintf("%q is not one of %v", str, s.Enum)}
		}
	case TypeNumber:
		if _, ok := v.(json.Number); !ok {
			return &SchemaError{Path: path, Reason: "expected number"}
		}
	case TypeInteger:
		n, ok := v.(json.Number)
		if !ok {
			return &SchemaError{Path: path, Reason: "expected integer"}
		}
		if _, err := n.Int64(); err != nil {
			return &SchemaError{Path: path, Reason: "expected integer"}
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			return &SchemaError{Path: path, Reason: "expected boolean"}
		}
	default:
		return &SchemaError{Path: path, Reason: fmt.Sprintf("unsupported schema type %q", s.Type)}
	}
	return nil
}
