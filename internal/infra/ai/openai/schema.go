package openai

import "github.com/bryanwahyu/health-companion/internal/domain/ai"

// JSONSchema converts a schema to the JSON Schema dialect accepted by strict
// structured outputs: every object closes additionalProperties and nullable
// nodes become a ["type", "null"] union.
func JSONSchema(s *ai.Schema) map[string]any {
	out := map[string]any{}
	if s.Nullable {
		out["type"] = []string{string(s.Type), "null"}
	} else {
		out["type"] = string(s.Type)
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	switch s.Type {
	case ai.TypeObject:
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = JSONSchema(p)
		}
		out["properties"] = props
		required := s.Required
		if required == nil {
			required = []string{}
		}
		out["required"] = required
		out["additionalProperties"] = false
	case ai.TypeArray:
		if s.Items != nil {
			out["items"] = JSONSchema(s.Items)
		}
	}
	return out
}
