package gemini

import (
	"google.golang.org/genai"

	"github.com/bryanwahyu/health-companion/internal/domain/ai"
)

var types = map[ai.Type]genai.Type{
	ai.TypeObject:  genai.TypeObject,
	ai.TypeArray:   genai.TypeArray,
	ai.TypeString:  genai.TypeString,
	ai.TypeNumber:  genai.TypeNumber,
	ai.TypeInteger: genai.TypeInteger,
	ai.TypeBoolean: genai.TypeBoolean,
}

// Schema converts to the OpenAPI subset Gemini accepts as ResponseSchema.
// Property order follows the sorted property names so output is stable.
func Schema(s *ai.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        types[s.Type],
		Description: s.Description,
		Enum:        s.Enum,
		Items:       Schema(s.Items),
	}
	if s.Nullable {
		nullable := true
		out.Nullable = &nullable
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for _, name := range s.PropertyNames() {
			out.Properties[name] = Schema(s.Properties[name])
		}
		out.PropertyOrdering = s.PropertyNames()
		out.Required = append([]string(nil), s.Required...)
	}
	return out
}
