package insights

import "google.golang.org/genai"

// ResponseSchema returns the JSON schema the provider is asked to follow.
// A new value is returned on every call so invocations never share it.
func ResponseSchema() *genai.Schema {
	props := make(map[string]*genai.Schema, len(responseFields))
	required := make([]string, 0, len(responseFields))
	for _, f := range responseFields {
		props[f.name] = fieldSchema(f)
		required = append(required, f.name)
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   required,
		// Gemini orders properties alphabetically unless told otherwise.
		PropertyOrdering: append([]string(nil), required...),
	}
}

func fieldSchema(f responseField) *genai.Schema {
	switch f.kind {
	case kindStringArray:
		return &genai.Schema{
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: f.description,
		}
	case kindNumber:
		return &genai.Schema{Type: genai.TypeNumber, Description: f.description}
	default:
		return &genai.Schema{Type: genai.TypeString, Description: f.description}
	}
}
