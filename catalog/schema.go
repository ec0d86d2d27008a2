package catalog

import "github.com/mwidla/teleop"

// FunctionDecl converts a ToolSchema to the canonical function-call wire
// shape: {"type":"function","function":{name,description,parameters}}.
func FunctionDecl(s teleop.ToolSchema) map[string]any {
	properties := make(map[string]any, len(s.Parameters))
	for _, p := range s.Parameters {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		properties[p.Name] = prop
	}
	required := s.Required
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        s.Name,
			"description": s.Description,
			"parameters": map[string]any{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		},
	}
}

// Normalize repairs a loosely-shaped schema into the canonical wire shape.
// Schemas registered without the {"type":"function","function":{...}}
// nesting are synthesized from best-effort top-level fields; missing pieces
// degrade to safe defaults (empty parameter map, empty required list)
// rather than erroring.
func Normalize(raw map[string]any) map[string]any {
	fn, ok := raw["function"].(map[string]any)
	if !ok {
		// Loose shape: treat the top level as the function body.
		fn = raw
	}

	name, _ := fn["name"].(string)
	description, _ := fn["description"].(string)

	params, ok := fn["parameters"].(map[string]any)
	if !ok {
		params = map[string]any{}
	}
	if _, ok := params["type"].(string); !ok {
		params["type"] = "object"
	}
	if _, ok := params["properties"].(map[string]any); !ok {
		params["properties"] = map[string]any{}
	}
	if _, ok := params["required"].([]any); !ok {
		if _, ok := params["required"].([]string); !ok {
			params["required"] = []string{}
		}
	}

	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        name,
			"description": description,
			"parameters":  params,
		},
	}
}
