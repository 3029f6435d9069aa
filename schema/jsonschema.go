package schema

import "encoding/json"

// JSONSchema renders the node tree as a draft-7 JSON Schema document. The
// strict parser compiles this to check raw output structure before
// validators run; reask prompts embed it to restate the expected shape.
func (n *Node) JSONSchema() ([]byte, error) {
	return json.MarshalIndent(n.jsonSchema(), "", "  ")
}

func (n *Node) jsonSchema() map[string]any {
	out := map[string]any{}
	switch n.Kind {
	case KindObject:
		out["type"] = "object"
		props := map[string]any{}
		required := make([]string, 0, len(n.Fields))
		for _, f := range n.Fields {
			props[f.Name] = f.Node.jsonSchema()
			required = append(required, f.Name)
		}
		out["properties"] = props
		if len(required) > 0 {
			out["required"] = required
		}
	case KindList:
		out["type"] = "array"
		if n.Items != nil {
			out["items"] = n.Items.jsonSchema()
		}
	case KindInteger:
		out["type"] = "integer"
	case KindNumber:
		out["type"] = "number"
	case KindBool:
		out["type"] = "boolean"
	default:
		out["type"] = "string"
	}
	if n.Description != "" {
		out["description"] = n.Description
	}
	return out
}
