package llm

import "maps"

// Normalized Response.StopReason values.
const (
	stopEnd       = "end"
	stopMaxTokens = "max_tokens"
	stopRefused   = "refused"
)

// finishResponse applies the checks shared by every SDK-backed provider.
// Truncated structured output can never validate, so it is reported as
// such rather than as a schema failure.
func finishResponse(req Request, resp *Response) (*Response, error) {
	if resp.StopReason == stopRefused {
		return nil, &ErrContentRefused{Reason: "safety filter"}
	}
	if req.Schema == nil {
		return resp, nil
	}
	if resp.StopReason == stopMaxTokens {
		return nil, &ErrMaxTokensExceeded{Content: resp.Content}
	}
	if err := ValidateContent(req.Schema, resp.Content); err != nil {
		return nil, err
	}
	return resp, nil
}

// resolveModel maps a friendly model name to a provider model ID.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	// Unknown names pass through as direct model IDs.
	return name
}

// unportableKeywords are the constraint keywords that OpenAI strict mode and
// Anthropic structured output refuse. ValidateContent still enforces them
// on the way back.
var unportableKeywords = []string{
	"minimum", "maximum", "exclusiveMinimum", "exclusiveMaximum", "multipleOf",
	"minLength", "maxLength", "pattern", "minItems", "maxItems",
}

// portableSchema returns a copy of def without unportableKeywords, recursing
// into properties and items.
func portableSchema(def map[string]any) map[string]any {
	out := maps.Clone(def)
	for _, k := range unportableKeywords {
		delete(out, k)
	}
	if props, ok := def["properties"].(map[string]any); ok {
		cp := make(map[string]any, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]any); ok {
				cp[name] = portableSchema(pm)
			} else {
				cp[name] = p
			}
		}
		out["properties"] = cp
	}
	if items, ok := def["items"].(map[string]any); ok {
		out["items"] = portableSchema(items)
	}
	return out
}
