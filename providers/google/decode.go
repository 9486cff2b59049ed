package google

import (
	"context"
	"encoding/json"

	"goa.design/clue/log"
)

// decodeArguments parses a JSON object string into a map, treating an empty
// string as an empty object. Gemini's FunctionCall.Args and
// FunctionResponse.Response are both map[string]any rather than raw JSON.
//
// Per §4.2, a tool-call-argument parse failure falls back to an empty
// object and logs a warning rather than failing the request.
func decodeArguments(ctx context.Context, raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		log.Warn(ctx, log.KV{K: "event", V: "google.tool_arguments_parse_failed"}, log.KV{K: "error", V: err.Error()})
		return map[string]any{}, nil
	}
	return m, nil
}

// decodeToolResult parses a tool message's content into the map Gemini's
// FunctionResponse.Response expects. Per §4.2, a parse failure wraps the
// original string as {"text": content} rather than discarding it.
func decodeToolResult(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return map[string]any{"text": raw}
	}
	return m
}

func encodeArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}
