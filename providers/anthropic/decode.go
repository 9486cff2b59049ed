package anthropic

import "encoding/json"

func decodeSchema(raw string, out *map[string]any) error {
	return json.Unmarshal([]byte(raw), out)
}
