package model

import (
	"fmt"
	"strings"
)

// ToolNameToAPI converts a canonical tool identifier ("server.tool") to the
// double-underscore form LLM APIs see ("server__tool").
//
// Every provider adapter uses this same encoding. The mapping is bijective:
// ToolNameFromAPI inverts it exactly. That only holds because no dot-segment
// may itself contain "__" — such a segment would collide with the separator
// and make the round trip lossy, so it is rejected here rather than silently
// mangled, with a *ProviderError of Kind ProviderErrorKindInvalidRequest.
func ToolNameToAPI(name string) (string, error) {
	for _, segment := range strings.Split(name, ".") {
		if strings.Contains(segment, "__") {
			return "", NewProviderError("gateway", "encode_tool_name", ProviderErrorKindInvalidRequest,
				fmt.Sprintf("tool name segment %q in %q contains \"__\", which conflicts with the dot separator encoding; rename the tool to avoid double underscores", segment, name),
				"", false, nil)
		}
	}
	return strings.ReplaceAll(name, ".", "__"), nil
}

// ToolNameFromAPI converts the API-visible "server__tool" form back to the
// canonical "server.tool" form. It is the exact inverse of ToolNameToAPI for
// any name ToolNameToAPI accepted.
func ToolNameFromAPI(name string) string {
	return strings.ReplaceAll(name, "__", ".")
}
