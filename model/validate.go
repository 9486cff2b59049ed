package model

import "fmt"

// ValidateMessages checks the common shape every provider's message mapper
// requires before translating messages into its native form (§4.2): at most
// one system message, and only the four known roles. It returns a
// *ProviderError with Kind ProviderErrorKindInvalidRequest naming the
// provider and the offending index so the §7 invalid_request code and
// message both carry enough detail to debug a malformed request.
//
// Every provider adapter calls this first, before any provider-specific
// translation, so the invalid_request/duplicate-system/unknown-role checks
// are enforced identically regardless of backend.
func ValidateMessages(provider string, messages []Message) error {
	seenSystem := false
	for i, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			if seenSystem {
				return NewProviderError(provider, "validate", ProviderErrorKindInvalidRequest,
					fmt.Sprintf("duplicate system message at index %d; at most one system message is allowed per request", i),
					"", false, nil)
			}
			seenSystem = true
		case RoleUser, RoleAssistant, RoleTool:
			// known roles, nothing to validate here.
		default:
			return NewProviderError(provider, "validate", ProviderErrorKindInvalidRequest,
				fmt.Sprintf("unknown message role %q at index %d", msg.Role, i),
				"", false, nil)
		}
	}
	return nil
}
