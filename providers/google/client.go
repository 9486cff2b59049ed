// Package google implements the google-native backend adapter over the
// google.golang.org/genai SDK, talking directly to the Gemini API (not
// Vertex AI).
package google

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"

	"goa.design/goa-ai/model"
	"goa.design/goa-ai/providers/clientcache"
	"goa.design/goa-ai/reasoning"
)

// Adapter streams Generate requests through the Gemini API.
type Adapter struct {
	cache *clientcache.Cache

	// TimeoutSeconds bounds one upstream streaming call. Zero uses the
	// package default of 180 seconds per §4.5 step 1.
	TimeoutSeconds int
}

// New returns an Adapter backed by its own client cache.
func New() *Adapter {
	return &Adapter{cache: clientcache.New()}
}

func (a *Adapter) client(sel model.ProviderSelector) (*genai.Client, error) {
	key := clientcache.Key{Provider: "google", Model: sel.Model, CredentialEnv: sel.CredentialEnv}
	v, err := a.cache.GetOrCreate(key, func() (any, error) {
		apiKey := os.Getenv(sel.CredentialEnv)
		if apiKey == "" {
			return nil, model.NewProviderError("google", "client", model.ProviderErrorKindAuth,
				fmt.Sprintf("environment variable %q is not set", sel.CredentialEnv), "", false, nil)
		}
		return genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	if err != nil {
		return nil, err
	}
	return v.(*genai.Client), nil
}

func thinkingConfig(sel model.ProviderSelector) *genai.ThinkingConfig {
	cfg := reasoning.Resolve("google", sel.Model)
	switch cfg.Mode {
	case reasoning.ModeBudget:
		budget := int32(cfg.ThinkingBudget)
		return &genai.ThinkingConfig{ThinkingBudget: &budget, IncludeThoughts: cfg.IncludeThoughts}
	case reasoning.ModeLevel:
		return &genai.ThinkingConfig{ThinkingLevel: genai.ThinkingLevelHigh, IncludeThoughts: cfg.IncludeThoughts}
	default:
		return nil
	}
}

// buildContents converts the uniform message list into genai Contents, per
// _convert_messages in the native Python provider: system messages are
// pulled out as the system instruction, assistant tool calls become
// FunctionCall parts, and tool messages become FunctionResponse parts
// attributed to the user role.
func buildContents(ctx context.Context, messages []model.Message) (systemInstruction string, contents []*genai.Content, err error) {
	if err := model.ValidateMessages("google", messages); err != nil {
		return "", nil, err
	}
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			systemInstruction = msg.Text

		case model.RoleUser:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: msg.Text}},
			})

		case model.RoleAssistant:
			var parts []*genai.Part
			if msg.Text != "" {
				parts = append(parts, &genai.Part{Text: msg.Text})
			}
			for _, tc := range msg.ToolCalls {
				apiName, encErr := model.ToolNameToAPI(tc.Name)
				if encErr != nil {
					return "", nil, encErr
				}
				args, decErr := decodeArguments(ctx, tc.Arguments)
				if decErr != nil {
					return "", nil, decErr
				}
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{Name: apiName, Args: args},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})
			}

		case model.RoleTool:
			apiName, encErr := model.ToolNameToAPI(msg.ToolName)
			if encErr != nil {
				return "", nil, encErr
			}
			response := decodeToolResult(msg.Content)
			contents = append(contents, &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{Name: apiName, Response: response},
				}},
			})
		}
	}
	return systemInstruction, contents, nil
}

// buildTools converts caller tool definitions and native-tool flags into
// genai Tools. Per §4.2, caller tools and native tools are mutually
// exclusive: native flags are only honored when no caller tools are given.
func buildTools(ctx context.Context, defs []model.ToolDefinition, native model.NativeTools) ([]*genai.Tool, error) {
	if len(defs) > 0 {
		declarations := make([]*genai.FunctionDeclaration, 0, len(defs))
		for _, def := range defs {
			apiName, err := model.ToolNameToAPI(def.Name)
			if err != nil {
				return nil, err
			}
			schema, err := decodeArguments(ctx, def.ParametersSchema)
			if err != nil {
				return nil, err
			}
			declarations = append(declarations, &genai.FunctionDeclaration{
				Name:                 apiName,
				Description:          def.Description,
				ParametersJsonSchema: schema,
			})
		}
		return []*genai.Tool{{FunctionDeclarations: declarations}}, nil
	}

	var tools []*genai.Tool
	if native.GoogleSearch {
		tools = append(tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
	}
	if native.CodeExecution {
		tools = append(tools, &genai.Tool{CodeExecution: &genai.ToolCodeExecution{}})
	}
	if native.URLContext {
		tools = append(tools, &genai.Tool{URLContext: &genai.URLContext{}})
	}
	return tools, nil
}
