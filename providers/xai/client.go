// Package xai streams Generate requests through xAI's Grok models over their
// OpenAI-compatible chat completions endpoint (a distinct base URL, same
// wire format as OpenAI's older Chat Completions API).
package xai

import (
	"encoding/json"
	"errors"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"goa.design/goa-ai/model"
	"goa.design/goa-ai/providers/clientcache"
	"goa.design/goa-ai/reasoning"
)

const defaultBaseURL = "https://api.x.ai/v1"

// Adapter streams Generate requests through xAI's chat completions endpoint.
type Adapter struct {
	cache   *clientcache.Cache
	BaseURL string
}

// New returns an Adapter backed by its own client cache.
func New() *Adapter {
	return &Adapter{cache: clientcache.New()}
}

func (a *Adapter) baseURL() string {
	if a.BaseURL != "" {
		return a.BaseURL
	}
	return defaultBaseURL
}

func (a *Adapter) client(sel model.ProviderSelector) (*openai.Client, error) {
	key := clientcache.Key{Provider: "xai", Model: sel.Model, CredentialEnv: sel.CredentialEnv}
	v, err := a.cache.GetOrCreate(key, func() (any, error) {
		apiKey := os.Getenv(sel.CredentialEnv)
		if apiKey == "" {
			return nil, model.NewProviderError("xai", "client", model.ProviderErrorKindAuth,
				"environment variable \""+sel.CredentialEnv+"\" is not set", "", false, nil)
		}
		cfg := openai.DefaultConfig(apiKey)
		cfg.BaseURL = a.baseURL()
		client := openai.NewClientWithConfig(cfg)
		return client, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*openai.Client), nil
}

// buildRequest translates a uniform request into a streaming chat completion
// request. Per §4.3, "non-reasoning", "code", and "imagine" model variants
// never set a reasoning effort; every other Grok model requests effort=high.
func buildRequest(req model.Request) (openai.ChatCompletionRequest, error) {
	if len(req.Messages) == 0 {
		return openai.ChatCompletionRequest{}, errors.New("xai: messages are required")
	}

	messages, err := encodeMessages(req.Messages)
	if err != nil {
		return openai.ChatCompletionRequest{}, err
	}

	tools, err := encodeTools(req.Tools)
	if err != nil {
		return openai.ChatCompletionRequest{}, err
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    req.Selector.Model,
		Messages: messages,
		Stream:   true,
	}
	if len(tools) > 0 {
		chatReq.Tools = tools
	}

	cfg := reasoning.Resolve("xai", req.Selector.Model)
	if cfg.Mode == reasoning.ModeEffort {
		chatReq.ReasoningEffort = cfg.Effort
	}
	return chatReq, nil
}

func encodeMessages(messages []model.Message) ([]openai.ChatCompletionMessage, error) {
	if err := model.ValidateMessages("xai", messages); err != nil {
		return nil, err
	}

	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: msg.Text})

		case model.RoleUser:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: msg.Text})

		case model.RoleAssistant:
			oaiMsg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: msg.Text}
			for _, tc := range msg.ToolCalls {
				apiName, err := model.ToolNameToAPI(tc.Name)
				if err != nil {
					return nil, err
				}
				oaiMsg.ToolCalls = append(oaiMsg.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      apiName,
						Arguments: tc.Arguments,
					},
				})
			}
			out = append(out, oaiMsg)

		case model.RoleTool:
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
			})
		}
	}
	return out, nil
}

func encodeTools(defs []model.ToolDefinition) ([]openai.Tool, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	tools := make([]openai.Tool, 0, len(defs))
	for _, def := range defs {
		apiName, err := model.ToolNameToAPI(def.Name)
		if err != nil {
			return nil, err
		}
		var schema map[string]any
		if def.ParametersSchema != "" {
			if jsonErr := json.Unmarshal([]byte(def.ParametersSchema), &schema); jsonErr != nil {
				schema = map[string]any{"type": "object", "properties": map[string]any{}}
			}
		} else {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        apiName,
				Description: def.Description,
				Parameters:  schema,
			},
		})
	}
	return tools, nil
}
