// Package anthropic implements the anthropic backend adapter over
// github.com/anthropics/anthropic-sdk-go's Messages streaming API.
package anthropic

import (
	"context"
	"errors"
	"os"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"goa.design/goa-ai/model"
	"goa.design/goa-ai/providers/clientcache"
	"goa.design/goa-ai/reasoning"
)

// defaultMaxTokens is used whenever the reasoning resolver does not already
// size the response via its own max-tokens figure (§4.3: thinking enabled,
// budget=16000, max-tokens=32000).
const defaultMaxTokens = 4096

// Adapter streams Generate requests through the Anthropic Messages API.
type Adapter struct {
	cache *clientcache.Cache
}

// New returns an Adapter backed by its own client cache.
func New() *Adapter {
	return &Adapter{cache: clientcache.New()}
}

func (a *Adapter) client(sel model.ProviderSelector) (*sdk.Client, error) {
	key := clientcache.Key{Provider: "anthropic", Model: sel.Model, CredentialEnv: sel.CredentialEnv}
	v, err := a.cache.GetOrCreate(key, func() (any, error) {
		apiKey := os.Getenv(sel.CredentialEnv)
		if apiKey == "" {
			return nil, model.NewProviderError("anthropic", "client", model.ProviderErrorKindAuth,
				"environment variable \""+sel.CredentialEnv+"\" is not set", "", false, nil)
		}
		c := sdk.NewClient(option.WithAPIKey(apiKey))
		return &c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sdk.Client), nil
}

// buildParams translates a uniform request into Anthropic Messages params,
// including the tool-name codec and the reasoning-config resolver's
// thinking budget.
func buildParams(req model.Request) (sdk.MessageNewParams, error) {
	if len(req.Messages) == 0 {
		return sdk.MessageNewParams{}, errors.New("anthropic: messages are required")
	}

	msgs, system, err := encodeMessages(req.Messages)
	if err != nil {
		return sdk.MessageNewParams{}, err
	}
	if len(msgs) == 0 {
		return sdk.MessageNewParams{}, errors.New("anthropic: at least one user/assistant message is required")
	}

	tools, err := encodeTools(req.Tools)
	if err != nil {
		return sdk.MessageNewParams{}, err
	}

	cfg := reasoning.Resolve("anthropic", req.Selector.Model)
	maxTokens := defaultMaxTokens
	if cfg.Mode == reasoning.ModeBudget && cfg.MaxTokens > 0 {
		maxTokens = cfg.MaxTokens
	}

	params := sdk.MessageNewParams{
		MaxTokens: int64(maxTokens),
		Messages:  msgs,
		Model:     sdk.Model(req.Selector.Model),
	}
	if len(system) > 0 {
		params.System = system
	}
	if len(tools) > 0 {
		params.Tools = tools
	}
	if cfg.Mode == reasoning.ModeBudget {
		params.Thinking = sdk.ThinkingConfigParamOfEnabled(int64(cfg.ThinkingBudget))
	}
	return params, nil
}

func encodeMessages(messages []model.Message) ([]sdk.MessageParam, []sdk.TextBlockParam, error) {
	if err := model.ValidateMessages("anthropic", messages); err != nil {
		return nil, nil, err
	}

	var conversation []sdk.MessageParam
	var system []sdk.TextBlockParam

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			if msg.Text != "" {
				system = append(system, sdk.TextBlockParam{Text: msg.Text})
			}

		case model.RoleUser:
			if msg.Text == "" {
				continue
			}
			conversation = append(conversation, sdk.NewUserMessage(sdk.NewTextBlock(msg.Text)))

		case model.RoleAssistant:
			var blocks []sdk.ContentBlockParamUnion
			if msg.Text != "" {
				blocks = append(blocks, sdk.NewTextBlock(msg.Text))
			}
			for _, tc := range msg.ToolCalls {
				apiName, err := model.ToolNameToAPI(tc.Name)
				if err != nil {
					return nil, nil, err
				}
				blocks = append(blocks, sdk.NewToolUseBlock(tc.ID, tc.Arguments, apiName))
			}
			if len(blocks) > 0 {
				conversation = append(conversation, sdk.NewAssistantMessage(blocks...))
			}

		case model.RoleTool:
			conversation = append(conversation, sdk.NewUserMessage(
				sdk.NewToolResultBlock(msg.ToolCallID, msg.Content, false),
			))
		}
	}
	return conversation, system, nil
}

func encodeTools(defs []model.ToolDefinition) ([]sdk.ToolUnionParam, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	tools := make([]sdk.ToolUnionParam, 0, len(defs))
	for _, def := range defs {
		apiName, err := model.ToolNameToAPI(def.Name)
		if err != nil {
			return nil, err
		}
		schema := sdk.ToolInputSchemaParam{}
		if def.ParametersSchema != "" {
			var m map[string]any
			if jsonErr := decodeSchema(def.ParametersSchema, &m); jsonErr == nil {
				schema.ExtraFields = m
			}
		}
		u := sdk.ToolUnionParamOfTool(schema, apiName)
		if u.OfTool != nil {
			u.OfTool.Description = sdk.String(def.Description)
		}
		tools = append(tools, u)
	}
	return tools, nil
}
