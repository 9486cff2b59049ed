// Package openai implements the openai backend adapter over
// github.com/openai/openai-go's Responses API, the surface that exposes
// streamed reasoning summaries for reasoning-capable models.
package openai

import (
	"context"
	"errors"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"goa.design/goa-ai/model"
	"goa.design/goa-ai/providers/clientcache"
	"goa.design/goa-ai/reasoning"
)

// Adapter streams Generate requests through the OpenAI Responses API.
type Adapter struct {
	cache *clientcache.Cache
}

// New returns an Adapter backed by its own client cache.
func New() *Adapter {
	return &Adapter{cache: clientcache.New()}
}

func (a *Adapter) client(sel model.ProviderSelector) (*openai.Client, error) {
	key := clientcache.Key{Provider: "openai", Model: sel.Model, CredentialEnv: sel.CredentialEnv}
	v, err := a.cache.GetOrCreate(key, func() (any, error) {
		apiKey := os.Getenv(sel.CredentialEnv)
		if apiKey == "" {
			return nil, model.NewProviderError("openai", "client", model.ProviderErrorKindAuth,
				"environment variable \""+sel.CredentialEnv+"\" is not set", "", false, nil)
		}
		c := openai.NewClient(option.WithAPIKey(apiKey))
		return &c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*openai.Client), nil
}

// buildParams translates a uniform request into Responses API params. Per
// §4.3, gpt-5 "chat"/"main" variants disable reasoning entirely; every other
// OpenAI model requests effort=high with an auto summary.
func buildParams(req model.Request) (responses.ResponseNewParams, error) {
	if len(req.Messages) == 0 {
		return responses.ResponseNewParams{}, errors.New("openai: messages are required")
	}

	input, instructions, err := encodeInput(req.Messages)
	if err != nil {
		return responses.ResponseNewParams{}, err
	}

	tools, err := encodeTools(req.Tools)
	if err != nil {
		return responses.ResponseNewParams{}, err
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(req.Selector.Model),
		Input: responses.ResponseNewParamsInputUnion{OfInputItemList: input},
	}
	if instructions != "" {
		params.Instructions = openai.String(instructions)
	}
	if len(tools) > 0 {
		params.Tools = tools
	}

	cfg := reasoning.Resolve("openai", req.Selector.Model)
	if cfg.Mode == reasoning.ModeEffort {
		params.Reasoning = shared.ReasoningParam{
			Effort:  shared.ReasoningEffort(cfg.Effort),
			Summary: shared.ReasoningSummary(cfg.Summary),
		}
	}
	return params, nil
}

func encodeInput(messages []model.Message) (responses.ResponseInputParam, string, error) {
	if err := model.ValidateMessages("openai", messages); err != nil {
		return nil, "", err
	}

	var instructions string
	var input responses.ResponseInputParam

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			instructions = msg.Text

		case model.RoleUser:
			if msg.Text == "" {
				continue
			}
			input = append(input, responses.ResponseInputItemParamOfMessage(msg.Text, responses.EasyInputMessageRoleUser))

		case model.RoleAssistant:
			if msg.Text != "" {
				input = append(input, responses.ResponseInputItemParamOfMessage(msg.Text, responses.EasyInputMessageRoleAssistant))
			}
			for _, tc := range msg.ToolCalls {
				apiName, err := model.ToolNameToAPI(tc.Name)
				if err != nil {
					return nil, "", err
				}
				input = append(input, responses.ResponseInputItemParamOfFunctionCall(tc.Arguments, tc.ID, apiName))
			}

		case model.RoleTool:
			input = append(input, responses.ResponseInputItemParamOfFunctionCallOutput(msg.ToolCallID, msg.Content))
		}
	}
	return input, instructions, nil
}

func encodeTools(defs []model.ToolDefinition) ([]responses.ToolUnionParam, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	tools := make([]responses.ToolUnionParam, 0, len(defs))
	for _, def := range defs {
		apiName, err := model.ToolNameToAPI(def.Name)
		if err != nil {
			return nil, err
		}
		schema, decErr := decodeSchema(def.ParametersSchema)
		if decErr != nil {
			schema = map[string]any{}
		}
		tool := responses.ToolParamOfFunction(apiName, schema, false)
		if tool.OfFunction != nil {
			tool.OfFunction.Description = openai.String(def.Description)
		}
		tools = append(tools, tool)
	}
	return tools, nil
}
