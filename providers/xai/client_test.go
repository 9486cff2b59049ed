package xai

import (
	"testing"

	"goa.design/goa-ai/model"
)

func TestBuildRequest_NonReasoningVariantSkipsEffort(t *testing.T) {
	req := model.Request{
		Selector: model.ProviderSelector{Model: "grok-4-fast-non-reasoning"},
		Messages: []model.Message{{Role: model.RoleUser, Text: "hi"}},
	}
	chatReq, err := buildRequest(req)
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	if chatReq.ReasoningEffort != "" {
		t.Fatalf("expected no reasoning effort, got %q", chatReq.ReasoningEffort)
	}
}

func TestBuildRequest_DefaultModelRequestsHighEffort(t *testing.T) {
	req := model.Request{
		Selector: model.ProviderSelector{Model: "grok-4"},
		Messages: []model.Message{{Role: model.RoleUser, Text: "hi"}},
	}
	chatReq, err := buildRequest(req)
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	if chatReq.ReasoningEffort != "high" {
		t.Fatalf("ReasoningEffort = %q, want \"high\"", chatReq.ReasoningEffort)
	}
}

func TestBuildRequest_RequiresMessages(t *testing.T) {
	_, err := buildRequest(model.Request{Selector: model.ProviderSelector{Model: "grok-4"}})
	if err == nil {
		t.Fatal("expected an error when messages are empty")
	}
}

func TestEncodeMessages_AssistantToolCallUsesAPIName(t *testing.T) {
	msgs, err := encodeMessages([]model.Message{
		{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{{ID: "t1", Name: "atlas.read", Arguments: `{"path":"/tmp"}`}}},
	})
	if err != nil {
		t.Fatalf("encodeMessages: %v", err)
	}
	if len(msgs) != 1 || len(msgs[0].ToolCalls) != 1 || msgs[0].ToolCalls[0].Function.Name != "atlas__read" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestEncodeTools_RejectsDoubleUnderscoreSegment(t *testing.T) {
	_, err := encodeTools([]model.ToolDefinition{{Name: "atlas.get__time", Description: "d"}})
	if err == nil {
		t.Fatal("expected an error for a segment containing \"__\"")
	}
}

func TestEncodeTools_EncodesName(t *testing.T) {
	tools, err := encodeTools([]model.ToolDefinition{{Name: "atlas.read", Description: "read a file", ParametersSchema: `{"type":"object"}`}})
	if err != nil {
		t.Fatalf("encodeTools: %v", err)
	}
	if len(tools) != 1 || tools[0].Function.Name != "atlas__read" {
		t.Fatalf("unexpected tools: %+v", tools)
	}
}

func TestEncodeMessages_RejectsDuplicateSystem(t *testing.T) {
	_, err := encodeMessages([]model.Message{
		{Role: model.RoleSystem, Text: "first"},
		{Role: model.RoleSystem, Text: "second"},
	})
	pe, ok := model.AsProviderError(err)
	if !ok || pe.Kind != model.ProviderErrorKindInvalidRequest {
		t.Fatalf("expected an invalid_request ProviderError, got %v", err)
	}
}
