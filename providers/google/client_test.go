package google

import (
	"context"
	"testing"

	"google.golang.org/genai"

	"goa.design/goa-ai/model"
)

func TestBuildContents_SystemExtracted(t *testing.T) {
	system, contents, err := buildContents(context.Background(), []model.Message{
		{Role: model.RoleSystem, Text: "be terse"},
		{Role: model.RoleUser, Text: "hi"},
	})
	if err != nil {
		t.Fatalf("buildContents: %v", err)
	}
	if system != "be terse" {
		t.Fatalf("system = %q, want %q", system, "be terse")
	}
	if len(contents) != 1 || contents[0].Role != genai.RoleUser || contents[0].Parts[0].Text != "hi" {
		t.Fatalf("unexpected contents: %+v", contents)
	}
}

func TestBuildContents_AssistantToolCall(t *testing.T) {
	_, contents, err := buildContents(context.Background(), []model.Message{
		{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{{ID: "c1", Name: "atlas.read", Arguments: `{"path":"/tmp"}`}}},
	})
	if err != nil {
		t.Fatalf("buildContents: %v", err)
	}
	if len(contents) != 1 || len(contents[0].Parts) != 1 {
		t.Fatalf("unexpected contents: %+v", contents)
	}
	fc := contents[0].Parts[0].FunctionCall
	if fc == nil || fc.Name != "atlas__read" || fc.Args["path"] != "/tmp" {
		t.Fatalf("unexpected function call: %+v", fc)
	}
}

func TestBuildContents_AssistantToolCall_MalformedArgumentsFallBackToEmptyObject(t *testing.T) {
	_, contents, err := buildContents(context.Background(), []model.Message{
		{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{{ID: "c1", Name: "atlas.read", Arguments: `not json`}}},
	})
	if err != nil {
		t.Fatalf("buildContents: %v", err)
	}
	fc := contents[0].Parts[0].FunctionCall
	if fc == nil || len(fc.Args) != 0 {
		t.Fatalf("expected an empty args map on parse failure, got %+v", fc)
	}
}

func TestBuildContents_ToolResult(t *testing.T) {
	_, contents, err := buildContents(context.Background(), []model.Message{
		{Role: model.RoleTool, ToolName: "atlas.read", Content: `{"ok":true}`},
	})
	if err != nil {
		t.Fatalf("buildContents: %v", err)
	}
	fr := contents[0].Parts[0].FunctionResponse
	if fr == nil || fr.Name != "atlas__read" || fr.Response["ok"] != true {
		t.Fatalf("unexpected function response: %+v", fr)
	}
}

func TestBuildContents_ToolResult_MalformedContentWrappedAsText(t *testing.T) {
	_, contents, err := buildContents(context.Background(), []model.Message{
		{Role: model.RoleTool, ToolName: "atlas.read", Content: "plain text result, not json"},
	})
	if err != nil {
		t.Fatalf("buildContents: %v", err)
	}
	fr := contents[0].Parts[0].FunctionResponse
	if fr == nil || fr.Response["text"] != "plain text result, not json" {
		t.Fatalf("expected the content wrapped as {\"text\": ...} on parse failure, got %+v", fr)
	}
}

func TestBuildContents_RejectsDoubleUnderscoreSegment(t *testing.T) {
	_, _, err := buildContents(context.Background(), []model.Message{
		{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{{Name: "atlas.get__time", Arguments: "{}"}}},
	})
	if err == nil {
		t.Fatal("expected an error for a segment containing \"__\"")
	}
}

func TestBuildTools_NativeSuppressedByCallerTools(t *testing.T) {
	tools, err := buildTools(
		context.Background(),
		[]model.ToolDefinition{{Name: "atlas.read", ParametersSchema: `{"type":"object"}`}},
		model.NativeTools{GoogleSearch: true},
	)
	if err != nil {
		t.Fatalf("buildTools: %v", err)
	}
	if len(tools) != 1 || tools[0].FunctionDeclarations == nil || tools[0].GoogleSearch != nil {
		t.Fatalf("expected only the caller's function declarations, got %+v", tools)
	}
}

func TestBuildTools_NativeWhenNoCallerTools(t *testing.T) {
	tools, err := buildTools(context.Background(), nil, model.NativeTools{CodeExecution: true, URLContext: true})
	if err != nil {
		t.Fatalf("buildTools: %v", err)
	}
	if len(tools) != 2 {
		t.Fatalf("expected 2 native tools, got %+v", tools)
	}
}

func TestThinkingConfig_Gemini25Pro(t *testing.T) {
	cfg := thinkingConfig(model.ProviderSelector{Model: "gemini-2.5-pro"})
	if cfg == nil || cfg.ThinkingBudget == nil || *cfg.ThinkingBudget != 32768 || !cfg.IncludeThoughts {
		t.Fatalf("unexpected thinking config: %+v", cfg)
	}
}

func TestThinkingConfig_OtherGemini(t *testing.T) {
	cfg := thinkingConfig(model.ProviderSelector{Model: "gemini-1.5-pro"})
	if cfg == nil || cfg.ThinkingLevel != genai.ThinkingLevelHigh {
		t.Fatalf("unexpected thinking config: %+v", cfg)
	}
}

func TestDecodeEncodeArguments_RoundTrip(t *testing.T) {
	args, err := decodeArguments(context.Background(), `{"a":1}`)
	if err != nil {
		t.Fatalf("decodeArguments: %v", err)
	}
	if encodeArguments(args) != `{"a":1}` {
		t.Fatalf("round trip mismatch: %q", encodeArguments(args))
	}
}

func TestDecodeArguments_Empty(t *testing.T) {
	args, err := decodeArguments(context.Background(), "")
	if err != nil {
		t.Fatalf("decodeArguments: %v", err)
	}
	if len(args) != 0 {
		t.Fatalf("expected empty map, got %+v", args)
	}
	if encodeArguments(args) != "{}" {
		t.Fatalf("encodeArguments(empty) = %q, want {}", encodeArguments(args))
	}
}

func TestDecodeArguments_MalformedFallsBackToEmptyObject(t *testing.T) {
	args, err := decodeArguments(context.Background(), "not json")
	if err != nil {
		t.Fatalf("decodeArguments: %v", err)
	}
	if len(args) != 0 {
		t.Fatalf("expected empty map on parse failure, got %+v", args)
	}
}

func TestDecodeToolResult_MalformedWrapsAsText(t *testing.T) {
	result := decodeToolResult("plain text, not json")
	if result["text"] != "plain text, not json" {
		t.Fatalf("expected {\"text\": ...} wrapping, got %+v", result)
	}
}

func TestDecodeToolResult_Empty(t *testing.T) {
	result := decodeToolResult("")
	if len(result) != 0 {
		t.Fatalf("expected empty map, got %+v", result)
	}
}

func TestBuildContents_RejectsDuplicateSystem(t *testing.T) {
	_, _, err := buildContents(context.Background(), []model.Message{
		{Role: model.RoleSystem, Text: "first"},
		{Role: model.RoleSystem, Text: "second"},
	})
	pe, ok := model.AsProviderError(err)
	if !ok || pe.Kind != model.ProviderErrorKindInvalidRequest {
		t.Fatalf("expected an invalid_request ProviderError, got %v", err)
	}
}
