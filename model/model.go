// Package model defines the provider-agnostic request/delta vocabulary
// shared by every streaming adapter, the retry guard, and the dispatcher. It
// is the uniform wire contract the gateway fronts heterogeneous LLM provider
// SDKs with.
package model

// ConversationRole identifies the speaker for a Message.
type ConversationRole string

const (
	// RoleSystem carries instructions. At most one system message is
	// permitted per request.
	RoleSystem ConversationRole = "system"

	// RoleUser carries free text from the caller.
	RoleUser ConversationRole = "user"

	// RoleAssistant carries free text and/or tool calls issued by the model.
	RoleAssistant ConversationRole = "assistant"

	// RoleTool carries the result of a prior assistant tool call.
	RoleTool ConversationRole = "tool"
)

type (
	// ToolCall is a tool invocation issued by the assistant.
	ToolCall struct {
		// ID is an opaque, provider-issued identifier for the call.
		ID string

		// Name is the canonical tool identifier ("segment(.segment)*").
		Name string

		// Arguments is the JSON argument string supplied by the model.
		Arguments string
	}

	// Message is a single conversation turn.
	//
	// Role discriminates how the other fields are interpreted: Text is
	// meaningful for system/user/assistant messages, ToolCalls only for
	// assistant messages, and ToolCallID/ToolName/Content only for tool
	// messages.
	Message struct {
		Role ConversationRole

		// Text is free text content. Used by system, user, and assistant
		// messages.
		Text string

		// ToolCalls lists tool invocations issued by an assistant message.
		ToolCalls []ToolCall

		// ToolCallID correlates a tool message to the assistant ToolCall it
		// answers.
		ToolCallID string

		// ToolName is the canonical tool name a tool message answers for.
		ToolName string

		// Content is the tool result payload for a tool message. It is a
		// JSON string when possible.
		Content string
	}

	// ToolDefinition describes one tool exposed to the model.
	ToolDefinition struct {
		// Name is the canonical identifier, "segment(.segment)*". No
		// segment may contain "__".
		Name string

		// Description is shown to the model to decide when to call the
		// tool.
		Description string

		// ParametersSchema is a JSON-schema string describing the tool's
		// input payload.
		ParametersSchema string
	}

	// NativeTools toggles provider-built-in tools. These are mutually
	// exclusive with caller-defined Tools (§4.2 Native-tool suppression).
	NativeTools struct {
		GoogleSearch  bool
		CodeExecution bool
		URLContext    bool
	}

	// ProviderSelector names the backend, the upstream provider family, the
	// concrete model, and how to resolve credentials for one request.
	ProviderSelector struct {
		// Backend selects the registered adapter (e.g. "google-native",
		// "openai", "anthropic", "xai"). Empty means "google-native".
		Backend string

		// Provider is the upstream vendor family (e.g. "google", "openai",
		// "anthropic", "xai", "vertexai").
		Provider string

		// Model is the concrete model identifier.
		Model string

		// CredentialEnv names the environment variable the adapter resolves
		// the API key (or, for cloud hosts, a credentials file path) from.
		CredentialEnv string

		// Project and Location are used by cloud-hosted providers
		// (Vertex AI) that key credentials by project/location rather than
		// a single API key.
		Project  string
		Location string
	}

	// Request bundles one generation request.
	Request struct {
		// SessionID is an opaque identifier used only for logging.
		SessionID string

		// ExecutionID is an opaque identifier used for logging and to key
		// the reasoning-signature cache.
		ExecutionID string

		Selector ProviderSelector

		Messages []Message
		Tools    []ToolDefinition
		Native   NativeTools
	}
)

// Delta is the tagged union emitted on the outbound stream. Exactly one of
// the typed fields is meaningful, selected by Type.
type Delta struct {
	Type DeltaType

	Text string // DeltaText

	Thinking string // DeltaThinking

	ToolCall *ToolCall // DeltaToolCall

	Code *CodeExecution // DeltaCodeExecution

	Grounding *Grounding // DeltaGrounding

	Usage *Usage // DeltaUsage

	Err *Error // DeltaError

	Final bool // set on the single terminal delta of every stream
}

// DeltaType discriminates Delta's variants.
type DeltaType string

const (
	DeltaText          DeltaType = "text"
	DeltaThinking      DeltaType = "thinking"
	DeltaToolCall      DeltaType = "tool_call"
	DeltaCodeExecution DeltaType = "code_execution"
	DeltaGrounding     DeltaType = "grounding"
	DeltaUsage         DeltaType = "usage"
	DeltaError         DeltaType = "error"
)

// CodeExecution carries provider-executed code and/or its result. Per the
// open question in spec.md §9, a code part yields Code with Result empty and
// a result part yields Result with Code empty; callers concatenate same-turn
// deltas.
type CodeExecution struct {
	Code   string
	Result string
}

// Source is a cited web source.
type Source struct {
	URI   string
	Title string
}

// SupportSpan attributes a segment of the generated answer to one or more
// Sources by index into Grounding.Sources.
type SupportSpan struct {
	StartIndex    int
	EndIndex      int
	SourceIndexes []int
}

// Grounding carries web-search grounding metadata. Only the last grounding
// chunk observed on a stream is kept and emitted once, per §4.5 step 3.
type Grounding struct {
	Queries         []string
	Sources         []Source
	Supports        []SupportSpan
	SearchEntryHTML string
}

// Usage reports token consumption for a request. Only the last usage chunk
// observed on a stream is kept and emitted once, per §4.5 step 3.
type Usage struct {
	InputTokens     int
	OutputTokens    int
	TotalTokens     int
	ReasoningTokens int
}

// Error is the payload of a DeltaError. It always carries Final=true on the
// enclosing Delta.
type Error struct {
	Message   string
	Code      ErrorCode
	Retryable bool
}

// ErrorCode enumerates the short error codes of §7.
type ErrorCode string

const (
	ErrCodeCredentials        ErrorCode = "credentials"
	ErrCodeInvalidRequest     ErrorCode = "invalid_request"
	ErrCodeInvalidBackend     ErrorCode = "invalid_backend"
	ErrCodeProviderError      ErrorCode = "provider_error"
	ErrCodePartialStreamError ErrorCode = "partial_stream_error"
	ErrCodeMaxRetries         ErrorCode = "max_retries"
	ErrCodeInternal           ErrorCode = "internal"
)
