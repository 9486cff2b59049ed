// Package reasoning picks the model-family-specific parameters that elicit
// streamed reasoning (thinking) output from each provider. Gemini exposes a
// token budget or a coarse level, OpenAI's newer "chat"/"main" variants of
// gpt-5 refuse reasoning params entirely, Anthropic always takes a fixed
// thinking budget, and xAI keys off an effort string.
package reasoning

import "strings"

// Mode discriminates which fields of Config are meaningful.
type Mode string

const (
	// ModeNone disables reasoning/thinking for the request.
	ModeNone Mode = "none"

	// ModeBudget requests a token budget for thinking (Gemini 2.5 pro/flash,
	// Anthropic).
	ModeBudget Mode = "budget"

	// ModeLevel requests a coarse reasoning level (other Gemini models).
	ModeLevel Mode = "level"

	// ModeEffort requests an effort string (OpenAI Responses API, xAI).
	ModeEffort Mode = "effort"
)

// Level is a coarse reasoning intensity, used by Gemini models outside the
// 2.5-pro/2.5-flash family.
type Level string

// LevelHigh is the only level this resolver currently produces.
const LevelHigh Level = "HIGH"

// Config is the resolved reasoning directive for one request. Only the
// fields relevant to Mode are populated; the rest are zero.
type Config struct {
	Mode Mode

	// ThinkingBudget is a token budget, meaningful when Mode is ModeBudget.
	ThinkingBudget int

	// MaxTokens bounds the full response, set alongside Anthropic's thinking
	// budget.
	MaxTokens int

	// Level is meaningful when Mode is ModeLevel.
	Level Level

	// IncludeThoughts requests the provider stream reasoning text back as
	// distinct thinking deltas, rather than only using it internally.
	IncludeThoughts bool

	// Effort is meaningful when Mode is ModeEffort ("high" today).
	Effort string

	// ResponsesAPI selects the Responses API surface over Chat Completions,
	// meaningful only for the openai family.
	ResponsesAPI bool

	// Summary requests a reasoning summary alongside the effort level,
	// meaningful only for the openai family.
	Summary string
}

// Resolve picks the Config for one (family, model) pair. family is one of
// "google", "openai", "anthropic", "xai" (case-insensitive); model is the
// concrete model identifier. Unknown families yield ModeNone, since the
// dispatcher rejects unknown backends before this is ever reached.
func Resolve(family, model string) Config {
	lowerModel := strings.ToLower(model)
	switch strings.ToLower(family) {
	case "google", "vertexai":
		return resolveGoogle(lowerModel)
	case "openai":
		return resolveOpenAI(lowerModel)
	case "anthropic":
		return resolveAnthropic()
	case "xai":
		return resolveXAI(lowerModel)
	default:
		return Config{Mode: ModeNone}
	}
}

func resolveGoogle(model string) Config {
	switch {
	case strings.Contains(model, "gemini-2.5-pro"):
		return Config{Mode: ModeBudget, ThinkingBudget: 32768, IncludeThoughts: true}
	case strings.Contains(model, "gemini-2.5-flash"):
		return Config{Mode: ModeBudget, ThinkingBudget: 24576, IncludeThoughts: true}
	default:
		return Config{Mode: ModeLevel, Level: LevelHigh, IncludeThoughts: true}
	}
}

func resolveOpenAI(model string) Config {
	if strings.HasPrefix(model, "gpt-5") && (strings.Contains(model, "-chat") || strings.Contains(model, "-main")) {
		return Config{Mode: ModeNone}
	}
	return Config{Mode: ModeEffort, Effort: "high", ResponsesAPI: true, Summary: "auto"}
}

func resolveAnthropic() Config {
	return Config{Mode: ModeBudget, ThinkingBudget: 16000, MaxTokens: 32000}
}

func resolveXAI(model string) Config {
	if strings.Contains(model, "non-reasoning") || strings.Contains(model, "code") || strings.Contains(model, "imagine") {
		return Config{Mode: ModeNone}
	}
	return Config{Mode: ModeEffort, Effort: "high"}
}
