package google

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"goa.design/goa-ai/model"
	"goa.design/goa-ai/retry"
)

// defaultTimeout is the wall-clock deadline for one upstream streaming call,
// per §4.5 step 1.
const defaultTimeout = 180 * time.Second

// toolFragment accumulates one function-call's pieces, keyed by the order it
// first appeared in the stream. Gemini delivers each function call with its
// name and arguments already complete in one part; the table holds each
// call until end-of-stream so tool_call deltas are emitted after all
// streamed content (§4.5 step 4).
type toolFragment struct {
	id   string
	name string
	args string
}

// Stream implements dispatcher.Adapter.
func (a *Adapter) Stream(ctx context.Context, req model.Request, emit func(model.Delta) error) error {
	guard := &retry.Guard{}
	return guard.Run(ctx, emit, func(ctx context.Context, emit func(model.Delta) error) retry.AttemptResult {
		return a.attempt(ctx, req, emit)
	})
}

func (a *Adapter) attempt(ctx context.Context, req model.Request, emit func(model.Delta) error) retry.AttemptResult {
	client, err := a.client(req.Selector)
	if err != nil {
		return retry.AttemptResult{Status: retry.StatusFatal, Err: err}
	}

	system, contents, err := buildContents(ctx, req.Messages)
	if err != nil {
		return retry.AttemptResult{Status: retry.StatusFatal, Err: err}
	}
	tools, err := buildTools(ctx, req.Tools, req.Native)
	if err != nil {
		return retry.AttemptResult{Status: retry.StatusFatal, Err: err}
	}

	genConfig := &genai.GenerateContentConfig{
		ThinkingConfig: thinkingConfig(req.Selector),
	}
	if system != "" {
		genConfig.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if len(tools) > 0 {
		genConfig.Tools = tools
	}

	timeout := time.Duration(a.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	streamCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	streamIter := client.Models.GenerateContentStream(streamCtx, req.Selector.Model, contents, genConfig)
	return consumeStream(streamCtx, streamIter, timeout, emit)
}

// consumeStream drives the iterator genai.Models.GenerateContentStream
// returns. Tests build their own iter.Seq2 directly over literal
// *genai.GenerateContentResponse fixtures rather than a live API call.
func consumeStream(streamCtx context.Context, streamIter iter.Seq2[*genai.GenerateContentResponse, error], timeout time.Duration, emit func(model.Delta) error) retry.AttemptResult {
	hasContent := false
	fragments := make(map[int]*toolFragment)
	var order []int
	var grounding *model.Grounding
	var usage *model.Usage

	for resp, streamErr := range streamIter {
		if streamCtx.Err() != nil {
			return retry.AttemptResult{Status: retry.StatusRetryable, Err: fmt.Errorf("google: generation timed out after %s", timeout)}
		}
		if streamErr != nil {
			return retry.AttemptResult{Status: retry.StatusRetryable, Err: streamErr}
		}
		if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			continue
		}

		for _, part := range resp.Candidates[0].Content.Parts {
			if part == nil {
				continue
			}
			switch {
			case part.Thought && part.Text != "":
				hasContent = true
				if err := emit(model.Delta{Type: model.DeltaThinking, Thinking: part.Text}); err != nil {
					return retry.AttemptResult{Status: retry.StatusFatal, Err: err}
				}

			case part.FunctionCall != nil:
				hasContent = true
				idx := len(order)
				order = append(order, idx)
				fragments[idx] = &toolFragment{
					id:   uuidShort(),
					name: model.ToolNameFromAPI(part.FunctionCall.Name),
					args: encodeArguments(part.FunctionCall.Args),
				}

			case part.ExecutableCode != nil:
				hasContent = true
				if err := emit(model.Delta{Type: model.DeltaCodeExecution, Code: &model.CodeExecution{Code: part.ExecutableCode.Code}}); err != nil {
					return retry.AttemptResult{Status: retry.StatusFatal, Err: err}
				}

			case part.CodeExecutionResult != nil:
				hasContent = true
				if err := emit(model.Delta{Type: model.DeltaCodeExecution, Code: &model.CodeExecution{Result: part.CodeExecutionResult.Output}}); err != nil {
					return retry.AttemptResult{Status: retry.StatusFatal, Err: err}
				}

			case part.Text != "":
				hasContent = true
				if err := emit(model.Delta{Type: model.DeltaText, Text: part.Text}); err != nil {
					return retry.AttemptResult{Status: retry.StatusFatal, Err: err}
				}
			}
		}

		if gm := resp.Candidates[0].GroundingMetadata; gm != nil {
			grounding = convertGrounding(gm)
		}

		if um := resp.UsageMetadata; um != nil {
			usage = &model.Usage{
				InputTokens:     int(um.PromptTokenCount),
				OutputTokens:    int(um.CandidatesTokenCount),
				TotalTokens:     int(um.TotalTokenCount),
				ReasoningTokens: int(um.ThoughtsTokenCount),
			}
		}
	}

	for _, idx := range order {
		f := fragments[idx]
		if err := emit(model.Delta{Type: model.DeltaToolCall, ToolCall: &model.ToolCall{ID: f.id, Name: f.name, Arguments: f.args}}); err != nil {
			return retry.AttemptResult{Status: retry.StatusFatal, Err: err}
		}
	}
	if !hasContent {
		// Buffered grounding/usage alone do not count as content (§4.5 step
		// 5); they must not be emitted here, or the retry guard would see
		// output already sent and refuse to retry an otherwise-empty stream.
		return retry.AttemptResult{Status: retry.StatusRetryable, Err: fmt.Errorf("google: empty response from LLM (no content generated)")}
	}

	if grounding != nil {
		if err := emit(model.Delta{Type: model.DeltaGrounding, Grounding: grounding}); err != nil {
			return retry.AttemptResult{Status: retry.StatusFatal, Err: err}
		}
	}
	if usage != nil {
		if err := emit(model.Delta{Type: model.DeltaUsage, Usage: usage}); err != nil {
			return retry.AttemptResult{Status: retry.StatusFatal, Err: err}
		}
	}

	if err := emit(model.Delta{Final: true}); err != nil {
		return retry.AttemptResult{Status: retry.StatusFatal, Err: err}
	}
	return retry.AttemptResult{Status: retry.StatusFinal}
}

func convertGrounding(gm *genai.GroundingMetadata) *model.Grounding {
	g := &model.Grounding{Queries: gm.WebSearchQueries}
	if gm.SearchEntryPoint != nil {
		g.SearchEntryHTML = gm.SearchEntryPoint.RenderedContent
	}
	for _, chunk := range gm.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		g.Sources = append(g.Sources, model.Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	for _, support := range gm.GroundingSupports {
		if support == nil || support.Segment == nil {
			continue
		}
		indexes := make([]int, 0, len(support.GroundingChunkIndices))
		for _, i := range support.GroundingChunkIndices {
			indexes = append(indexes, int(i))
		}
		g.Supports = append(g.Supports, model.SupportSpan{
			StartIndex:    int(support.Segment.StartIndex),
			EndIndex:      int(support.Segment.EndIndex),
			SourceIndexes: indexes,
		})
	}
	return g
}

func uuidShort() string {
	return uuid.NewString()[:8]
}
