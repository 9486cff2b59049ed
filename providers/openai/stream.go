package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/responses"

	"goa.design/goa-ai/model"
	"goa.design/goa-ai/retry"
)

const defaultTimeout = 180 * time.Second

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
	params, err := buildParams(req)
	if err != nil {
		return retry.AttemptResult{Status: retry.StatusFatal, Err: err}
	}

	streamCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stream := client.Responses.NewStreaming(streamCtx, params)
	defer stream.Close()

	return consumeStream(streamCtx, stream, emit)
}

// responseStream captures the subset of
// *ssestream.Stream[responses.ResponseStreamEventUnion] consumeStream
// drives. Tests build a fake implementation directly over a literal event
// sequence rather than a live HTTP call.
type responseStream interface {
	Next() bool
	Current() responses.ResponseStreamEventUnion
	Err() error
}

func consumeStream(streamCtx context.Context, stream responseStream, emit func(model.Delta) error) retry.AttemptResult {
	hasContent := false
	var usage *model.Usage

	for stream.Next() {
		event := stream.Current()
		switch ev := event.AsAny().(type) {
		case responses.ResponseTextDeltaEvent:
			if ev.Delta == "" {
				continue
			}
			hasContent = true
			if err := emit(model.Delta{Type: model.DeltaText, Text: ev.Delta}); err != nil {
				return retry.AttemptResult{Status: retry.StatusFatal, Err: err}
			}

		case responses.ResponseReasoningSummaryTextDeltaEvent:
			if ev.Delta == "" {
				continue
			}
			hasContent = true
			if err := emit(model.Delta{Type: model.DeltaThinking, Thinking: ev.Delta}); err != nil {
				return retry.AttemptResult{Status: retry.StatusFatal, Err: err}
			}

		case responses.ResponseOutputItemDoneEvent:
			if call, ok := ev.Item.AsAny().(responses.ResponseFunctionToolCall); ok {
				hasContent = true
				if err := emit(model.Delta{Type: model.DeltaToolCall, ToolCall: &model.ToolCall{
					ID:        call.CallID,
					Name:      model.ToolNameFromAPI(call.Name),
					Arguments: call.Arguments,
				}}); err != nil {
					return retry.AttemptResult{Status: retry.StatusFatal, Err: err}
				}
			}

		case responses.ResponseCompletedEvent:
			u := ev.Response.Usage
			usage = &model.Usage{
				InputTokens:     int(u.InputTokens),
				OutputTokens:    int(u.OutputTokens),
				TotalTokens:     int(u.TotalTokens),
				ReasoningTokens: int(u.OutputTokensDetails.ReasoningTokens),
			}
		}
	}

	if err := stream.Err(); err != nil {
		if streamCtx.Err() != nil {
			return retry.AttemptResult{Status: retry.StatusRetryable, Err: fmt.Errorf("openai: generation timed out after %s", defaultTimeout)}
		}
		return retry.AttemptResult{Status: retry.StatusRetryable, Err: err}
	}

	if !hasContent {
		// Buffered usage alone does not count as content (§4.5 step 5); it
		// must not be emitted here, or the retry guard would see output
		// already sent and refuse to retry an otherwise-empty stream.
		return retry.AttemptResult{Status: retry.StatusRetryable, Err: fmt.Errorf("openai: empty response from LLM (no content generated)")}
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
