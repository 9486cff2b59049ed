package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"goa.design/goa-ai/model"
	"goa.design/goa-ai/retry"
)

const defaultTimeout = 180 * time.Second

// toolBuffer accumulates one tool_use block's JSON argument fragments,
// mirroring the teacher adapter's content-block index table.
type toolBuffer struct {
	id        string
	name      string
	fragments []string
}

func (tb *toolBuffer) finalInput() string {
	joined := strings.Join(tb.fragments, "")
	if strings.TrimSpace(joined) == "" {
		return "{}"
	}
	return joined
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
	params, err := buildParams(req)
	if err != nil {
		return retry.AttemptResult{Status: retry.StatusFatal, Err: err}
	}

	streamCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stream := client.Messages.NewStreaming(streamCtx, params)
	defer stream.Close()

	return consumeStream(streamCtx, stream, emit)
}

// messageStream captures the subset of *ssestream.Stream[sdk.MessageStreamEventUnion]
// consumeStream drives. Tests build one directly over a literal event
// sequence, the same way the teacher's own stream_test.go constructs an
// ssestream.Stream from a fake decoder rather than a live HTTP response.
type messageStream interface {
	Next() bool
	Current() sdk.MessageStreamEventUnion
	Err() error
}

func consumeStream(streamCtx context.Context, stream messageStream, emit func(model.Delta) error) retry.AttemptResult {
	hasContent := false
	toolBlocks := make(map[int]*toolBuffer)
	var usage *model.Usage

	for stream.Next() {
		event := stream.Current()
		switch ev := event.AsAny().(type) {
		case sdk.ContentBlockStartEvent:
			if toolUse, ok := ev.ContentBlock.AsAny().(sdk.ToolUseBlock); ok {
				toolBlocks[int(ev.Index)] = &toolBuffer{id: toolUse.ID, name: model.ToolNameFromAPI(toolUse.Name)}
			}

		case sdk.ContentBlockDeltaEvent:
			idx := int(ev.Index)
			switch delta := ev.Delta.AsAny().(type) {
			case sdk.TextDelta:
				if delta.Text == "" {
					continue
				}
				hasContent = true
				if err := emit(model.Delta{Type: model.DeltaText, Text: delta.Text}); err != nil {
					return retry.AttemptResult{Status: retry.StatusFatal, Err: err}
				}
			case sdk.ThinkingDelta:
				if delta.Thinking == "" {
					continue
				}
				hasContent = true
				if err := emit(model.Delta{Type: model.DeltaThinking, Thinking: delta.Thinking}); err != nil {
					return retry.AttemptResult{Status: retry.StatusFatal, Err: err}
				}
			case sdk.InputJSONDelta:
				if delta.PartialJSON == "" {
					continue
				}
				if tb := toolBlocks[idx]; tb != nil {
					tb.fragments = append(tb.fragments, delta.PartialJSON)
				}
			}

		case sdk.ContentBlockStopEvent:
			idx := int(ev.Index)
			if tb := toolBlocks[idx]; tb != nil {
				hasContent = true
				delete(toolBlocks, idx)
				if err := emit(model.Delta{Type: model.DeltaToolCall, ToolCall: &model.ToolCall{
					ID:        tb.id,
					Name:      tb.name,
					Arguments: tb.finalInput(),
				}}); err != nil {
					return retry.AttemptResult{Status: retry.StatusFatal, Err: err}
				}
			}

		case sdk.MessageDeltaEvent:
			usage = &model.Usage{
				InputTokens:  int(ev.Usage.InputTokens),
				OutputTokens: int(ev.Usage.OutputTokens),
				TotalTokens:  int(ev.Usage.InputTokens + ev.Usage.OutputTokens),
			}
		}
	}

	if err := stream.Err(); err != nil {
		if streamCtx.Err() != nil {
			return retry.AttemptResult{Status: retry.StatusRetryable, Err: fmt.Errorf("anthropic: generation timed out after %s", defaultTimeout)}
		}
		return retry.AttemptResult{Status: retry.StatusRetryable, Err: err}
	}

	if !hasContent {
		// Buffered usage alone does not count as content (§4.5 step 5); it
		// must not be emitted here, or the retry guard would see output
		// already sent and refuse to retry an otherwise-empty stream.
		return retry.AttemptResult{Status: retry.StatusRetryable, Err: fmt.Errorf("anthropic: empty response from LLM (no content generated)")}
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
