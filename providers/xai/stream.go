package xai

import (
	"context"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"goa.design/goa-ai/model"
	"goa.design/goa-ai/retry"
)

const defaultTimeout = 180 * time.Second

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
	chatReq, err := buildRequest(req)
	if err != nil {
		return retry.AttemptResult{Status: retry.StatusFatal, Err: err}
	}

	streamCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stream, err := client.CreateChatCompletionStream(streamCtx, chatReq)
	if err != nil {
		return retry.AttemptResult{Status: retry.StatusRetryable, Err: err}
	}
	defer stream.Close()

	return consumeStream(streamCtx, stream, emit)
}

// chatCompletionStream captures the subset of
// *openai.ChatCompletionStream consumeStream drives. Tests build a fake
// implementation directly over a literal response sequence rather than a
// live HTTP call.
type chatCompletionStream interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
}

func consumeStream(streamCtx context.Context, stream chatCompletionStream, emit func(model.Delta) error) retry.AttemptResult {
	hasContent := false
	fragments := make(map[int]*toolFragment)
	var order []int
	var usage *model.Usage

	for {
		resp, recvErr := stream.Recv()
		if recvErr == io.EOF {
			break
		}
		if recvErr != nil {
			if streamCtx.Err() != nil {
				return retry.AttemptResult{Status: retry.StatusRetryable, Err: fmt.Errorf("xai: generation timed out after %s", defaultTimeout)}
			}
			return retry.AttemptResult{Status: retry.StatusRetryable, Err: recvErr}
		}

		if resp.Usage != nil {
			usage = &model.Usage{
				InputTokens:  resp.Usage.PromptTokens,
				OutputTokens: resp.Usage.CompletionTokens,
				TotalTokens:  resp.Usage.TotalTokens,
			}
			if resp.Usage.CompletionTokensDetails != nil {
				usage.ReasoningTokens = resp.Usage.CompletionTokensDetails.ReasoningTokens
			}
		}

		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta

		if delta.ReasoningContent != "" {
			hasContent = true
			if err := emit(model.Delta{Type: model.DeltaThinking, Thinking: delta.ReasoningContent}); err != nil {
				return retry.AttemptResult{Status: retry.StatusFatal, Err: err}
			}
		}

		if delta.Content != "" {
			hasContent = true
			if err := emit(model.Delta{Type: model.DeltaText, Text: delta.Content}); err != nil {
				return retry.AttemptResult{Status: retry.StatusFatal, Err: err}
			}
		}

		for _, tc := range delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			frag, ok := fragments[idx]
			if !ok {
				frag = &toolFragment{}
				fragments[idx] = frag
				order = append(order, idx)
			}
			if tc.ID != "" {
				frag.id = tc.ID
			}
			if tc.Function.Name != "" {
				frag.name = model.ToolNameFromAPI(tc.Function.Name)
			}
			frag.args += tc.Function.Arguments
		}
	}

	for _, idx := range order {
		frag := fragments[idx]
		hasContent = true
		args := frag.args
		if args == "" {
			args = "{}"
		}
		if err := emit(model.Delta{Type: model.DeltaToolCall, ToolCall: &model.ToolCall{
			ID:        frag.id,
			Name:      frag.name,
			Arguments: args,
		}}); err != nil {
			return retry.AttemptResult{Status: retry.StatusFatal, Err: err}
		}
	}

	if !hasContent {
		// Buffered usage alone does not count as content (§4.5 step 5); it
		// must not be emitted here, or the retry guard would see output
		// already sent and refuse to retry an otherwise-empty stream.
		return retry.AttemptResult{Status: retry.StatusRetryable, Err: fmt.Errorf("xai: empty response from LLM (no content generated)")}
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
