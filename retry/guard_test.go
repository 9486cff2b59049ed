package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"goa.design/goa-ai/model"
)

func noSleep(context.Context, time.Duration) {}

// TestGuard_EmptyThenSuccess covers scenario S4: the first attempt yields no
// chunks, the second succeeds, and the guard invokes exactly two attempts.
func TestGuard_EmptyThenSuccess(t *testing.T) {
	g := &Guard{Sleep: noSleep}
	var got []model.Delta
	emit := func(d model.Delta) error {
		got = append(got, d)
		return nil
	}

	calls := 0
	attempt := func(ctx context.Context, emit func(model.Delta) error) AttemptResult {
		calls++
		if calls == 1 {
			return AttemptResult{Status: StatusRetryable, Err: errors.New("empty response")}
		}
		if err := emit(model.Delta{Type: model.DeltaText, Text: "ok"}); err != nil {
			t.Fatalf("emit: %v", err)
		}
		if err := emit(model.Delta{Final: true}); err != nil {
			t.Fatalf("emit: %v", err)
		}
		return AttemptResult{Status: StatusFinal}
	}

	if err := g.Run(context.Background(), emit, attempt); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected exactly 2 upstream invocations, got %d", calls)
	}
	if len(got) != 2 || got[0].Type != model.DeltaText || got[0].Text != "ok" || !got[1].Final {
		t.Fatalf("unexpected deltas: %+v", got)
	}
}

// TestGuard_PartialThenFailure covers scenario S5: output has already
// escaped when a retryable condition recurs, so the guard must not retry and
// must emit partial_stream_error instead.
func TestGuard_PartialThenFailure(t *testing.T) {
	g := &Guard{Sleep: noSleep}
	var got []model.Delta
	emit := func(d model.Delta) error {
		got = append(got, d)
		return nil
	}

	calls := 0
	attempt := func(ctx context.Context, emit func(model.Delta) error) AttemptResult {
		calls++
		if err := emit(model.Delta{Type: model.DeltaText, Text: "Partial"}); err != nil {
			t.Fatalf("emit: %v", err)
		}
		return AttemptResult{Status: StatusRetryable, Err: errors.New("timeout")}
	}

	if err := g.Run(context.Background(), emit, attempt); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly 1 upstream invocation, got %d", calls)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 deltas, got %+v", got)
	}
	if got[0].Type != model.DeltaText || got[0].Text != "Partial" {
		t.Fatalf("first delta should be the partial text, got %+v", got[0])
	}
	last := got[len(got)-1]
	if !last.Final || last.Type != model.DeltaError || last.Err.Code != model.ErrCodePartialStreamError || last.Err.Retryable {
		t.Fatalf("final delta should be non-retryable partial_stream_error, got %+v", last)
	}
}

func TestGuard_MaxRetriesExhausted(t *testing.T) {
	g := &Guard{Sleep: noSleep}
	var got []model.Delta
	emit := func(d model.Delta) error {
		got = append(got, d)
		return nil
	}

	calls := 0
	attempt := func(ctx context.Context, emit func(model.Delta) error) AttemptResult {
		calls++
		return AttemptResult{Status: StatusRetryable, Err: errors.New("empty response")}
	}

	if err := g.Run(context.Background(), emit, attempt); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	last := got[len(got)-1]
	if !last.Final || last.Err.Code != model.ErrCodeMaxRetries {
		t.Fatalf("expected max_retries final delta, got %+v", last)
	}
}

func TestGuard_FatalNeverRetries(t *testing.T) {
	g := &Guard{Sleep: noSleep}
	var got []model.Delta
	emit := func(d model.Delta) error {
		got = append(got, d)
		return nil
	}

	calls := 0
	attempt := func(ctx context.Context, emit func(model.Delta) error) AttemptResult {
		calls++
		return AttemptResult{Status: StatusFatal, Err: errors.New("invalid api key")}
	}

	if err := g.Run(context.Background(), emit, attempt); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 1 {
		t.Fatalf("fatal errors must not be retried, got %d calls", calls)
	}
	last := got[len(got)-1]
	if !last.Final || last.Err.Code != model.ErrCodeProviderError {
		t.Fatalf("expected provider_error final delta, got %+v", last)
	}
}

// TestGuard_FatalCodeMapping covers §7: a *model.ProviderError's Kind
// determines which error code a fatal attempt surfaces as, not just a flat
// provider_error for everything.
func TestGuard_FatalCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want model.ErrorCode
	}{
		{
			name: "auth kind becomes credentials",
			err:  model.NewProviderError("google", "client", model.ProviderErrorKindAuth, "missing env var", "", false, nil),
			want: model.ErrCodeCredentials,
		},
		{
			name: "invalid_request kind becomes invalid_request",
			err:  model.NewProviderError("anthropic", "validate", model.ProviderErrorKindInvalidRequest, "duplicate system message", "", false, nil),
			want: model.ErrCodeInvalidRequest,
		},
		{
			name: "unclassified provider error stays provider_error",
			err:  model.NewProviderError("openai", "stream", model.ProviderErrorKindUnknown, "sdk exploded", "", false, nil),
			want: model.ErrCodeProviderError,
		},
		{
			name: "plain error stays provider_error",
			err:  errors.New("boom"),
			want: model.ErrCodeProviderError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := &Guard{Sleep: noSleep}
			var got []model.Delta
			emit := func(d model.Delta) error {
				got = append(got, d)
				return nil
			}
			attempt := func(ctx context.Context, emit func(model.Delta) error) AttemptResult {
				return AttemptResult{Status: StatusFatal, Err: tc.err}
			}
			if err := g.Run(context.Background(), emit, attempt); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(got) != 1 || got[0].Err.Code != tc.want {
				t.Fatalf("got %+v, want code %v", got, tc.want)
			}
		})
	}
}
