// Package retry implements the partial-output-safe retry guard that wraps
// one streaming-adapter invocation. It is the only place attempts are
// repeated: once a single delta has escaped to the caller, a retry would
// duplicate a prefix on that caller's stream, so the guard refuses one.
package retry

import (
	"context"
	"time"

	"goa.design/goa-ai/model"
)

// Status is the outcome of one adapter attempt.
type Status int

const (
	// StatusFinal means the attempt completed and emitted its own final
	// delta (success path); the guard does nothing further.
	StatusFinal Status = iota

	// StatusRetryable means the attempt ended without output, or ended
	// after producing output (the guard distinguishes those two cases
	// itself by counting emitted deltas — the adapter does not need to).
	StatusRetryable

	// StatusFatal means the attempt failed in a way that must not be
	// retried regardless of how much output escaped.
	StatusFatal
)

// AttemptResult reports how one adapter attempt ended.
type AttemptResult struct {
	Status Status
	Err    error
}

// Attempt runs one upstream streaming call, sending outbound deltas to emit
// as they are produced. On success it sends the Delta with Final set itself
// and returns StatusFinal; on a retryable or fatal outcome it sends no final
// delta, and the guard emits the terminal error delta instead.
type Attempt func(ctx context.Context, emit func(model.Delta) error) AttemptResult

// Guard bounds retries of a streaming adapter per §4.6: three attempts,
// exponential backoff starting at one second, and a hard rule that no
// retry is issued once any delta has reached the caller.
type Guard struct {
	// MaxAttempts defaults to 3 when zero.
	MaxAttempts int

	// BackoffBase defaults to one second when zero. Attempt n sleeps for
	// BackoffBase * 2^(n-2) before n (n counted from 1, no sleep before
	// attempt 1), so the default schedule is 1s then 2s.
	BackoffBase time.Duration

	// Sleep defaults to a wait that returns early when ctx is cancelled.
	// Tests inject a no-op or recording implementation so backoff does not
	// slow the suite down.
	Sleep func(context.Context, time.Duration)
}

func (g *Guard) maxAttempts() int {
	if g.MaxAttempts <= 0 {
		return 3
	}
	return g.MaxAttempts
}

func (g *Guard) backoffBase() time.Duration {
	if g.BackoffBase <= 0 {
		return time.Second
	}
	return g.BackoffBase
}

func (g *Guard) sleep(ctx context.Context, d time.Duration) {
	if g.Sleep != nil {
		g.Sleep(ctx, d)
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// Run drives attempt up to the retry budget, forwarding every delta the
// attempt produces to emit. A successful attempt supplies its own final
// delta; every failed outcome ends with one error delta carrying Final set.
// If ctx is cancelled during a backoff sleep, Run returns ctx.Err() without
// emitting a final delta.
func (g *Guard) Run(ctx context.Context, emit func(model.Delta) error, attempt Attempt) error {
	emitted := 0
	wrappedEmit := func(d model.Delta) error {
		emitted++
		return emit(d)
	}

	for n := 1; n <= g.maxAttempts(); n++ {
		if n > 1 {
			g.sleep(ctx, g.backoffBase()*time.Duration(1<<(n-2)))
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}

		before := emitted
		result := attempt(ctx, wrappedEmit)
		producedOutput := emitted > before

		switch result.Status {
		case StatusFinal:
			return nil

		case StatusFatal:
			return emit(finalError(fatalCode(result.Err), result.Err, false))

		case StatusRetryable:
			if producedOutput {
				return emit(finalError(model.ErrCodePartialStreamError, result.Err, false))
			}
			if n == g.maxAttempts() {
				return emit(finalError(model.ErrCodeMaxRetries, result.Err, false))
			}
			// zero output so far: loop around and retry.
		}
	}
	return nil
}

// fatalCode maps a fatal attempt's error to the §7 code it should surface
// as. Credential failures, message-shape validation failures and rejected
// tool names arrive as *model.ProviderError with the matching Kind; anything
// else (a raw SDK error, a parse failure, an empty message list) is an
// opaque provider_error.
func fatalCode(err error) model.ErrorCode {
	pe, ok := model.AsProviderError(err)
	if !ok {
		return model.ErrCodeProviderError
	}
	switch pe.Kind {
	case model.ProviderErrorKindAuth:
		return model.ErrCodeCredentials
	case model.ProviderErrorKindInvalidRequest:
		return model.ErrCodeInvalidRequest
	default:
		return model.ErrCodeProviderError
	}
}

func finalError(code model.ErrorCode, cause error, retryable bool) model.Delta {
	msg := string(code)
	if cause != nil {
		msg = cause.Error()
	}
	return model.Delta{
		Type:  model.DeltaError,
		Err:   &model.Error{Message: msg, Code: code, Retryable: retryable},
		Final: true,
	}
}
