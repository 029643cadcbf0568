package engine

import (
	"context"
	"time"
)

// RetryPolicy controls the backoff applied between task attempts. Field
// names and semantics are carried over directly from llm.RetryPolicy
// (llm/resilience.go): MaxRetries attempts beyond the first, starting at
// InitialBackoff and growing by Multiplier up to MaxBackoff.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DefaultRetryPolicy mirrors llm.DefaultRetryPolicy's values, the same
// defaults the teacher already applies to LLM call retries.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
	}
}

// PolicyFromTaskDef resolves a TaskDef's retry fields into a RetryPolicy,
// resolving SPEC_FULL.md §9's open question: RetryDelayMs/RetryDelayMultiplier
// ARE consumed, as InitialBackoff/Multiplier here. MaxRetries is a pointer so
// an explicit IntPtr(0) (single attempt, spec.md §8's retryCount=0 case) is
// distinguishable from an unset field, which falls back to
// DefaultRetryPolicy's MaxRetries.
func PolicyFromTaskDef(t *TaskDef) RetryPolicy {
	p := DefaultRetryPolicy()
	if t.MaxRetries != nil {
		p.MaxRetries = *t.MaxRetries
	}
	if t.RetryDelayMs > 0 {
		p.InitialBackoff = time.Duration(t.RetryDelayMs) * time.Millisecond
	}
	if t.RetryDelayMultiplier > 0 {
		p.Multiplier = t.RetryDelayMultiplier
	}
	return p
}

// wait blocks for the backoff duration at the given attempt index (0-based),
// returning early with ctx.Err() if the context is cancelled first — the
// same select{ case <-ctx.Done(); case <-time.After(backoff) } shape
// ResilientProvider.Completion uses in its retry loop.
func (p RetryPolicy) wait(ctx context.Context, attempt int) error {
	backoff := p.InitialBackoff
	for i := 0; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * p.Multiplier)
		if backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
			break
		}
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(backoff):
		return nil
	}
}
