package engine

import "strings"

// ChunkBuffer accumulates streamed text deltas and flushes them in batches
// instead of on every delta, the same re-batching agent.BaseAgent.ChatCompletion
// does inline (it accumulates into a strings.Builder named assembled and only
// forwards a RuntimeStreamToken every delta there — ChunkBuffer generalizes
// that into a standalone, reusable primitive with a configurable threshold
// and delimiter set, matching the batching llm/providers' SSE readers apply
// before handing chunks to callers).
type ChunkBuffer struct {
	threshold  int
	delimiters []string
	onFlush    func(chunk, full string)

	pending strings.Builder
	full    strings.Builder
}

// ChunkBufferOption configures a ChunkBuffer at construction.
type ChunkBufferOption func(*ChunkBuffer)

// WithThreshold flushes once the pending buffer reaches n bytes.
func WithThreshold(n int) ChunkBufferOption {
	return func(b *ChunkBuffer) { b.threshold = n }
}

// WithDelimiters flushes immediately whenever the pending buffer contains
// any of the given substrings (e.g. sentence-ending punctuation, newlines).
func WithDelimiters(delims ...string) ChunkBufferOption {
	return func(b *ChunkBuffer) { b.delimiters = delims }
}

// NewChunkBuffer creates a buffer that calls onFlush(chunk, fullTextSoFar)
// whenever the threshold or a delimiter is hit.
func NewChunkBuffer(onFlush func(chunk, full string), opts ...ChunkBufferOption) *ChunkBuffer {
	b := &ChunkBuffer{onFlush: onFlush}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Write appends a delta to the buffer, flushing it (possibly more than once,
// if the delta itself contains multiple delimiter occurrences) per the
// configured threshold/delimiters.
func (b *ChunkBuffer) Write(delta string) {
	b.pending.WriteString(delta)
	b.full.WriteString(delta)

	for {
		if !b.shouldFlush() {
			return
		}
		b.flush()
	}
}

func (b *ChunkBuffer) shouldFlush() bool {
	if b.pending.Len() == 0 {
		return false
	}
	if b.threshold > 0 && b.pending.Len() >= b.threshold {
		return true
	}
	pending := b.pending.String()
	for _, d := range b.delimiters {
		if d != "" && strings.Contains(pending, d) {
			return true
		}
	}
	return false
}

func (b *ChunkBuffer) flush() {
	chunk := b.pending.String()
	b.pending.Reset()
	if b.onFlush != nil {
		b.onFlush(chunk, b.full.String())
	}
}

// End flushes any remaining buffered text, regardless of threshold. Every
// ChunkBuffer must have End called exactly once at the end of a stream so
// the final partial chunk is not lost.
func (b *ChunkBuffer) End() {
	if b.pending.Len() > 0 {
		b.flush()
	}
}

// Full returns the complete accumulated text seen so far.
func (b *ChunkBuffer) Full() string {
	return b.full.String()
}
