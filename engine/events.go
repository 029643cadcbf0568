package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// EventBus is a named-channel event bus with retained per-channel state and
// synchronous, in-order delivery: Emit blocks until every subscriber on that
// channel has run. This mirrors workflow.WorkflowStreamEmitter's direct
// callback-in-the-caller's-goroutine shape rather than agent.SimpleEventBus's
// buffered-channel-plus-goroutine dispatch, because the engine's ordering
// invariant (spec.md §4.2/§5: events for a given channel are observed in
// emission order relative to task completion) would not survive the
// teacher's async fan-out, which reorders handler execution across
// goroutines. Subscribe/Unsubscribe's ID-counter scheme and the
// panic-recovery-around-handler pattern are adapted directly from
// agent.SimpleEventBus.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string]map[string]func(any)
	state    map[string]any
	counter  int64
	logger   *zap.Logger
}

// NewEventBus creates an empty event bus. A nil logger is replaced with a
// no-op logger, matching workflow.NewEnhancedCheckpointManager's convention.
func NewEventBus(logger *zap.Logger) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{
		handlers: make(map[string]map[string]func(any)),
		state:    make(map[string]any),
		logger:   logger.With(zap.String("component", "event_bus")),
	}
}

// On subscribes to a named channel and returns a subscription ID suitable
// for Off.
func (b *EventBus) On(channel string, handler func(any)) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers[channel] == nil {
		b.handlers[channel] = make(map[string]func(any))
	}
	id := fmt.Sprintf("%s-%d", channel, atomic.AddInt64(&b.counter, 1))
	b.handlers[channel][id] = handler
	return id
}

// Off removes a subscription by the ID returned from On.
func (b *EventBus) Off(subscriptionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for channel, handlers := range b.handlers {
		if _, ok := handlers[subscriptionID]; ok {
			delete(handlers, subscriptionID)
			if len(handlers) == 0 {
				delete(b.handlers, channel)
			}
			return
		}
	}
}

// Emit retains payload as the channel's latest state and synchronously
// invokes every current subscriber, in map-iteration order. A panicking
// handler is recovered and logged so one bad subscriber cannot abort the
// workflow or starve the remaining subscribers.
func (b *EventBus) Emit(channel string, payload any) {
	b.mu.Lock()
	b.state[channel] = payload
	src := b.handlers[channel]
	handlers := make([]func(any), 0, len(src))
	for _, h := range src {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, handler := range handlers {
		b.invoke(channel, handler, payload)
	}
}

func (b *EventBus) invoke(channel string, handler func(any), payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("channel", channel),
				zap.Any("recover", r))
		}
	}()
	handler(payload)
}

// GetState returns the last payload emitted on a channel, if any.
func (b *EventBus) GetState(channel string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.state[channel]
	return v, ok
}

// GetAllState returns a copy of every channel's retained last payload, for
// checkpointing (engine.ExecutionContext snapshots embed this).
func (b *EventBus) GetAllState() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]any, len(b.state))
	for k, v := range b.state {
		out[k] = v
	}
	return out
}

// SetAllState restores retained channel state from a checkpoint, without
// re-emitting to subscribers (restoring a snapshot is not the same event as
// the original emission).
func (b *EventBus) SetAllState(state map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = make(map[string]any, len(state))
	for k, v := range state {
		b.state[k] = v
	}
}
