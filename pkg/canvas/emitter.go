package canvas

import (
	"sync"

	"github.com/inkwell-ai/inkwell/pkg/conversation"
)

// Emitter publishes render-state changes to subscribed consumers. It is the
// explicit projection surface of the store: after every mutation the owner
// emits the freshly derived state and renderers react to it, instead of
// reading shared ambient state.
type Emitter struct {
	mu          sync.RWMutex
	subscribers map[int]func(conversation.RenderState)
	nextID      int
	current     conversation.RenderState
}

// NewEmitter creates an emitter with an empty render state
func NewEmitter() *Emitter {
	return &Emitter{
		subscribers: make(map[int]func(conversation.RenderState)),
	}
}

// Subscribe registers a consumer. The returned func unsubscribes it.
func (e *Emitter) Subscribe(fn func(conversation.RenderState)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	e.subscribers[id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subscribers, id)
	}
}

// Emit publishes a new render state to every subscriber. Consumers only
// ever see whole states, never partial updates.
func (e *Emitter) Emit(state conversation.RenderState) {
	e.mu.Lock()
	e.current = state
	fns := make([]func(conversation.RenderState), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// Current returns the most recently emitted render state
func (e *Emitter) Current() conversation.RenderState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}
