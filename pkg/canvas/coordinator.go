package canvas

import (
	"github.com/inkwell-ai/inkwell/pkg/conversation"
	"github.com/inkwell-ai/inkwell/pkg/logger"
)

// Notification is a transient user-visible message. Only renderer and
// transport failures become notifications; store-internal recoveries stay
// in the log.
type Notification struct {
	Message string
	IsError bool
}

// Reporter is the side-channel renderer adapters report through. A render
// failure annotates the active message's content, it never rewrites the
// store's structural fields.
type Reporter interface {
	ReportSuccess()
	ReportError(message string)
}

// Coordinator connects the emitter to whichever renderer adapter matches
// the emitted kind. It holds no adapter-specific knowledge: everything goes
// through the Renderer capability interface.
type Coordinator struct {
	registry *Registry
	reporter Reporter
	lastKind string
}

// NewCoordinator creates a coordinator over the given adapter registry
func NewCoordinator(registry *Registry, reporter Reporter) *Coordinator {
	return &Coordinator{
		registry: registry,
		reporter: reporter,
	}
}

// Attach subscribes the coordinator to an emitter and returns the
// unsubscribe func.
func (c *Coordinator) Attach(emitter *Emitter) func() {
	return emitter.Subscribe(c.Apply)
}

// Apply routes one render state to its adapter. Empty code is a no-op: the
// canvas keeps showing whatever it had.
func (c *Coordinator) Apply(state conversation.RenderState) {
	if state.Code == "" {
		return
	}

	renderer, ok := c.registry.Get(state.Kind)
	if !ok {
		logger.Warn("no renderer registered for kind %q", state.Kind)
		return
	}

	c.lastKind = state.Kind
	if err := renderer.Render(state.Code); err != nil {
		logger.Error("render failed for kind %q: %v", state.Kind, err)
		if c.reporter != nil {
			c.reporter.ReportError(err.Error())
		}
		return
	}

	if c.reporter != nil {
		c.reporter.ReportSuccess()
	}
}

// Export asks the currently displayed adapter for its diagram bytes
func (c *Coordinator) Export(format ExportFormat) ([]byte, error) {
	return c.registry.Export(c.lastKind, format)
}

// ResetView resets the viewport of the current adapter when it supports it
func (c *Coordinator) ResetView() {
	renderer, ok := c.registry.Get(c.lastKind)
	if !ok {
		return
	}
	if resetter, ok := renderer.(ViewResetter); ok {
		resetter.ResetView()
	}
}
