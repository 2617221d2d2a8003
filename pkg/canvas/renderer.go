package canvas

import (
	"fmt"
	"sync"
)

// ExportFormat selects the output of a renderer export
type ExportFormat string

const (
	ExportPNG    ExportFormat = "png"
	ExportSVG    ExportFormat = "svg"
	ExportSource ExportFormat = "source"
)

// Renderer is the capability interface every diagram adapter implements.
// The coordinator invokes whichever adapter matches the emitted kind
// without knowing the concrete variant.
type Renderer interface {
	Kind() string
	Render(code string) error
	Export(format ExportFormat) ([]byte, error)
}

// ViewResetter is an optional capability for adapters with a movable viewport
type ViewResetter interface {
	ResetView()
}

// Registry holds renderer adapters by kind
type Registry struct {
	renderers map[string]Renderer
	mu        sync.RWMutex
}

// NewRegistry creates an empty renderer registry
func NewRegistry() *Registry {
	return &Registry{
		renderers: make(map[string]Renderer),
	}
}

func (r *Registry) Register(renderer Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[renderer.Kind()] = renderer
}

func (r *Registry) Get(kind string) (Renderer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	renderer, exists := r.renderers[kind]
	return renderer, exists
}

func (r *Registry) Unregister(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.renderers, kind)
}

// Kinds returns the registered renderer kinds
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.renderers))
	for kind := range r.renderers {
		kinds = append(kinds, kind)
	}
	return kinds
}

// Export asks the adapter for the current kind to export its diagram
func (r *Registry) Export(kind string, format ExportFormat) ([]byte, error) {
	renderer, ok := r.Get(kind)
	if !ok {
		return nil, fmt.Errorf("no renderer registered for kind %q", kind)
	}
	return renderer.Export(format)
}
