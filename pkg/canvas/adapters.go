package canvas

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Built-in adapters. Each is a thin shape check over the code handed to an
// external rendering engine; real layout and drawing happen outside the
// core. Export of the textual source always works, raster export needs an
// engine and is rejected here.

var errRasterExport = fmt.Errorf("raster export requires an attached rendering engine")

// MindmapRenderer accepts a markdown outline
type MindmapRenderer struct {
	code string
}

func NewMindmapRenderer() *MindmapRenderer { return &MindmapRenderer{} }

func (r *MindmapRenderer) Kind() string { return "mindmap" }

func (r *MindmapRenderer) Render(code string) error {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return fmt.Errorf("empty mindmap outline")
	}
	if !strings.Contains(trimmed, "#") && !strings.Contains(trimmed, "- ") {
		return fmt.Errorf("mindmap code is not a markdown outline")
	}
	r.code = code
	return nil
}

func (r *MindmapRenderer) Export(format ExportFormat) ([]byte, error) {
	if format != ExportSource {
		return nil, errRasterExport
	}
	return []byte(r.code), nil
}

// FlowchartRenderer accepts a nodes/edges JSON document
type FlowchartRenderer struct {
	code string
}

func NewFlowchartRenderer() *FlowchartRenderer { return &FlowchartRenderer{} }

func (r *FlowchartRenderer) Kind() string { return "flowchart" }

func (r *FlowchartRenderer) Render(code string) error {
	var doc struct {
		Nodes []json.RawMessage `json:"nodes"`
		Edges []json.RawMessage `json:"edges"`
	}
	if err := json.Unmarshal([]byte(code), &doc); err != nil {
		return fmt.Errorf("flowchart code is not valid JSON: %w", err)
	}
	if len(doc.Nodes) == 0 {
		return fmt.Errorf("flowchart has no nodes")
	}
	r.code = code
	return nil
}

func (r *FlowchartRenderer) Export(format ExportFormat) ([]byte, error) {
	if format != ExportSource {
		return nil, errRasterExport
	}
	return []byte(r.code), nil
}

// ResetView recenters the viewport. Headless builds have nothing to move.
func (r *FlowchartRenderer) ResetView() {}

// ChartsRenderer accepts a declarative chart options object
type ChartsRenderer struct {
	code string
}

func NewChartsRenderer() *ChartsRenderer { return &ChartsRenderer{} }

func (r *ChartsRenderer) Kind() string { return "charts" }

func (r *ChartsRenderer) Render(code string) error {
	var option map[string]json.RawMessage
	if err := json.Unmarshal([]byte(code), &option); err != nil {
		return fmt.Errorf("chart options are not valid JSON: %w", err)
	}
	if _, ok := option["series"]; !ok {
		return fmt.Errorf("chart options missing series")
	}
	r.code = code
	return nil
}

func (r *ChartsRenderer) Export(format ExportFormat) ([]byte, error) {
	if format != ExportSource {
		return nil, errRasterExport
	}
	return []byte(r.code), nil
}

// DrawioRenderer accepts a draw.io XML envelope
type DrawioRenderer struct {
	code string
}

func NewDrawioRenderer() *DrawioRenderer { return &DrawioRenderer{} }

func (r *DrawioRenderer) Kind() string { return "drawio" }

func (r *DrawioRenderer) Render(code string) error {
	trimmed := strings.TrimSpace(code)
	if !strings.Contains(trimmed, "<mxfile") && !strings.Contains(trimmed, "<mxGraphModel") {
		return fmt.Errorf("drawio code is missing an mxfile or mxGraphModel envelope")
	}
	r.code = code
	return nil
}

func (r *DrawioRenderer) Export(format ExportFormat) ([]byte, error) {
	if format != ExportSource {
		return nil, errRasterExport
	}
	return []byte(r.code), nil
}

// DefaultRegistry returns a registry with all built-in adapters registered
func DefaultRegistry() *Registry {
	registry := NewRegistry()
	registry.Register(NewMindmapRenderer())
	registry.Register(NewFlowchartRenderer())
	registry.Register(NewChartsRenderer())
	registry.Register(NewDrawioRenderer())
	return registry
}
