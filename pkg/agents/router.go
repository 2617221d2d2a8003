package agents

import (
	"strings"
)

// Renderer kinds the router can classify a request into. KindGeneral means
// "no diagram": the canvas keeps whatever it is showing.
const (
	KindMindmap   = "mindmap"
	KindFlowchart = "flowchart"
	KindCharts    = "charts"
	KindDrawio    = "drawio"
	KindGeneral   = "general"
)

// RoutingRule maps a prompt substring to a renderer kind
type RoutingRule struct {
	Pattern  string
	Kind     string
	Priority int // Higher priority rules are evaluated first
}

// Router classifies a user request into the renderer kind that should
// handle it, using prioritized substring rules plus awareness of what is
// currently on the canvas: a modification request keeps editing the
// diagram the user is looking at.
type Router struct {
	rules       []RoutingRule
	defaultKind string
}

// NewRouter creates a router with the built-in rule set
func NewRouter(defaultKind string) *Router {
	r := &Router{defaultKind: defaultKind}

	r.AddRule("mindmap", KindMindmap, 10)
	r.AddRule("mind map", KindMindmap, 10)
	r.AddRule("brainstorm", KindMindmap, 5)
	r.AddRule("outline", KindMindmap, 5)

	r.AddRule("flowchart", KindFlowchart, 10)
	r.AddRule("flow chart", KindFlowchart, 10)
	r.AddRule("workflow", KindFlowchart, 5)
	r.AddRule("decision tree", KindFlowchart, 5)
	r.AddRule("process", KindFlowchart, 3)

	r.AddRule("chart", KindCharts, 8)
	r.AddRule("graph of", KindCharts, 5)
	r.AddRule("plot", KindCharts, 5)
	r.AddRule("sales", KindCharts, 3)
	r.AddRule("statistics", KindCharts, 3)

	r.AddRule("draw.io", KindDrawio, 10)
	r.AddRule("drawio", KindDrawio, 10)
	r.AddRule("architecture", KindDrawio, 8)
	r.AddRule("network topology", KindDrawio, 8)
	r.AddRule("uml", KindDrawio, 5)

	return r
}

// AddRule adds a routing rule, keeping rules sorted by priority
func (r *Router) AddRule(pattern string, kind string, priority int) {
	r.rules = append(r.rules, RoutingRule{
		Pattern:  pattern,
		Kind:     kind,
		Priority: priority,
	})

	for i := len(r.rules) - 1; i > 0; i-- {
		if r.rules[i].Priority > r.rules[i-1].Priority {
			r.rules[i], r.rules[i-1] = r.rules[i-1], r.rules[i]
		}
	}
}

// modification verbs that indicate the user is editing the current diagram
var modifyVerbs = []string{
	"add", "remove", "delete", "change", "update", "rename",
	"expand", "connect", "move",
}

// Route classifies a prompt given the code currently on the canvas
func (r *Router) Route(prompt, currentCode string) string {
	promptLower := strings.ToLower(prompt)

	// A modification of the visible diagram stays with its renderer
	if context := DetectContext(currentCode); context != KindGeneral {
		for _, verb := range modifyVerbs {
			if strings.Contains(promptLower, verb) {
				return context
			}
		}
	}

	for _, rule := range r.rules {
		if strings.Contains(promptLower, rule.Pattern) {
			return rule.Kind
		}
	}

	return r.defaultKind
}

// DetectContext infers which renderer produced a code blob. Mirrors the
// shapes the adapters accept: nodes/edges JSON for flowcharts, a series
// option object for charts, an mxfile envelope for draw.io, markdown
// outlines for mindmaps.
func DetectContext(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return KindGeneral
	}

	switch {
	case strings.Contains(trimmed, "<mxfile") || strings.Contains(trimmed, "<mxGraphModel"):
		return KindDrawio
	case strings.Contains(trimmed, "\"nodes\"") && strings.Contains(trimmed, "\"edges\""):
		return KindFlowchart
	case strings.Contains(trimmed, "graph TD") || strings.Contains(trimmed, "flowchart"):
		return KindFlowchart
	case strings.Contains(trimmed, "\"series\"") && strings.Contains(trimmed, "\"type\""):
		return KindCharts
	case strings.HasPrefix(trimmed, "#"):
		return KindMindmap
	default:
		return KindGeneral
	}
}
