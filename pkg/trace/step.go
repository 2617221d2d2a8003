package trace

// StepKind identifies the kind of event recorded in an execution trace.
type StepKind string

const (
	KindAgentSelect StepKind = "agent_select"
	KindToolStart   StepKind = "tool_start"
	KindToolEnd     StepKind = "tool_end"
)

// StepStatus is the execution status of a single step.
type StepStatus string

const (
	StatusRunning StepStatus = "running"
	StatusDone    StepStatus = "done"
	StatusError   StepStatus = "error"
)

// Step is one discrete event inside an assistant message's execution trace.
// Content grows through streaming appends while Streaming is true; once the
// step stops streaming, content only changes via a full replace.
type Step struct {
	Kind      StepKind   `json:"type"`
	Name      string     `json:"name,omitempty"`
	Content   string     `json:"content,omitempty"`
	Streaming bool       `json:"is_streaming,omitempty"`
	Status    StepStatus `json:"status,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// NewAgentSelectStep creates an agent selection marker
func NewAgentSelectStep(name string) Step {
	return Step{
		Kind:   KindAgentSelect,
		Name:   name,
		Status: StatusDone,
	}
}

// NewToolStartStep creates a tool invocation marker
func NewToolStartStep(name string) Step {
	return Step{
		Kind:   KindToolStart,
		Name:   name,
		Status: StatusRunning,
	}
}

// NewToolEndStep creates a tool result step
func NewToolEndStep(content string) Step {
	return Step{
		Kind:    KindToolEnd,
		Content: content,
		Status:  StatusDone,
	}
}

func (s Step) IsAgentSelect() bool {
	return s.Kind == KindAgentSelect
}

func (s Step) IsToolStart() bool {
	return s.Kind == KindToolStart
}

func (s Step) IsToolEnd() bool {
	return s.Kind == KindToolEnd
}

func (s Step) HasContent() bool {
	return s.Content != ""
}

func (s Step) IsError() bool {
	return s.Status == StatusError
}
