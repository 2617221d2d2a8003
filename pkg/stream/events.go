package stream

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/inkwell-ai/inkwell/pkg/trace"
)

// EventType tags the wire variants of the streaming ingestion protocol
type EventType string

const (
	EventAgentSelect  EventType = "agent_select"
	EventToolStart    EventType = "tool_start"
	EventToolEndDelta EventType = "tool_end_delta"
	EventStatus       EventType = "status"
	EventError        EventType = "error"
)

// Event is one validated streaming update. Transport payloads are decoded
// into this shape at the trust boundary; nothing duck-typed crosses into
// the store.
type Event struct {
	Type    EventType
	Name    string           // agent or tool name
	Text    string           // tool_end_delta payload
	Append  bool             // delta appends vs replaces
	Status  trace.StepStatus // status variant
	Message string           // error variant
}

// wireEvent is the raw transport shape. Pointer fields distinguish absent
// from empty during validation.
type wireEvent struct {
	Type    string  `json:"type"`
	Name    *string `json:"name,omitempty"`
	Text    *string `json:"text,omitempty"`
	Append  *bool   `json:"append,omitempty"`
	Status  *string `json:"status,omitempty"`
	Message *string `json:"message,omitempty"`
}

// DecodeEvent validates one transport payload. Unknown variants, unknown
// fields and missing required fields are rejected here and never reach the
// session.
func DecodeEvent(data []byte) (Event, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var raw wireEvent
	if err := dec.Decode(&raw); err != nil {
		return Event{}, fmt.Errorf("malformed stream event: %w", err)
	}

	switch EventType(raw.Type) {
	case EventAgentSelect:
		if raw.Name == nil || *raw.Name == "" {
			return Event{}, fmt.Errorf("agent_select event missing name")
		}
		return Event{Type: EventAgentSelect, Name: *raw.Name}, nil

	case EventToolStart:
		if raw.Name == nil || *raw.Name == "" {
			return Event{}, fmt.Errorf("tool_start event missing name")
		}
		return Event{Type: EventToolStart, Name: *raw.Name}, nil

	case EventToolEndDelta:
		if raw.Text == nil {
			return Event{}, fmt.Errorf("tool_end_delta event missing text")
		}
		appendFlag := true
		if raw.Append != nil {
			appendFlag = *raw.Append
		}
		return Event{Type: EventToolEndDelta, Text: *raw.Text, Append: appendFlag}, nil

	case EventStatus:
		if raw.Status == nil {
			return Event{}, fmt.Errorf("status event missing status")
		}
		status := trace.StepStatus(*raw.Status)
		switch status {
		case trace.StatusRunning, trace.StatusDone, trace.StatusError:
		default:
			return Event{}, fmt.Errorf("unknown step status %q", *raw.Status)
		}
		return Event{Type: EventStatus, Status: status}, nil

	case EventError:
		if raw.Message == nil || *raw.Message == "" {
			return Event{}, fmt.Errorf("error event missing message")
		}
		return Event{Type: EventError, Message: *raw.Message}, nil

	default:
		return Event{}, fmt.Errorf("unknown stream event type %q", raw.Type)
	}
}
