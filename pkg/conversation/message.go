package conversation

import (
	"strings"
	"time"

	"github.com/inkwell-ai/inkwell/pkg/trace"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TurnUnassigned marks a message whose turn slot has not been decided yet.
// Insert replaces it with lastTurn+1 (or 0 for an empty pool).
const TurnUnassigned = -1

// Message is one node in the conversation version tree. Several messages may
// share a turn; such siblings are alternate versions of that exchange slot
// (regenerations or edits). ID 0 marks a transient, not-yet-persisted
// message — at most one exists at a time, the one currently streaming.
type Message struct {
	ID        int64        `json:"id,omitempty"`
	ParentID  int64        `json:"parent_id,omitempty"`
	Turn      int          `json:"turn_index"`
	Role      string       `json:"role"`
	Content   string       `json:"content"`
	Images    []string     `json:"images,omitempty"`
	Steps     []trace.Step `json:"steps,omitempty"`
	Agent     string       `json:"agent,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

func NewUserMessage(content string) *Message {
	return &Message{
		Role:      RoleUser,
		Content:   strings.TrimSpace(content),
		Turn:      TurnUnassigned,
		CreatedAt: time.Now(),
	}
}

func NewAssistantMessage(agent string) *Message {
	return &Message{
		Role:      RoleAssistant,
		Agent:     agent,
		Turn:      TurnUnassigned,
		CreatedAt: time.Now(),
	}
}

func (m *Message) IsUser() bool {
	return m.Role == RoleUser
}

func (m *Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}

// IsTransient reports whether the message has not been persisted yet
func (m *Message) IsTransient() bool {
	return m.ID == 0
}

func (m *Message) HasSteps() bool {
	return len(m.Steps) > 0
}

// LastStep returns a pointer to the trailing step, or nil
func (m *Message) LastStep() *trace.Step {
	if len(m.Steps) == 0 {
		return nil
	}
	return &m.Steps[len(m.Steps)-1]
}

// WithTurn pins the message to an explicit turn slot
func (m *Message) WithTurn(turn int) *Message {
	m.Turn = turn
	return m
}

// WithID marks the message as persisted under the given identifier
func (m *Message) WithID(id int64) *Message {
	m.ID = id
	return m
}

// WithImages attaches image references
func (m *Message) WithImages(images []string) *Message {
	m.Images = images
	return m
}

// WithParent records which message this one answers or replaces. Audit
// only: resolution never follows parent links.
func (m *Message) WithParent(parentID int64) *Message {
	m.ParentID = parentID
	return m
}
