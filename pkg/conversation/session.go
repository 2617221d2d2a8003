package conversation

import (
	"errors"
	"fmt"
	"time"

	"github.com/inkwell-ai/inkwell/pkg/logger"
	"github.com/inkwell-ai/inkwell/pkg/trace"
)

// ErrNotFound is returned by SelectVersion when the id does not identify a
// message at the given turn. Resolution paths never surface it: a dangling
// selection falls back to the last-inserted sibling instead.
var ErrNotFound = errors.New("message not found")

// Session holds every message version ever created in one conversation (the
// pool), the per-turn version selection, and the id of the message whose
// projection the canvas currently displays.
//
// The pool is append-only. Messages are never removed and persisted
// messages are never edited in place: an edit or regeneration inserts a new
// sibling at the same turn. Only the transient streaming tail mutates, via
// ApplyPatch. All mutations must come from a single logical writer (see
// stream.Manager), which keeps the pure Resolve/Project reads consistent.
//
// ActiveID is display state only. The streaming write path routes through
// Pinned (set solely by Pin), never through ActiveID: switching which
// version is shown must not reroute in-flight deltas.
type Session struct {
	Pool     []*Message
	Selected map[int]int64
	ActiveID int64
	Pinned   int64
}

// NewSession creates an empty session
func NewSession() *Session {
	return &Session{
		Pool:     make([]*Message, 0),
		Selected: make(map[int]int64),
	}
}

// LastTurn returns the highest turn occupied in the pool, or -1 for an
// empty pool. Insertion order does not track turns once siblings exist (a
// regeneration appends at an earlier turn), so the whole pool is scanned.
func (s *Session) LastTurn() int {
	last := -1
	for _, m := range s.Pool {
		if m.Turn > last {
			last = m.Turn
		}
	}
	return last
}

// Find returns the pooled message with the given id
func (s *Session) Find(id int64) (*Message, bool) {
	if id == 0 {
		return nil, false
	}
	for _, m := range s.Pool {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}

// SiblingsAt returns all versions occupying a turn, in insertion order
func (s *Session) SiblingsAt(turn int) []*Message {
	var siblings []*Message
	for _, m := range s.Pool {
		if m.Turn == turn {
			siblings = append(siblings, m)
		}
	}
	return siblings
}

// Transient returns the current id-less message, if any
func (s *Session) Transient() (*Message, bool) {
	for i := len(s.Pool) - 1; i >= 0; i-- {
		if s.Pool[i].IsTransient() {
			return s.Pool[i], true
		}
	}
	return nil, false
}

// Insert appends a message version to the pool. An unassigned turn becomes
// lastTurn+1 (0 for an empty pool). A persisted message becomes the
// selected version of its turn; a transient one leaves the existing
// selection untouched, so a previously selected sibling stays authoritative
// until the transient message is persisted.
func (s *Session) Insert(m *Message) *Message {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if m.Turn < 0 {
		if last := s.LastTurn(); last >= 0 {
			m.Turn = last + 1
		} else {
			m.Turn = 0
		}
	}

	if m.IsTransient() {
		if prev, ok := s.Transient(); ok {
			// Invariant: one transient message at a time. Keep going, the
			// newest one wins the most-recent fallback anyway.
			logger.Warn("inserting transient message while message at turn %d is still unsaved", prev.Turn)
		}
	}

	s.Pool = append(s.Pool, m)

	if m.ID != 0 {
		s.Selected[m.Turn] = m.ID
	}

	return m
}

// AssignID persists the current transient message under the given id and
// makes it the selected version of its turn.
func (s *Session) AssignID(id int64) error {
	m, ok := s.Transient()
	if !ok {
		return fmt.Errorf("%w: no transient message to persist", ErrNotFound)
	}
	m.ID = id
	s.Selected[m.Turn] = id
	if s.ActiveID == 0 {
		s.ActiveID = id
	}
	return nil
}

// SelectVersion switches which sibling is the active version of a turn.
// The pool is untouched: switching versions never loses data.
func (s *Session) SelectVersion(turn int, id int64) error {
	for _, m := range s.Pool {
		if m.Turn == turn && m.ID == id && id != 0 {
			s.Selected[turn] = id
			s.ActiveID = id
			return nil
		}
	}
	return fmt.Errorf("%w: id %d at turn %d", ErrNotFound, id, turn)
}

// Pin makes streaming patches target a specific message instead of the
// in-flight transient. Pin(0) restores the default. Display state is
// untouched: pinning redirects the write path only.
func (s *Session) Pin(id int64) {
	s.Pinned = id
}

// StepPatch is one incremental update to the trailing step of an in-flight
// assistant message. Nil fields are left alone. AddStep appends a fresh
// step; content deltas require an existing step.
type StepPatch struct {
	AddStep   *trace.Step
	Content   *string
	Append    bool
	Streaming *bool
	Status    *trace.StepStatus
	Kind      *trace.StepKind
	Error     *string
}

// patchTarget locates the message a patch applies to: the explicit target
// if given, else the pinned message, else the in-flight transient, else
// the last pool entry. ActiveID is deliberately not consulted — a version
// switch mid-stream must not redirect deltas into a historical sibling.
func (s *Session) patchTarget(targetID int64) (*Message, bool) {
	if targetID != 0 {
		return s.Find(targetID)
	}
	if s.Pinned != 0 {
		if m, ok := s.Find(s.Pinned); ok {
			return m, true
		}
	}
	if m, ok := s.Transient(); ok {
		return m, true
	}
	if len(s.Pool) == 0 {
		return nil, false
	}
	return s.Pool[len(s.Pool)-1], true
}

// ApplyPatch applies a streaming update to the trailing step of the target
// message. Appends are O(1): only the last step of one message is touched,
// never the rest of the pool. Invalid targets (missing, non-assistant, or
// stepless for a non-AddStep patch) are dropped with a log line, never an
// error — the stream for a stale message must not poison the session.
func (s *Session) ApplyPatch(targetID int64, patch StepPatch) {
	m, ok := s.patchTarget(targetID)
	if !ok {
		logger.Debug("step patch dropped: no target message")
		return
	}
	if !m.IsAssistant() {
		logger.Debug("step patch dropped: target at turn %d is not an assistant message", m.Turn)
		return
	}

	if patch.AddStep != nil {
		m.Steps = append(m.Steps, *patch.AddStep)
	}

	step := m.LastStep()
	if step == nil {
		if patch.AddStep == nil {
			logger.Debug("step patch dropped: message at turn %d has no steps", m.Turn)
		}
		return
	}

	if patch.Content != nil {
		if patch.Append {
			step.Content += *patch.Content
		} else {
			step.Content = *patch.Content
		}
	}
	if patch.Streaming != nil {
		step.Streaming = *patch.Streaming
	}
	if patch.Status != nil {
		step.Status = *patch.Status
	}
	if patch.Kind != nil {
		step.Kind = *patch.Kind
	}
	if patch.Error != nil {
		step.Status = trace.StatusError
		step.Error = *patch.Error
	}
}

// AnnotateActive appends a text annotation to the content of the active
// path's last message. Used by the renderer error side-channel: the note
// rides along with the message, no structural field changes.
func (s *Session) AnnotateActive(note string) {
	path := Resolve(s.Pool, s.Selected)
	if len(path) == 0 {
		return
	}
	path[len(path)-1].Content += note
}

// Regenerate prepares a fresh assistant sibling for a turn: same slot, new
// version. The prior sibling stays in the pool and remains selectable.
func (s *Session) Regenerate(turn int, agent string) *Message {
	m := NewAssistantMessage(agent).WithTurn(turn)
	if prev := s.Selected[turn]; prev != 0 {
		m.WithParent(prev)
	}
	return s.Insert(m)
}
