package stream

import (
	"sync"

	"github.com/google/uuid"
	"github.com/inkwell-ai/inkwell/pkg/canvas"
	"github.com/inkwell-ai/inkwell/pkg/conversation"
	"github.com/inkwell-ai/inkwell/pkg/logger"
	"github.com/inkwell-ai/inkwell/pkg/trace"
)

// NotifyFunc receives transient user-visible notifications
type NotifyFunc func(canvas.Notification)

// Manager is the single logical writer of one session. Every mutation —
// inserts, streaming patches, version switches — goes through its command
// queue and runs on one goroutine, so the pure Resolve/Project reads always
// observe a consistent snapshot. After every mutation the derived render
// state is re-emitted.
//
// Streaming deltas stay O(1): each command touches only the trailing step
// of its target message.
type Manager struct {
	session *conversation.Session
	emitter *canvas.Emitter
	machine *trace.Machine
	notify  NotifyFunc

	streamID string // uuid of the in-flight generation, empty when idle

	commands chan func()
	done     chan struct{}

	mu      sync.RWMutex // guards stopped and sends on commands
	stopped bool
}

// NewManager creates a manager around an existing session and starts its
// writer goroutine.
func NewManager(session *conversation.Session, emitter *canvas.Emitter, notify NotifyFunc) *Manager {
	if session == nil {
		session = conversation.NewSession()
	}
	m := &Manager{
		session:  session,
		emitter:  emitter,
		machine:  trace.NewMachine(),
		notify:   notify,
		commands: make(chan func(), 256),
		done:     make(chan struct{}),
	}
	go m.run()
	return m
}

func (m *Manager) run() {
	defer close(m.done)
	for cmd := range m.commands {
		cmd()
	}
}

// Stop drains the queue and stops the writer goroutine. The manager is
// inert afterwards: late calls are dropped, never a panic on a closed
// channel.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	close(m.commands)
	m.mu.Unlock()
	<-m.done
}

// do runs fn on the writer goroutine and waits for it. A no-op once the
// manager is stopped.
func (m *Manager) do(fn func()) {
	m.mu.RLock()
	if m.stopped {
		m.mu.RUnlock()
		return
	}
	doneCh := make(chan struct{})
	m.commands <- func() {
		fn()
		close(doneCh)
	}
	m.mu.RUnlock()
	<-doneCh
}

// republish recomputes the active path projection and emits it
func (m *Manager) republish() {
	path := conversation.Resolve(m.session.Pool, m.session.Selected)
	state := conversation.ProjectActivePath(path, m.emitter.Current())
	m.emitter.Emit(state)
}

// InsertUser appends a user turn
func (m *Manager) InsertUser(content string, images []string) *conversation.Message {
	var msg *conversation.Message
	m.do(func() {
		msg = m.session.Insert(conversation.NewUserMessage(content).WithImages(images))
		m.republish()
	})
	return msg
}

// Insert appends an arbitrary prepared message version
func (m *Manager) Insert(msg *conversation.Message) *conversation.Message {
	m.do(func() {
		m.session.Insert(msg)
		m.republish()
	})
	return msg
}

// BeginAssistant starts a new in-flight assistant message and returns the
// stream id subsequent events belong to. The message is transient until
// AssignID; a previously selected sibling of the same turn stays
// authoritative until then.
func (m *Manager) BeginAssistant(agent string) string {
	id := uuid.New().String()
	m.do(func() {
		m.session.Insert(conversation.NewAssistantMessage(agent))
		m.session.Pin(0)
		m.machine = trace.NewMachine()
		m.streamID = id
		m.republish()
	})
	return id
}

// AssignID persists the in-flight message under a storage-assigned id
func (m *Manager) AssignID(id int64) error {
	var err error
	m.do(func() {
		err = m.session.AssignID(id)
		m.republish()
	})
	return err
}

// Apply routes one validated streaming event into the session. Events after
// finalization and events illegal for the current phase are logged and
// dropped; the session is never corrupted by a misbehaving stream.
func (m *Manager) Apply(ev Event) {
	m.do(func() {
		m.applyLocked(ev)
	})
}

func (m *Manager) applyLocked(ev Event) {
	if m.machine.Finalized() {
		logger.Warn("stream event %q dropped: message already finalized", ev.Type)
		return
	}

	switch ev.Type {
	case EventAgentSelect:
		if err := m.machine.Apply(trace.KindAgentSelect); err != nil {
			logger.Warn("agent_select dropped: %v", err)
			return
		}
		step := trace.NewAgentSelectStep(ev.Name)
		m.session.ApplyPatch(0, conversation.StepPatch{AddStep: &step})

	case EventToolStart:
		if err := m.machine.Apply(trace.KindToolStart); err != nil {
			logger.Warn("tool_start dropped: %v", err)
			return
		}
		step := trace.NewToolStartStep(ev.Name)
		step.Streaming = true
		m.session.ApplyPatch(0, conversation.StepPatch{AddStep: &step})

	case EventToolEndDelta:
		// The running tool step morphs into the result step on the first
		// delta; later deltas grow (or replace) its content in place. A
		// delta with no tool running or finished is illegal: applying it
		// would morph whatever step happens to be trailing.
		switch m.machine.Phase() {
		case trace.PhaseToolRunning:
			if err := m.machine.Apply(trace.KindToolEnd); err != nil {
				logger.Warn("tool_end_delta dropped: %v", err)
				return
			}
		case trace.PhaseToolDone:
		default:
			logger.Warn("tool_end_delta dropped: no tool result in phase %s", m.machine.Phase())
			return
		}
		kind := trace.KindToolEnd
		streaming := true
		m.session.ApplyPatch(0, conversation.StepPatch{
			Content:   &ev.Text,
			Append:    ev.Append,
			Kind:      &kind,
			Streaming: &streaming,
		})

	case EventStatus:
		patch := conversation.StepPatch{Status: &ev.Status}
		if ev.Status == trace.StatusDone {
			streaming := false
			patch.Streaming = &streaming
		}
		m.session.ApplyPatch(0, patch)

	case EventError:
		if err := m.machine.Fail(); err != nil {
			logger.Warn("error event dropped: %v", err)
			return
		}
		m.session.ApplyPatch(0, conversation.StepPatch{Error: &ev.Message})
		m.sendNotification(canvas.Notification{Message: ev.Message, IsError: true})
	}

	m.republish()
}

// ApplyRaw decodes one transport payload and applies it. Malformed events
// are rejected at this boundary and reported, nothing reaches the store.
func (m *Manager) ApplyRaw(data []byte) error {
	ev, err := DecodeEvent(data)
	if err != nil {
		logger.Warn("rejected stream payload: %v", err)
		return err
	}
	m.Apply(ev)
	return nil
}

// Finalize ends the in-flight message. Terminal: later patches are dropped.
func (m *Manager) Finalize() {
	m.do(func() {
		if err := m.machine.Finalize(); err != nil {
			logger.Warn("finalize dropped: %v", err)
			return
		}
		streaming := false
		m.session.ApplyPatch(0, conversation.StepPatch{Streaming: &streaming})
		m.streamID = ""
		m.republish()
	})
}

// SelectVersion switches the active sibling of a turn and re-projects. It
// only touches selection, so an in-flight stream for a different message
// keeps appending undisturbed.
func (m *Manager) SelectVersion(turn int, id int64) error {
	var err error
	m.do(func() {
		if err = m.session.SelectVersion(turn, id); err != nil {
			return
		}
		state := conversation.ProjectMessage(id, m.session.Pool, m.session.Selected, m.emitter.Current())
		m.emitter.Emit(state)
	})
	return err
}

// SwitchToMessage re-projects the canvas onto an explicit message without
// changing which turn is the tail of the active path. The message is also
// pinned, so step patches follow the explicit switch.
func (m *Manager) SwitchToMessage(id int64) {
	m.do(func() {
		m.session.Pin(id)
		m.session.ActiveID = id
		state := conversation.ProjectMessage(id, m.session.Pool, m.session.Selected, m.emitter.Current())
		m.emitter.Emit(state)
	})
}

// ShowStepResult jumps the canvas to one historical (agent, result) pair of
// a message's trace, as produced by trace.PairAgentResults.
func (m *Manager) ShowStepResult(messageID int64, result trace.AgentResult, agent string) {
	m.do(func() {
		current := m.emitter.Current()
		state := conversation.RenderState{
			Code:     result.Result,
			Kind:     current.Kind,
			ActiveID: messageID,
		}
		if agent != "" {
			state.Kind = agent
		}
		m.emitter.Emit(state)
	})
}

// Regenerate inserts a fresh assistant sibling at a turn and makes it the
// in-flight message. Never an in-place retry.
func (m *Manager) Regenerate(turn int, agent string) string {
	id := uuid.New().String()
	m.do(func() {
		m.session.Regenerate(turn, agent)
		m.session.Pin(0)
		m.machine = trace.NewMachine()
		m.streamID = id
		m.republish()
	})
	return id
}

// Path returns the current active path (a copy of the slice)
func (m *Manager) Path() []*conversation.Message {
	var path []*conversation.Message
	m.do(func() {
		path = conversation.Resolve(m.session.Pool, m.session.Selected)
	})
	return path
}

// Session exposes the underlying session for read-only callers
func (m *Manager) Session() *conversation.Session {
	return m.session
}

// StreamID returns the id of the in-flight generation, or empty when idle
func (m *Manager) StreamID() string {
	var id string
	m.do(func() { id = m.streamID })
	return id
}

func (m *Manager) sendNotification(n canvas.Notification) {
	if m.notify != nil {
		m.notify(n)
	}
}

// ReportSuccess implements canvas.Reporter. Nothing to record.
func (m *Manager) ReportSuccess() {}

// ReportError implements canvas.Reporter: the failure is annotated onto the
// active message's content and surfaced as a notification. The annotation
// is enqueued without waiting because adapters report from inside an Emit,
// which already runs on the writer goroutine.
func (m *Manager) ReportError(message string) {
	m.mu.RLock()
	if !m.stopped {
		m.commands <- func() {
			m.session.AnnotateActive("\n\n[Error: " + message + "]")
		}
	}
	m.mu.RUnlock()
	m.sendNotification(canvas.Notification{Message: message, IsError: true})
}
