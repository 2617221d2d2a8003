package conversation

// RenderState is the derived pair the canvas displays: the diagram source
// text and the renderer that should parse it. Never stored, always
// recomputed from the pool and selection.
type RenderState struct {
	Code     string
	Kind     string
	ActiveID int64
}

// lastToolEndContent scans a message's steps from the end backward for the
// first tool result carrying non-empty content. One assistant turn may run
// several tool calls; only the final tool's output is the current diagram.
func lastToolEndContent(m *Message) (string, bool) {
	for i := len(m.Steps) - 1; i >= 0; i-- {
		if m.Steps[i].IsToolEnd() && m.Steps[i].HasContent() {
			return m.Steps[i].Content, true
		}
	}
	return "", false
}

// ProjectActivePath derives the render state from an active path: walk the
// path from the latest turn backward and take the first assistant message
// whose trace holds a tool result. The renderer kind comes from that
// message, or the nearest earlier assistant message that declares one. If
// no tool result exists anywhere, Code is empty and the previous kind is
// kept so the canvas does not flip renderers on an empty update.
func ProjectActivePath(path []*Message, prev RenderState) RenderState {
	state := RenderState{Kind: prev.Kind, ActiveID: prev.ActiveID}

	codeAt := -1
	for i := len(path) - 1; i >= 0; i-- {
		m := path[i]
		if !m.IsAssistant() {
			continue
		}
		if code, ok := lastToolEndContent(m); ok {
			state.Code = code
			state.ActiveID = m.ID
			codeAt = i
			break
		}
	}

	if codeAt == -1 {
		return state
	}

	for i := codeAt; i >= 0; i-- {
		if path[i].IsAssistant() && path[i].Agent != "" {
			state.Kind = path[i].Agent
			break
		}
	}

	return state
}

// ProjectMessage derives the render state rooted at an explicitly chosen
// message: its own turn uses the explicit id, earlier turns follow the
// selection map downward. This supports switching the canvas to a past
// version of a turn without making that turn the tail of the active path.
func ProjectMessage(targetID int64, pool []*Message, selected map[int]int64, prev RenderState) RenderState {
	state := RenderState{Kind: prev.Kind, ActiveID: targetID}

	var target *Message
	for _, m := range pool {
		if m.ID == targetID && targetID != 0 {
			target = m
			break
		}
	}
	if target == nil {
		return prev
	}

	for turn := target.Turn; turn >= 0; turn-- {
		id := selected[turn]
		if turn == target.Turn {
			id = targetID
		}
		if id == 0 {
			continue
		}

		var m *Message
		for _, candidate := range pool {
			if candidate.ID == id {
				m = candidate
				break
			}
		}
		if m == nil || !m.IsAssistant() {
			continue
		}

		if code, ok := lastToolEndContent(m); ok {
			state.Code = code
			if m.Agent != "" {
				state.Kind = m.Agent
			}
			return state
		}
	}

	return state
}
