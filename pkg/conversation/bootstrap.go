package conversation

// Bootstrap reconstructs a session from a flat persisted history. Records
// arrive in storage order; the initial selection for every turn is its last
// sibling in that order. When the separately persisted code is empty the
// render state falls back to the backward scan over the resolved path.
//
// Bootstrap builds fresh state and touches nothing else: a failed load
// upstream simply never reaches it, leaving any prior session intact.
func Bootstrap(records []*Message, persistedCode, defaultKind string) (*Session, RenderState) {
	s := NewSession()
	for _, m := range records {
		s.Insert(m)
	}

	path := Resolve(s.Pool, s.Selected)
	if len(path) > 0 {
		s.ActiveID = path[len(path)-1].ID
	}

	state := RenderState{
		Code:     persistedCode,
		Kind:     defaultKind,
		ActiveID: s.ActiveID,
	}

	if state.Code == "" {
		scanned := ProjectActivePath(path, RenderState{Kind: defaultKind})
		state.Code = scanned.Code
	}

	// The displayed renderer follows the nearest assistant message that
	// declares one, independent of where the code came from.
	for i := len(path) - 1; i >= 0; i-- {
		if path[i].IsAssistant() && path[i].Agent != "" {
			state.Kind = path[i].Agent
			break
		}
	}

	return s, state
}
