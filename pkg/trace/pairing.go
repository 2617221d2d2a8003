package trace

// AgentResult pairs an agent selection with the tool result it produced.
// Consumers use it to jump the canvas back to a specific historical result.
type AgentResult struct {
	Agent       string
	AgentIndex  int
	Result      string
	ResultIndex int // -1 when the agent produced no result
}

// PairAgentResults scans one message's steps and associates each
// agent_select with the first following tool_end carrying non-empty content
// before the next agent_select. Zero or many tool_ends between two markers
// are tolerated.
func PairAgentResults(steps []Step) []AgentResult {
	var results []AgentResult

	for i, step := range steps {
		if !step.IsAgentSelect() {
			continue
		}

		pair := AgentResult{
			Agent:       step.Name,
			AgentIndex:  i,
			ResultIndex: -1,
		}

		for j := i + 1; j < len(steps); j++ {
			if steps[j].IsAgentSelect() {
				break
			}
			if steps[j].IsToolEnd() && steps[j].HasContent() {
				pair.Result = steps[j].Content
				pair.ResultIndex = j
				break
			}
		}

		results = append(results, pair)
	}

	return results
}
