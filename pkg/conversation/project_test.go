package conversation_test

import (
	"github.com/inkwell-ai/inkwell/pkg/conversation"
	"github.com/inkwell-ai/inkwell/pkg/trace"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func assistantWithSteps(id int64, turn int, agent string, steps ...trace.Step) *conversation.Message {
	m := conversation.NewAssistantMessage(agent).WithID(id).WithTurn(turn)
	m.Steps = steps
	return m
}

var _ = Describe("ProjectActivePath", func() {
	It("should pick the last non-empty tool result of the latest assistant message", func() {
		m := assistantWithSteps(2, 1, "flowchart",
			trace.NewAgentSelectStep("flow"),
			trace.NewToolStartStep("gen"),
			trace.NewToolEndStep(""),
			trace.NewToolEndStep("code-A"),
			trace.NewAgentSelectStep("flow"),
			trace.NewToolEndStep("code-B"),
		)
		path := []*conversation.Message{
			conversation.NewUserMessage("draw").WithID(1).WithTurn(0),
			m,
		}

		state := conversation.ProjectActivePath(path, conversation.RenderState{})
		Expect(state.Code).To(Equal("code-B"))
		Expect(state.Kind).To(Equal("flowchart"))
		Expect(state.ActiveID).To(Equal(int64(2)))
	})

	It("should walk past assistant messages without tool results", func() {
		withCode := assistantWithSteps(2, 1, "charts", trace.NewToolEndStep(`{"series":[]}`))
		chatty := assistantWithSteps(4, 3, "", trace.NewAgentSelectStep("general"))

		path := []*conversation.Message{
			conversation.NewUserMessage("draw").WithID(1).WithTurn(0),
			withCode,
			conversation.NewUserMessage("thanks").WithID(3).WithTurn(2),
			chatty,
		}

		state := conversation.ProjectActivePath(path, conversation.RenderState{})
		Expect(state.Code).To(Equal(`{"series":[]}`))
		Expect(state.Kind).To(Equal("charts"))
	})

	It("should inherit the renderer kind from an earlier assistant message", func() {
		declares := assistantWithSteps(2, 1, "mindmap")
		codeOnly := assistantWithSteps(4, 3, "", trace.NewToolEndStep("# outline"))

		path := []*conversation.Message{declares, codeOnly}

		state := conversation.ProjectActivePath(path, conversation.RenderState{})
		Expect(state.Code).To(Equal("# outline"))
		Expect(state.Kind).To(Equal("mindmap"))
	})

	It("should keep the previous kind and emit empty code when no result exists", func() {
		path := []*conversation.Message{
			conversation.NewUserMessage("hello").WithID(1).WithTurn(0),
			assistantWithSteps(2, 1, ""),
		}

		prev := conversation.RenderState{Kind: "charts", Code: "old"}
		state := conversation.ProjectActivePath(path, prev)

		Expect(state.Code).To(Equal(""))
		Expect(state.Kind).To(Equal("charts"))
	})
})

var _ = Describe("ProjectMessage", func() {
	var session *conversation.Session

	BeforeEach(func() {
		session = conversation.NewSession()
		session.Insert(conversation.NewUserMessage("draw X").WithID(1))
		session.Insert(assistantWithSteps(2, 1, "flowchart", trace.NewToolEndStep("<flowchart A>")))
		session.Insert(assistantWithSteps(3, 1, "flowchart", trace.NewToolEndStep("<flowchart B>")))
	})

	It("should project the explicitly chosen sibling", func() {
		state := conversation.ProjectMessage(2, session.Pool, session.Selected, conversation.RenderState{})
		Expect(state.Code).To(Equal("<flowchart A>"))
		Expect(state.Kind).To(Equal("flowchart"))
		Expect(state.ActiveID).To(Equal(int64(2)))
	})

	It("should walk earlier turns when the target has no tool result", func() {
		session.Insert(conversation.NewUserMessage("explain it").WithID(4))
		session.Insert(assistantWithSteps(5, 3, "", trace.NewAgentSelectStep("general")))

		state := conversation.ProjectMessage(5, session.Pool, session.Selected, conversation.RenderState{})
		Expect(state.Code).To(Equal("<flowchart B>"))
	})

	It("should return the previous state for an unknown target", func() {
		prev := conversation.RenderState{Kind: "charts", Code: "keep", ActiveID: 3}
		state := conversation.ProjectMessage(99, session.Pool, session.Selected, prev)
		Expect(state).To(Equal(prev))
	})
})

var _ = Describe("Version switch scenario", func() {
	It("should re-project after selecting a historical sibling", func() {
		session := conversation.NewSession()
		session.Insert(conversation.NewUserMessage("draw X").WithID(1))
		session.Insert(assistantWithSteps(2, 1, "flowchart", trace.NewToolEndStep("<flowchart A>")))
		session.Insert(assistantWithSteps(3, 1, "flowchart", trace.NewToolEndStep("<flowchart B>")))

		path := conversation.Resolve(session.Pool, session.Selected)
		state := conversation.ProjectActivePath(path, conversation.RenderState{})
		Expect(state.Code).To(Equal("<flowchart B>"))
		Expect(state.Kind).To(Equal("flowchart"))

		Expect(session.SelectVersion(1, 2)).To(Succeed())

		path = conversation.Resolve(session.Pool, session.Selected)
		state = conversation.ProjectActivePath(path, conversation.RenderState{})
		Expect(state.Code).To(Equal("<flowchart A>"))
		Expect(state.Kind).To(Equal("flowchart"))
	})
})
