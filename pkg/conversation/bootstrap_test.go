package conversation_test

import (
	"github.com/inkwell-ai/inkwell/pkg/conversation"
	"github.com/inkwell-ai/inkwell/pkg/trace"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Bootstrap", func() {
	var records []*conversation.Message

	BeforeEach(func() {
		records = []*conversation.Message{
			conversation.NewUserMessage("draw X").WithID(1).WithTurn(0),
			assistantWithSteps(2, 1, "flowchart", trace.NewToolEndStep("<flowchart A>")),
			assistantWithSteps(3, 1, "flowchart", trace.NewToolEndStep("<flowchart B>")),
		}
	})

	It("should select the last sibling of every turn", func() {
		session, _ := conversation.Bootstrap(records, "", "mindmap")

		Expect(session.Selected[0]).To(Equal(int64(1)))
		Expect(session.Selected[1]).To(Equal(int64(3)))
		Expect(session.ActiveID).To(Equal(int64(3)))
	})

	It("should prefer the separately persisted code when present", func() {
		_, state := conversation.Bootstrap(records, "<persisted>", "mindmap")

		Expect(state.Code).To(Equal("<persisted>"))
		Expect(state.Kind).To(Equal("flowchart"))
	})

	It("should fall back to the backward scan when persisted code is empty", func() {
		_, state := conversation.Bootstrap(records, "", "mindmap")

		Expect(state.Code).To(Equal("<flowchart B>"))
		Expect(state.Kind).To(Equal("flowchart"))
	})

	It("should keep the default kind when no assistant declares a renderer", func() {
		session, state := conversation.Bootstrap([]*conversation.Message{
			conversation.NewUserMessage("hello").WithID(1).WithTurn(0),
		}, "", "mindmap")

		Expect(state.Kind).To(Equal("mindmap"))
		Expect(state.Code).To(Equal(""))
		Expect(session.Pool).To(HaveLen(1))
	})
})
