package conversation_test

import (
	"github.com/inkwell-ai/inkwell/pkg/conversation"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Resolve", func() {
	var session *conversation.Session

	BeforeEach(func() {
		session = conversation.NewSession()
		session.Insert(conversation.NewUserMessage("draw X").WithID(1))
		session.Insert(conversation.NewAssistantMessage("flowchart").WithID(2))
		session.Insert(conversation.NewAssistantMessage("flowchart").WithID(3).WithTurn(1))
	})

	It("should return one message per turn in ascending turn order", func() {
		path := conversation.Resolve(session.Pool, session.Selected)

		Expect(path).To(HaveLen(2))
		Expect(path[0].ID).To(Equal(int64(1)))
		Expect(path[1].ID).To(Equal(int64(3)))
	})

	It("should be deterministic across repeated calls", func() {
		first := conversation.Resolve(session.Pool, session.Selected)
		second := conversation.Resolve(session.Pool, session.Selected)

		Expect(second).To(HaveLen(len(first)))
		for i := range first {
			Expect(second[i]).To(BeIdenticalTo(first[i]))
		}
	})

	It("should follow the selection map", func() {
		Expect(session.SelectVersion(1, 2)).To(Succeed())

		path := conversation.Resolve(session.Pool, session.Selected)
		Expect(path[1].ID).To(Equal(int64(2)))
	})

	It("should fall back to the last-inserted sibling on a dangling selection", func() {
		session.Selected[1] = 999

		path := conversation.Resolve(session.Pool, session.Selected)
		Expect(path[1].ID).To(Equal(int64(3)))
	})

	It("should handle non-contiguous turns", func() {
		session.Insert(conversation.NewUserMessage("later").WithID(7).WithTurn(5))

		path := conversation.Resolve(session.Pool, session.Selected)
		Expect(path).To(HaveLen(3))
		Expect(path[2].Turn).To(Equal(5))
	})

	It("should return nil for an empty pool", func() {
		Expect(conversation.Resolve(nil, nil)).To(BeNil())
	})
})
