package conversation_test

import (
	"github.com/inkwell-ai/inkwell/pkg/conversation"
	"github.com/inkwell-ai/inkwell/pkg/trace"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Session", func() {
	var session *conversation.Session

	BeforeEach(func() {
		session = conversation.NewSession()
	})

	Describe("Insert", func() {
		It("should auto-assign turns in insertion order", func() {
			a := session.Insert(conversation.NewUserMessage("draw a mindmap").WithID(1))
			b := session.Insert(conversation.NewAssistantMessage("mindmap").WithID(2))
			c := session.Insert(conversation.NewUserMessage("now a chart").WithID(3))

			Expect(a.Turn).To(Equal(0))
			Expect(b.Turn).To(Equal(1))
			Expect(c.Turn).To(Equal(2))
		})

		It("should make an explicit-turn insert a sibling and the default selection", func() {
			session.Insert(conversation.NewUserMessage("draw X").WithID(1))
			session.Insert(conversation.NewAssistantMessage("flowchart").WithID(2))
			session.Insert(conversation.NewUserMessage("tweak it").WithID(3))

			sibling := session.Insert(conversation.NewAssistantMessage("flowchart").WithID(4).WithTurn(1))

			Expect(sibling.Turn).To(Equal(1))
			Expect(session.SiblingsAt(1)).To(HaveLen(2))
			Expect(session.Selected[1]).To(Equal(int64(4)))
		})

		It("should keep the existing selection when inserting a transient sibling", func() {
			session.Insert(conversation.NewUserMessage("draw X").WithID(1))
			session.Insert(conversation.NewAssistantMessage("charts").WithID(2))

			session.Insert(conversation.NewAssistantMessage("charts").WithTurn(1))

			Expect(session.Selected[1]).To(Equal(int64(2)))
		})

		It("should assign timestamps to messages that lack one", func() {
			m := session.Insert(conversation.NewUserMessage("hello"))
			Expect(m.CreatedAt.IsZero()).To(BeFalse())
		})

		It("should auto-assign past the highest turn after a regeneration", func() {
			session.Insert(conversation.NewUserMessage("draw X").WithID(1))
			session.Insert(conversation.NewAssistantMessage("flowchart").WithID(2))
			session.Insert(conversation.NewUserMessage("tweak it").WithID(3))
			session.Insert(conversation.NewAssistantMessage("flowchart").WithID(4))

			regen := session.Regenerate(1, "flowchart")
			Expect(regen.Turn).To(Equal(1))

			next := session.Insert(conversation.NewUserMessage("one more change"))
			Expect(next.Turn).To(Equal(4))
		})
	})

	Describe("AssignID", func() {
		It("should persist the transient message and take over its turn selection", func() {
			session.Insert(conversation.NewUserMessage("draw X").WithID(1))
			session.Insert(conversation.NewAssistantMessage("charts").WithID(2))
			session.Insert(conversation.NewAssistantMessage("charts").WithTurn(1))

			Expect(session.AssignID(9)).To(Succeed())
			Expect(session.Selected[1]).To(Equal(int64(9)))

			m, found := session.Find(9)
			Expect(found).To(BeTrue())
			Expect(m.Turn).To(Equal(1))
		})

		It("should fail when no transient message exists", func() {
			session.Insert(conversation.NewUserMessage("hello").WithID(1))
			Expect(session.AssignID(2)).To(MatchError(conversation.ErrNotFound))
		})
	})

	Describe("SelectVersion", func() {
		BeforeEach(func() {
			session.Insert(conversation.NewUserMessage("draw X").WithID(1))
			session.Insert(conversation.NewAssistantMessage("flowchart").WithID(2))
			session.Insert(conversation.NewAssistantMessage("flowchart").WithID(3).WithTurn(1))
		})

		It("should switch selection without touching the pool", func() {
			Expect(session.SelectVersion(1, 2)).To(Succeed())
			Expect(session.Selected[1]).To(Equal(int64(2)))
			Expect(session.Pool).To(HaveLen(3))
		})

		It("should keep both siblings retrievable across switches", func() {
			Expect(session.SelectVersion(1, 2)).To(Succeed())
			Expect(session.SelectVersion(1, 3)).To(Succeed())

			a, foundA := session.Find(2)
			b, foundB := session.Find(3)
			Expect(foundA).To(BeTrue())
			Expect(foundB).To(BeTrue())
			Expect(a.Agent).To(Equal("flowchart"))
			Expect(b.Agent).To(Equal("flowchart"))
		})

		It("should return ErrNotFound for an id at the wrong turn", func() {
			err := session.SelectVersion(0, 2)
			Expect(err).To(MatchError(conversation.ErrNotFound))
		})

		It("should return ErrNotFound for an unknown id", func() {
			err := session.SelectVersion(1, 42)
			Expect(err).To(MatchError(conversation.ErrNotFound))
		})
	})

	Describe("ApplyPatch", func() {
		var assistant *conversation.Message

		BeforeEach(func() {
			session.Insert(conversation.NewUserMessage("draw X").WithID(1))
			assistant = session.Insert(conversation.NewAssistantMessage("flowchart").WithID(2))
		})

		It("should append a fresh step via AddStep", func() {
			step := trace.NewAgentSelectStep("flowchart")
			session.ApplyPatch(0, conversation.StepPatch{AddStep: &step})

			Expect(assistant.Steps).To(HaveLen(1))
			Expect(assistant.Steps[0].Kind).To(Equal(trace.KindAgentSelect))
		})

		It("should accumulate appended deltas and honor full replaces", func() {
			step := trace.NewToolEndStep("")
			session.ApplyPatch(0, conversation.StepPatch{AddStep: &step})

			ab, cd, xyz := "ab", "cd", "xyz"
			session.ApplyPatch(0, conversation.StepPatch{Content: &ab, Append: true})
			session.ApplyPatch(0, conversation.StepPatch{Content: &cd, Append: true})
			Expect(assistant.LastStep().Content).To(Equal("abcd"))

			session.ApplyPatch(0, conversation.StepPatch{Content: &xyz, Append: false})
			Expect(assistant.LastStep().Content).To(Equal("xyz"))
		})

		It("should drop content patches on a message without steps", func() {
			text := "orphan"
			session.ApplyPatch(0, conversation.StepPatch{Content: &text, Append: true})
			Expect(assistant.Steps).To(BeEmpty())
		})

		It("should drop patches targeting a user message", func() {
			text := "nope"
			session.ApplyPatch(1, conversation.StepPatch{Content: &text, Append: true})

			user, _ := session.Find(1)
			Expect(user.Steps).To(BeEmpty())
		})

		It("should route patches to the transient even when the display points elsewhere", func() {
			session.ActiveID = 2

			transient := session.Insert(conversation.NewAssistantMessage("flowchart").WithTurn(1))
			step := trace.NewToolEndStep("")
			session.ApplyPatch(0, conversation.StepPatch{AddStep: &step})

			delta := "<v2>"
			session.ApplyPatch(0, conversation.StepPatch{Content: &delta, Append: true})

			Expect(transient.LastStep().Content).To(Equal("<v2>"))
			Expect(assistant.Steps).To(BeEmpty())
		})

		It("should prefer the transient over a later persisted message", func() {
			step := trace.NewToolEndStep("")
			transient := session.Insert(conversation.NewAssistantMessage("flowchart").WithTurn(1))
			session.Insert(conversation.NewUserMessage("later turn").WithID(3))

			session.ApplyPatch(0, conversation.StepPatch{AddStep: &step})
			Expect(transient.Steps).To(HaveLen(1))
		})

		It("should honor an explicit pin over the most recent message", func() {
			step := trace.NewToolEndStep("pinned")
			session.ApplyPatch(0, conversation.StepPatch{AddStep: &step})

			session.Insert(conversation.NewUserMessage("later turn").WithID(3))
			session.Pin(2)

			delta := "!"
			session.ApplyPatch(0, conversation.StepPatch{Content: &delta, Append: true})
			Expect(assistant.LastStep().Content).To(Equal("pinned!"))
		})

		It("should mark the last step as errored", func() {
			step := trace.NewToolStartStep("gen")
			session.ApplyPatch(0, conversation.StepPatch{AddStep: &step})

			msg := "render exploded"
			session.ApplyPatch(0, conversation.StepPatch{Error: &msg})

			Expect(assistant.LastStep().Status).To(Equal(trace.StatusError))
			Expect(assistant.LastStep().Error).To(Equal("render exploded"))
		})
	})

	Describe("Regenerate", func() {
		It("should insert a new sibling instead of retrying in place", func() {
			session.Insert(conversation.NewUserMessage("draw X").WithID(1))
			session.Insert(conversation.NewAssistantMessage("charts").WithID(2))

			fresh := session.Regenerate(1, "charts")

			Expect(fresh.Turn).To(Equal(1))
			Expect(fresh.IsTransient()).To(BeTrue())
			Expect(fresh.ParentID).To(Equal(int64(2)))
			Expect(session.SiblingsAt(1)).To(HaveLen(2))
		})
	})

	Describe("AnnotateActive", func() {
		It("should append the note to the active path's last message", func() {
			session.Insert(conversation.NewUserMessage("draw X").WithID(1))
			m := session.Insert(conversation.NewAssistantMessage("charts").WithID(2))
			m.Content = "Here is your chart."

			session.AnnotateActive("\n\n[Error: bad options]")
			Expect(m.Content).To(Equal("Here is your chart.\n\n[Error: bad options]"))
		})
	})
})
