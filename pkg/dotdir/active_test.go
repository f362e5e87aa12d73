package dotdir_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/winter/pkg/dotdir"
)

var _ = Describe("dotdir.Manager active state", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-active-*")
		Expect(err).NotTo(HaveOccurred())
		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns nil when no active file exists", func() {
		state, err := m.LoadActive(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(state).To(BeNil())
	})

	It("round trips a saved pointer", func() {
		now := time.Now().UTC().Truncate(time.Second)
		Expect(m.SaveActive(&dotdir.ActiveState{
			ConversationID: "conv-1",
			Title:          "hello there",
			UpdatedAt:      now,
		}, tmpDir)).To(Succeed())

		state, err := m.LoadActive(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(state).NotTo(BeNil())
		Expect(state.ConversationID).To(Equal("conv-1"))
		Expect(state.Title).To(Equal("hello there"))
		Expect(state.UpdatedAt.Equal(now)).To(BeTrue())
	})

	It("returns error for invalid JSON", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "active.json"), []byte("not json"), 0o600)).To(Succeed())

		state, err := m.LoadActive(tmpDir)
		Expect(err).To(HaveOccurred())
		Expect(state).To(BeNil())
	})

	It("treats an empty conversation id as no pointer", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "active.json"), []byte(`{"conversation_id":""}`), 0o600)).To(Succeed())

		state, err := m.LoadActive(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(state).To(BeNil())
	})

	It("rejects a nil state", func() {
		Expect(m.SaveActive(nil, tmpDir)).To(HaveOccurred())
	})

	It("clears the pointer and tolerates a missing file", func() {
		Expect(m.SaveActive(&dotdir.ActiveState{ConversationID: "conv-2"}, tmpDir)).To(Succeed())
		Expect(m.ClearActive(tmpDir)).To(Succeed())
		Expect(m.ClearActive(tmpDir)).To(Succeed())

		state, err := m.LoadActive(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(state).To(BeNil())
	})
})
