package formatter_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/winter/pkg/memory"
	"github.com/papercomputeco/winter/pkg/memory/formatter"
	"github.com/papercomputeco/winter/pkg/memory/router"
)

var _ = Describe("Format", func() {
	It("renders a user fact with provenance", func() {
		m := router.Match{
			Key:  router.KeyUserName,
			Fact: memory.Fact{Key: "USER_NAME", Value: "Alex", Ordinal: 1, Namespace: memory.NamespaceUser},
		}
		Expect(formatter.Format(m)).To(Equal("Your name is Alex. [FROM: memory.txt vessel 1: USER_NAME]"))
	})

	It("renders a system fact without provenance", func() {
		m := router.Match{
			Key:  router.KeyAIEmbedding,
			Fact: memory.Fact{Key: "AI_EMBEDDING", Value: "nomic-embed-text", Ordinal: 4, Namespace: memory.NamespaceSystem},
		}
		Expect(formatter.Format(m)).To(Equal("I use nomic-embed-text for embeddings."))
	})

	DescribeTable("uses the key template",
		func(key, expected string) {
			m := router.Match{Key: key, Fact: memory.Fact{Key: key, Value: "X", Namespace: memory.NamespaceSystem}}
			Expect(formatter.Format(m)).To(Equal(expected))
		},
		Entry("project", router.KeyProject, "You're working on X."),
		Entry("gpu", router.KeyGPU, "You have a X."),
		Entry("location", router.KeyLocation, "You're in X."),
		Entry("ai name", router.KeyAIName, "I'm X."),
		Entry("ai model", router.KeyAIModel, "I'm running X."),
		Entry("ai purpose", router.KeyAIPurpose, "I'm X."),
		Entry("ai storage", router.KeyAIStorage, "I use X."),
	)

	It("falls back to the bare value for unknown keys", func() {
		m := router.Match{
			Key:  "FAVORITE_COLOR",
			Fact: memory.Fact{Key: "FAVORITE_COLOR", Value: "teal", Ordinal: 9, Namespace: memory.NamespaceUser},
		}
		Expect(formatter.Format(m)).To(Equal("teal [FROM: memory.txt vessel 9: FAVORITE_COLOR]"))
	})
})
