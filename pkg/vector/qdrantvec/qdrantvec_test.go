package qdrantvec_test

import (
	"os"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/winter/pkg/logger"
	"github.com/papercomputeco/winter/pkg/vector"
	"github.com/papercomputeco/winter/pkg/vector/qdrantvec"
)

var _ = Describe("Driver", func() {
	Describe("NewDriver", func() {
		It("requires a host", func(ctx SpecContext) {
			_, err := qdrantvec.NewDriver(ctx, qdrantvec.Config{Dimensions: 4}, logger.Nop())
			Expect(err).To(MatchError(ContainSubstring("host is required")))
		})

		It("requires dimensions", func(ctx SpecContext) {
			_, err := qdrantvec.NewDriver(ctx, qdrantvec.Config{Host: "localhost"}, logger.Nop())
			Expect(err).To(MatchError(ContainSubstring("dimensions are required")))
		})
	})

	Describe("against a running qdrant", Ordered, func() {
		var driver *qdrantvec.Driver

		BeforeAll(func(ctx SpecContext) {
			host := os.Getenv("WINTER_TEST_QDRANT_HOST")
			if host == "" {
				Skip("WINTER_TEST_QDRANT_HOST not set")
			}

			var err error
			driver, err = qdrantvec.NewDriver(ctx, qdrantvec.Config{
				Host:           host,
				CollectionName: "winter_test_" + uuid.NewString()[:8],
				Dimensions:     4,
			}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
		})

		AfterAll(func() {
			if driver != nil {
				Expect(driver.Close()).To(Succeed())
			}
		})

		It("scopes queries to one conversation", func(ctx SpecContext) {
			Expect(driver.Add(ctx, []vector.Document{
				{ID: vector.DocumentID("a", 0), ConversationID: "a", TurnNumber: 0, Embedding: []float32{1, 0, 0, 0}},
				{ID: vector.DocumentID("a", 1), ConversationID: "a", TurnNumber: 1, Embedding: []float32{0, 1, 0, 0}},
				{ID: vector.DocumentID("b", 0), ConversationID: "b", TurnNumber: 0, Embedding: []float32{1, 0, 0, 0}},
			})).To(Succeed())

			results, err := driver.Query(ctx, vector.Query{
				Embedding:      []float32{1, 0, 0, 0},
				ConversationID: "a",
				TopK:           5,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].TurnNumber).To(Equal(0))
			Expect(results[0].ConversationID).To(Equal("a"))
		})

		It("deletes points", func(ctx SpecContext) {
			Expect(driver.Delete(ctx, []string{vector.DocumentID("a", 1)})).To(Succeed())

			results, err := driver.Query(ctx, vector.Query{
				Embedding:      []float32{0, 1, 0, 0},
				ConversationID: "a",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
		})

		It("rejects embeddings of the wrong size", func(ctx SpecContext) {
			err := driver.Add(ctx, []vector.Document{{ID: vector.DocumentID("a", 9), ConversationID: "a", Embedding: []float32{1}}})
			Expect(err).To(MatchError(vector.ErrDimensions))
		})
	})

	It("implements vector.VectorDriver", func() {
		var _ vector.VectorDriver = (*qdrantvec.Driver)(nil)
	})
})
