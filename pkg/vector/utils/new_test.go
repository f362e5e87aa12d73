package vectorutils_test

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/winter/pkg/logger"
	vectorutils "github.com/papercomputeco/winter/pkg/vector/utils"
)

var _ = Describe("NewVectorDriver", func() {
	It("opens a sqlite driver at the target path", func(ctx SpecContext) {
		driver, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
			ProviderType: "sqlite",
			Target:       filepath.Join(GinkgoT().TempDir(), "vectors.db"),
			Dimensions:   4,
			Logger:       logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(driver.Close()).To(Succeed())
	})

	It("rejects unknown providers", func(ctx SpecContext) {
		_, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{ProviderType: "faiss"})
		Expect(err).To(MatchError(ContainSubstring("unsupported vector store provider: faiss")))
	})

	It("requires a chroma URL", func(ctx SpecContext) {
		_, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{ProviderType: "chroma"})
		Expect(err).To(HaveOccurred())
	})
})

var _ = DescribeTable("SplitHostPort",
	func(target, wantHost string, wantPort int) {
		host, port, err := vectorutils.SplitHostPort(target, 6334)
		Expect(err).NotTo(HaveOccurred())
		Expect(host).To(Equal(wantHost))
		Expect(port).To(Equal(wantPort))
	},
	Entry("host and port", "qdrant.local:7000", "qdrant.local", 7000),
	Entry("bare host", "localhost", "localhost", 6334),
)
