package git_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/winter/pkg/git"
)

var _ = Describe("ProjectName", func() {
	It("falls back to the directory name outside a repository", func() {
		dir := filepath.Join(GinkgoT().TempDir(), "notes-project")
		Expect(os.Mkdir(dir, 0o755)).To(Succeed())

		Expect(git.ProjectName(context.Background(), dir)).To(Equal("notes-project"))
	})

	It("returns a non-empty name for the working directory", func() {
		Expect(git.ProjectName(context.Background(), ".")).NotTo(BeEmpty())
	})
})
