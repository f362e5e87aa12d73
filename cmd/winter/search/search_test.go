package searchcmder_test

import (
	"bytes"
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	searchcmder "github.com/papercomputeco/winter/cmd/winter/search"
	"github.com/papercomputeco/winter/pkg/app"
	"github.com/papercomputeco/winter/pkg/config"
	"github.com/papercomputeco/winter/pkg/dotdir"
	testutils "github.com/papercomputeco/winter/pkg/utils/test"
)

var _ = Describe("Search command", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	// seed stores one conversation and returns its ID.
	seed := func(inputs ...string) string {
		ctx := context.Background()
		cfg := config.NewDefaultConfig()
		cfg.Storage.Provider = "jsonl"
		config.ResolvePaths(cfg, dir)

		a, err := app.New(ctx, cfg, nil, app.WithGenerator(testutils.NewMockGenerator("noted")))
		Expect(err).NotTo(HaveOccurred())
		for _, in := range inputs {
			for range a.Orchestrator.Chat(ctx, in) {
			}
		}
		id := a.Orchestrator.ActiveConversation()
		Expect(a.Close()).To(Succeed())
		return id
	}

	run := func(args ...string) (string, error) {
		root := &cobra.Command{Use: "winter", SilenceUsage: true, SilenceErrors: true}
		root.PersistentFlags().Bool("debug", false, "")
		root.PersistentFlags().String("config-dir", "", "")
		root.AddCommand(searchcmder.NewSearchCmd())

		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&bytes.Buffer{})
		root.SetArgs(append([]string{"search", "--config-dir", dir, "--storage", "jsonl"}, args...))
		err := root.Execute()
		return out.String(), err
	}

	It("requires a query", func() {
		_, err := run()
		Expect(err).To(HaveOccurred())
	})

	It("fails without a conversation to search", func() {
		_, err := run("kafka")
		Expect(err).To(MatchError(ContainSubstring("no conversation to search")))
	})

	It("searches the named conversation", func() {
		id := seed("plan the kafka rollout", "review the postgres schema")

		out, err := run("kafka", "--conversation", id)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("plan the kafka rollout"))
		Expect(out).NotTo(ContainSubstring("postgres schema"))
	})

	It("falls back to the active conversation", func() {
		id := seed("plan the kafka rollout")
		Expect(dotdir.NewManager().SaveActive(&dotdir.ActiveState{
			ConversationID: id,
			UpdatedAt:      time.Now(),
		}, dir)).To(Succeed())

		out, err := run("rollout")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("plan the kafka rollout"))
	})

	It("reports when nothing matches", func() {
		id := seed("plan the kafka rollout")

		out, err := run("zebra", "-c", id)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("No results found."))
	})

	It("rejects a non-positive limit", func() {
		_, err := run("kafka", "--limit", "0", "-c", "abc")
		Expect(err).To(MatchError(ContainSubstring("invalid --limit")))
	})
})
