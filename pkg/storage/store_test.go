package storage_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/winter/pkg/storage"
	"github.com/papercomputeco/winter/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/winter/pkg/utils/test"
)

var _ = Describe("Store", func() {
	var (
		ctx     context.Context
		driver  *testutils.FailingDriver
		store   *storage.Store
		clock   time.Time
		advance func() time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		clock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		advance = func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}
		driver = testutils.NewFailingDriver(inmemory.NewDriver())
		store = storage.NewStore(driver,
			storage.WithBackend("memory"),
			storage.WithSessionID(7),
			storage.WithProject("default-project"),
			storage.WithClock(advance),
		)
	})

	Describe("SaveTurn", func() {
		It("creates a conversation on the first save", func() {
			Expect(store.Active()).To(BeEmpty())

			t, err := store.SaveTurn(ctx, "hello there", "hi", storage.Metadata{ElapsedSeconds: 1.5})
			Expect(err).NotTo(HaveOccurred())

			_, err = uuid.Parse(t.ConversationID)
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Active()).To(Equal(t.ConversationID))
			Expect(t.TurnNumber).To(Equal(0))
			Expect(t.Title).To(Equal("hello there"))
			Expect(t.SessionID).To(Equal(int64(7)))
			Expect(t.Project).To(Equal("default-project"))
			Expect(t.ElapsedSeconds).To(Equal(1.5))
			Expect(store.NextTurn()).To(Equal(1))
		})

		It("produces gapless turn numbers", func() {
			for i := range 4 {
				t, err := store.SaveTurn(ctx, "q", "a", storage.Metadata{})
				Expect(err).NotTo(HaveOccurred())
				Expect(t.TurnNumber).To(Equal(i))
			}

			turns := store.AllTurns(ctx)
			Expect(turns).To(HaveLen(4))
			for i, t := range turns {
				Expect(t.TurnNumber).To(Equal(i))
			}
		})

		It("prefers the project from metadata", func() {
			t, err := store.SaveTurn(ctx, "q", "a", storage.Metadata{Project: "other"})
			Expect(err).NotTo(HaveOccurred())
			Expect(t.Project).To(Equal("other"))
		})

		It("surfaces failures as storage errors and stays inactive", func() {
			driver.Set(&driver.FailAppend, true)

			_, err := store.SaveTurn(ctx, "q", "a", storage.Metadata{})
			Expect(err).To(MatchError(storage.ErrStorage))
			Expect(err).To(MatchError(testutils.ErrMockStorage))
			Expect(store.Active()).To(BeEmpty())
			Expect(store.ListAll(ctx)).To(BeEmpty())
		})
	})

	Describe("Load", func() {
		It("resumes numbering after the highest turn", func() {
			first, err := store.SaveTurn(ctx, "q", "a", storage.Metadata{})
			Expect(err).NotTo(HaveOccurred())
			_, err = store.SaveTurn(ctx, "q", "a", storage.Metadata{})
			Expect(err).NotTo(HaveOccurred())

			store.NewConversation()
			Expect(store.Active()).To(BeEmpty())

			Expect(store.Load(ctx, first.ConversationID)).To(Succeed())
			Expect(store.NextTurn()).To(Equal(2))

			t, err := store.SaveTurn(ctx, "q", "a", storage.Metadata{})
			Expect(err).NotTo(HaveOccurred())
			Expect(t.ConversationID).To(Equal(first.ConversationID))
			Expect(t.TurnNumber).To(Equal(2))
		})

		It("accepts a conversation without turns", func() {
			Expect(store.Load(ctx, "fresh")).To(Succeed())
			Expect(store.Active()).To(Equal("fresh"))
			Expect(store.NextTurn()).To(Equal(0))
		})

		It("rejects an empty id", func() {
			Expect(store.Load(ctx, " ")).To(MatchError(storage.ErrNoConversation))
		})

		It("surfaces driver failures", func() {
			driver.Set(&driver.FailTurns, true)
			Expect(store.Load(ctx, "x")).To(MatchError(storage.ErrStorage))
		})
	})

	Describe("best effort reads", func() {
		BeforeEach(func() {
			for _, q := range []string{"sqlite question", "kafka question", "sqlite again"} {
				_, err := store.SaveTurn(ctx, q, "answer", storage.Metadata{})
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("returns recent turns oldest first", func() {
			recent := store.Recent(ctx, 2)
			Expect(recent).To(HaveLen(2))
			Expect(recent[0].UserText).To(Equal("kafka question"))
			Expect(recent[1].UserText).To(Equal("sqlite again"))
		})

		It("searches the active conversation", func() {
			found := store.Search(ctx, "SQLITE", 5)
			Expect(found).To(HaveLen(2))
		})

		It("returns empty for non-positive limits and blank queries", func() {
			Expect(store.Recent(ctx, 0)).To(BeEmpty())
			Expect(store.Search(ctx, "sqlite", 0)).To(BeEmpty())
			Expect(store.Search(ctx, "  ", 5)).To(BeEmpty())
		})

		It("degrades to empty on failure", func() {
			driver.Set(&driver.FailRecent, true)
			driver.Set(&driver.FailSearch, true)
			driver.Set(&driver.FailList, true)
			driver.Set(&driver.FailTurns, true)

			Expect(store.Recent(ctx, 3)).To(BeEmpty())
			Expect(store.Search(ctx, "sqlite", 3)).To(BeEmpty())
			Expect(store.ListAll(ctx)).To(BeEmpty())
			Expect(store.AllTurns(ctx)).To(BeEmpty())
		})

		It("exposes errors through Source", func() {
			driver.Set(&driver.FailSearch, true)

			_, err := store.Source().Search(ctx, "sqlite", 3)
			Expect(err).To(MatchError(storage.ErrStorage))

			recent, err := store.Source().Recent(ctx, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(recent).To(HaveLen(3))
		})

		It("reads nothing once a new conversation starts", func() {
			store.NewConversation()
			Expect(store.Recent(ctx, 3)).To(BeEmpty())
			Expect(store.AllTurns(ctx)).To(BeEmpty())
			Expect(store.ListAll(ctx)).To(HaveLen(1))
		})
	})

	It("reports the backend name", func() {
		Expect(store.Backend()).To(Equal("memory"))
	})
})
