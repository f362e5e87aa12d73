package testutils

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/winter/pkg/storage"
)

// ErrMockStorage is returned by FailingDriver.
var ErrMockStorage = errors.New("mock storage failure")

// FailingDriver wraps a storage.Driver and fails selected operations.
type FailingDriver struct {
	storage.Driver

	mu sync.Mutex

	FailList   bool
	FailTurns  bool
	FailRecent bool
	FailAppend bool
	FailSearch bool

	// Appends counts successful appends.
	Appends int
}

// NewFailingDriver wraps inner. No operation fails until a flag is set.
func NewFailingDriver(inner storage.Driver) *FailingDriver {
	return &FailingDriver{Driver: inner}
}

func (f *FailingDriver) fail(flag *bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *flag
}

func (f *FailingDriver) List(ctx context.Context) ([]storage.Summary, error) {
	if f.fail(&f.FailList) {
		return nil, ErrMockStorage
	}
	return f.Driver.List(ctx)
}

func (f *FailingDriver) Turns(ctx context.Context, conversationID string) ([]storage.Turn, error) {
	if f.fail(&f.FailTurns) {
		return nil, ErrMockStorage
	}
	return f.Driver.Turns(ctx, conversationID)
}

func (f *FailingDriver) Recent(ctx context.Context, conversationID string, limit int) ([]storage.Turn, error) {
	if f.fail(&f.FailRecent) {
		return nil, ErrMockStorage
	}
	return f.Driver.Recent(ctx, conversationID, limit)
}

func (f *FailingDriver) Append(ctx context.Context, t storage.Turn) (storage.Turn, error) {
	if f.fail(&f.FailAppend) {
		return storage.Turn{}, ErrMockStorage
	}
	saved, err := f.Driver.Append(ctx, t)
	if err == nil {
		f.mu.Lock()
		f.Appends++
		f.mu.Unlock()
	}
	return saved, err
}

func (f *FailingDriver) Search(ctx context.Context, conversationID, query string, limit int) ([]storage.Turn, error) {
	if f.fail(&f.FailSearch) {
		return nil, ErrMockStorage
	}
	return f.Driver.Search(ctx, conversationID, query, limit)
}

// Set toggles a failure flag under the driver's lock.
func (f *FailingDriver) Set(flag *bool, v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	*flag = v
}

// DriverContract registers specs every storage.Driver must pass. Call it
// inside a Describe; newDriver is invoked before each It.
func DriverContract(newDriver func() storage.Driver) {
	var (
		driver storage.Driver
		ctx    context.Context
		base   time.Time
	)

	appendTurn := func(conversationID, user, assistant string, offset time.Duration) storage.Turn {
		GinkgoHelper()
		t, err := driver.Append(ctx, storage.Turn{
			ConversationID: conversationID,
			Title:          storage.DeriveTitle(user, storage.DefaultTitleLength),
			UserText:       user,
			AssistantText:  assistant,
			CreatedAt:      base.Add(offset),
			SessionID:      42,
			Project:        "winter",
			ElapsedSeconds: 0.5,
		})
		Expect(err).NotTo(HaveOccurred())
		return t
	}

	BeforeEach(func() {
		ctx = context.Background()
		base = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
			driver = nil
		}
	})

	It("numbers turns contiguously from zero", func() {
		for i := range 5 {
			t := appendTurn("conv-a", "question", "answer", time.Duration(i)*time.Second)
			Expect(t.TurnNumber).To(Equal(i))
		}

		turns, err := driver.Turns(ctx, "conv-a")
		Expect(err).NotTo(HaveOccurred())
		Expect(turns).To(HaveLen(5))
		for i, t := range turns {
			Expect(t.TurnNumber).To(Equal(i))
		}
	})

	It("round-trips turn content", func() {
		appendTurn("conv-a", "What is sqlite-vec?", "A vector search extension.", 0)

		turns, err := driver.Turns(ctx, "conv-a")
		Expect(err).NotTo(HaveOccurred())
		Expect(turns).To(HaveLen(1))
		Expect(turns[0].UserText).To(Equal("What is sqlite-vec?"))
		Expect(turns[0].AssistantText).To(Equal("A vector search extension."))
		Expect(turns[0].SessionID).To(Equal(int64(42)))
		Expect(turns[0].Project).To(Equal("winter"))
		Expect(turns[0].ElapsedSeconds).To(BeNumerically("~", 0.5))
		Expect(turns[0].CreatedAt).To(BeTemporally("~", base, time.Millisecond))
	})

	It("keeps the first turn's title for the whole conversation", func() {
		first := appendTurn("conv-a", "Plan the storage layer", "ok", 0)
		second := appendTurn("conv-a", "Something else entirely", "ok", time.Second)

		Expect(first.Title).To(Equal("Plan the storage layer"))
		Expect(second.Title).To(Equal("Plan the storage layer"))
	})

	It("returns recent turns oldest first bounded by limit", func() {
		for i := range 4 {
			appendTurn("conv-a", "q", "a", time.Duration(i)*time.Second)
		}

		recent, err := driver.Recent(ctx, "conv-a", 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(recent).To(HaveLen(2))
		Expect(recent[0].TurnNumber).To(Equal(2))
		Expect(recent[1].TurnNumber).To(Equal(3))

		all, err := driver.Recent(ctx, "conv-a", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(4))
	})

	It("keeps conversations isolated", func() {
		appendTurn("conv-a", "a0", "x", 0)
		appendTurn("conv-b", "b0", "x", time.Second)
		t := appendTurn("conv-a", "a1", "x", 2*time.Second)
		Expect(t.TurnNumber).To(Equal(1))

		turns, err := driver.Turns(ctx, "conv-b")
		Expect(err).NotTo(HaveOccurred())
		Expect(turns).To(HaveLen(1))
		Expect(turns[0].UserText).To(Equal("b0"))
	})

	It("lists conversations newest first", func() {
		appendTurn("conv-a", "older conversation", "x", 0)
		appendTurn("conv-b", "newer conversation", "x", time.Minute)
		appendTurn("conv-b", "second turn", "x", 2*time.Minute)

		summaries, err := driver.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summaries).To(HaveLen(2))
		Expect(summaries[0].ID).To(Equal("conv-b"))
		Expect(summaries[0].Title).To(Equal("newer conversation"))
		Expect(summaries[0].TurnCount).To(Equal(2))
		Expect(summaries[0].LastUpdated).To(BeTemporally("~", base.Add(2*time.Minute), time.Millisecond))
		Expect(summaries[1].ID).To(Equal("conv-a"))
	})

	It("returns empty results for an unknown conversation", func() {
		turns, err := driver.Turns(ctx, "missing")
		Expect(err).NotTo(HaveOccurred())
		Expect(turns).To(BeEmpty())

		recent, err := driver.Recent(ctx, "missing", 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(recent).To(BeEmpty())

		summaries, err := driver.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summaries).To(BeEmpty())
	})

	It("rejects a turn without a conversation", func() {
		_, err := driver.Append(ctx, storage.Turn{UserText: "q", AssistantText: "a"})
		Expect(err).To(MatchError(storage.ErrNoConversation))
	})
}
