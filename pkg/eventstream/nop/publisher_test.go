package nop_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/winter/pkg/eventstream"
	"github.com/papercomputeco/winter/pkg/eventstream/nop"
)

var _ = Describe("Publisher", func() {
	var p *nop.Publisher

	BeforeEach(func() {
		p = nop.NewPublisher(nil)
	})

	It("satisfies the publisher interface", func() {
		var _ eventstream.Publisher = p
		Expect(p).NotTo(BeNil())
	})

	It("returns ErrNilTurnEvent for nil events", func() {
		err := p.PublishTurn(context.Background(), nil)
		Expect(err).To(MatchError(eventstream.ErrNilTurnEvent))
		Expect(p.Dropped()).To(BeZero())
	})

	It("drops non-nil events", func() {
		event := &eventstream.TurnPersistedEvent{Turn: eventstream.TurnMeta{ConversationID: "c1"}}
		Expect(p.PublishTurn(context.Background(), event)).To(Succeed())
		Expect(p.PublishTurn(context.Background(), event)).To(Succeed())
		Expect(p.Dropped()).To(BeEquivalentTo(2))
	})

	It("closes successfully", func() {
		Expect(p.Close()).To(Succeed())
	})
})
