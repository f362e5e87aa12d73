package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/winter/pkg/eventstream"
	"github.com/papercomputeco/winter/pkg/eventstream/kafka"
)

type recordingWriter struct {
	messages    []kafkago.Message
	hadDeadline bool
	err         error
	closed      bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	_, w.hadDeadline = ctx.Deadline()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		writer    *recordingWriter
		publisher *kafka.Publisher
		event     *eventstream.TurnPersistedEvent
	)

	BeforeEach(func() {
		writer = &recordingWriter{}
		publisher = kafka.NewPublisherWithWriter(writer, kafka.Config{Topic: "winter.turns"}, nil)
		event = eventstream.NewTurnPersistedEvent(
			time.Unix(1735689600, 0),
			eventstream.EventSource{Backend: "sqlite"},
			eventstream.TurnMeta{ConversationID: "conv-9", TurnNumber: 2, Title: "hi"},
		)
	})

	It("rejects missing brokers or topic", func() {
		_, err := kafka.NewPublisher(kafka.Config{Topic: "t"}, nil)
		Expect(err).To(MatchError(ContainSubstring("brokers")))

		_, err = kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}}, nil)
		Expect(err).To(MatchError(ContainSubstring("topic")))
	})

	It("builds a writer-backed publisher without dialing", func() {
		p, err := kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}, Topic: "t"}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Close()).To(Succeed())
	})

	It("returns ErrNilTurnEvent for nil events", func() {
		Expect(publisher.PublishTurn(context.Background(), nil)).To(MatchError(eventstream.ErrNilTurnEvent))
		Expect(writer.messages).To(BeEmpty())
	})

	It("keys messages by conversation ID with a JSON payload", func() {
		Expect(publisher.PublishTurn(context.Background(), event)).To(Succeed())
		Expect(writer.messages).To(HaveLen(1))

		msg := writer.messages[0]
		Expect(string(msg.Key)).To(Equal("conv-9"))
		Expect(msg.Headers).To(ContainElement(kafkago.Header{Key: "event_type", Value: []byte(eventstream.EventTypeTurnPersisted)}))

		var decoded eventstream.TurnPersistedEvent
		Expect(json.Unmarshal(msg.Value, &decoded)).To(Succeed())
		Expect(decoded.Turn.TurnNumber).To(Equal(2))
		Expect(decoded.EventID).To(Equal(event.EventID))
	})

	It("applies a write timeout when the context has no deadline", func() {
		Expect(publisher.PublishTurn(context.Background(), event)).To(Succeed())
		Expect(writer.hadDeadline).To(BeTrue())
	})

	It("wraps writer failures in ErrPublish", func() {
		writer.err = errors.New("broker down")
		err := publisher.PublishTurn(context.Background(), event)
		Expect(err).To(MatchError(eventstream.ErrPublish))
		Expect(err).To(MatchError(ContainSubstring("broker down")))
	})

	It("closes the writer", func() {
		Expect(publisher.Close()).To(Succeed())
		Expect(writer.closed).To(BeTrue())
	})
})
