package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/winter/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("marshals TurnPersistedEvent with expected top-level keys", func() {
		now := time.Unix(1735689600, 0).UTC()
		event := eventstream.TurnPersistedEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventstream.EventTypeTurnPersisted,
			EventID:       "evt_123",
			EmittedAt:     now,
			Source: eventstream.EventSource{
				Project: "my-project",
				Backend: "sqlite",
			},
			Turn: eventstream.TurnMeta{
				ConversationID: "conv-1",
				TurnNumber:     3,
				Title:          "hello",
				DurationMs:     1200,
			},
		}

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var decoded map[string]any
		Expect(json.Unmarshal(payload, &decoded)).To(Succeed())
		Expect(decoded).To(HaveKey("schema_version"))
		Expect(decoded).To(HaveKey("event_type"))
		Expect(decoded).To(HaveKey("event_id"))
		Expect(decoded).To(HaveKey("emitted_at"))
		Expect(decoded).To(HaveKey("source"))
		Expect(decoded).To(HaveKey("turn"))
		Expect(decoded["event_type"]).To(Equal("winter.turn.persisted"))

		turn, ok := decoded["turn"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(turn["conversation_id"]).To(Equal("conv-1"))
		Expect(turn["turn_number"]).To(BeEquivalentTo(3))
		Expect(turn["direct"]).To(BeFalse())
	})

	It("builds a stamped event from turn metadata", func() {
		now := time.Unix(1735689600, 0).UTC()
		event := eventstream.NewTurnPersistedEvent(now, eventstream.EventSource{Backend: "jsonl"}, eventstream.TurnMeta{
			ConversationID: "conv-2",
			TurnNumber:     0,
		})

		Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(event.EventType).To(Equal(eventstream.EventTypeTurnPersisted))
		Expect(event.EventID).To(HavePrefix("evt_"))
		Expect(event.EmittedAt).To(Equal(now))
		Expect(event.Source.Backend).To(Equal("jsonl"))
	})
})
