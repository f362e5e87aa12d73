// Package chat sequences one user input through fact routing, retrieval,
// generation and persistence.
//
// An input that the router matches is answered from stored facts and saved
// without touching the retriever or the generator. Any other input has its
// context retrieved, is streamed through the generator, and is saved only
// once the stream has fully drained. A failed or interrupted generation
// saves nothing.
package chat

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/papercomputeco/winter/pkg/eventstream"
	"github.com/papercomputeco/winter/pkg/eventstream/nop"
	"github.com/papercomputeco/winter/pkg/llm"
	"github.com/papercomputeco/winter/pkg/logger"
	"github.com/papercomputeco/winter/pkg/memory/formatter"
	"github.com/papercomputeco/winter/pkg/memory/router"
	"github.com/papercomputeco/winter/pkg/retrieval"
	"github.com/papercomputeco/winter/pkg/storage"
)

// DefaultRetrievalLimit bounds the retrieved context.
const DefaultRetrievalLimit = 6

// Router matches inputs to stored facts.
type Router interface {
	Route(input string) (router.Match, bool)
}

// Facts renders the fact block injected into prompts.
type Facts interface {
	PromptBlock() string
}

// Config wires an Orchestrator. Store, Router and Generator are required.
type Config struct {
	Store     *storage.Store
	Router    Router
	Facts     Facts
	Retriever *retrieval.Retriever
	Generator llm.Generator
	Publisher eventstream.Publisher
	Logger    *slog.Logger

	AssistantName  string
	RetrievalLimit int
	HistoryTurns   int

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Orchestrator serializes chat inputs for one conversation store.
type Orchestrator struct {
	store     *storage.Store
	router    Router
	facts     Facts
	retriever *retrieval.Retriever
	generator llm.Generator
	publisher eventstream.Publisher
	logger    *slog.Logger

	prompt         PromptOptions
	retrievalLimit int
	now            func() time.Time

	mu sync.Mutex
}

// New validates cfg and fills defaults.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, errors.New("chat: store is required")
	}
	if cfg.Router == nil {
		return nil, errors.New("chat: router is required")
	}
	if cfg.Generator == nil {
		return nil, errors.New("chat: generator is required")
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	retriever := cfg.Retriever
	if retriever == nil {
		retriever = retrieval.New(retrieval.WithLogger(log))
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = nop.NewPublisher(log)
	}
	limit := cfg.RetrievalLimit
	if limit <= 0 {
		limit = DefaultRetrievalLimit
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	historyTurns := cfg.HistoryTurns
	if historyTurns <= 0 {
		historyTurns = DefaultHistoryTurns
	}

	return &Orchestrator{
		store:     cfg.Store,
		router:    cfg.Router,
		facts:     cfg.Facts,
		retriever: retriever,
		generator: cfg.Generator,
		publisher: publisher,
		logger:    log,
		prompt: PromptOptions{
			AssistantName: cfg.AssistantName,
			HistoryTurns:  historyTurns,
		},
		retrievalLimit: limit,
		now:            now,
	}, nil
}

// Chat processes input and yields its output fragments. A direct answer is
// a single KindDirect fragment. A generated answer is a run of KindText
// fragments closed by one KindTiming fragment. Failures yield one
// KindError fragment. Blank input yields nothing.
//
// The orchestrator lock is held until the sequence finishes, so a second
// Chat waits for the first to be fully consumed or abandoned.
func (o *Orchestrator) Chat(ctx context.Context, input string) iter.Seq[Fragment] {
	return func(yield func(Fragment) bool) {
		input := strings.TrimSpace(input)
		if input == "" {
			return
		}

		o.mu.Lock()
		defer o.mu.Unlock()

		start := o.now()
		if match, ok := o.router.Route(input); ok {
			o.answerDirect(ctx, input, match, start, yield)
			return
		}
		o.answerGenerated(ctx, input, start, yield)
	}
}

func (o *Orchestrator) answerDirect(ctx context.Context, input string, match router.Match, start time.Time, yield func(Fragment) bool) {
	answer := formatter.Format(match)
	elapsed := o.now().Sub(start).Seconds()

	turn, err := o.store.SaveTurn(ctx, input, answer, storage.Metadata{ElapsedSeconds: elapsed})
	if err != nil {
		o.logger.Error("persisting direct answer", "key", match.Key, "error", err)
		yield(Fragment{Kind: KindError, Text: err.Error()})
		return
	}
	o.publish(ctx, turn, true)

	yield(Fragment{Kind: KindDirect, Text: answer})
}

func (o *Orchestrator) answerGenerated(ctx context.Context, input string, start time.Time, yield func(Fragment) bool) {
	// The prompt keeps only the newest HistoryTurns turns, so similar turns
	// must fit inside that window.
	window := o.retriever.RetrieveWithin(ctx, input, o.store.Source(), o.retrievalLimit, o.prompt.HistoryTurns)

	factBlock := ""
	if o.facts != nil {
		factBlock = o.facts.PromptBlock()
	}
	prompt := BuildPrompt(o.prompt, factBlock, window, input)

	o.logger.Debug("generating",
		"context_turns", len(window),
		"prompt_bytes", len(prompt),
	)

	var answer strings.Builder
	for fragment, err := range llm.StripThinking(o.generator.Generate(ctx, prompt)) {
		if err != nil {
			if ctx.Err() != nil {
				o.logger.Debug("generation cancelled", "error", err)
				return
			}
			o.logger.Error("generation failed", "error", err)
			yield(Fragment{Kind: KindError, Text: err.Error()})
			return
		}
		if fragment == "" {
			continue
		}
		answer.WriteString(fragment)
		if !yield(Fragment{Kind: KindText, Text: fragment}) {
			o.logger.Debug("consumer stopped, discarding partial answer")
			return
		}
	}
	if ctx.Err() != nil {
		return
	}

	elapsed := o.now().Sub(start).Seconds()
	turn, err := o.store.SaveTurn(ctx, input, answer.String(), storage.Metadata{ElapsedSeconds: elapsed})
	if err != nil {
		o.logger.Error("persisting generated answer", "error", err)
		yield(Fragment{Kind: KindError, Text: err.Error()})
		return
	}
	o.publish(ctx, turn, false)

	yield(Fragment{Kind: KindTiming, Text: TimingText(elapsed), ElapsedSeconds: elapsed})
}

func (o *Orchestrator) publish(ctx context.Context, turn storage.Turn, direct bool) {
	event := eventstream.NewTurnPersistedEvent(o.now(),
		eventstream.EventSource{
			Project: turn.Project,
			Backend: o.store.Backend(),
		},
		eventstream.TurnMeta{
			ConversationID: turn.ConversationID,
			TurnNumber:     turn.TurnNumber,
			Title:          turn.Title,
			Direct:         direct,
			DurationMs:     int64(turn.ElapsedSeconds * 1000),
		},
	)
	if err := o.publisher.PublishTurn(ctx, event); err != nil {
		o.logger.Warn("publishing turn event",
			"conversation_id", turn.ConversationID,
			"turn_number", turn.TurnNumber,
			"error", err,
		)
	}
}

// SearchHistory returns up to limit turns of the active conversation
// related to query. Failures degrade to an empty result.
func (o *Orchestrator) SearchHistory(ctx context.Context, query string, limit int) []storage.Turn {
	return o.store.Search(ctx, query, limit)
}

// RecentTurns returns up to limit of the latest turns, oldest first.
func (o *Orchestrator) RecentTurns(ctx context.Context, limit int) []storage.Turn {
	return o.store.Recent(ctx, limit)
}

// Conversations lists every stored conversation, newest first.
func (o *Orchestrator) Conversations(ctx context.Context) []storage.Summary {
	return o.store.ListAll(ctx)
}

// Resume makes id the active conversation.
func (o *Orchestrator) Resume(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.store.Load(ctx, id); err != nil {
		return fmt.Errorf("resuming conversation: %w", err)
	}
	return nil
}

// NewConversation starts a fresh conversation on the next input.
func (o *Orchestrator) NewConversation() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.store.NewConversation()
}

// ActiveConversation returns the active conversation ID, or "".
func (o *Orchestrator) ActiveConversation() string {
	return o.store.Active()
}

// Backend names the storage backend in use.
func (o *Orchestrator) Backend() string {
	return o.store.Backend()
}
