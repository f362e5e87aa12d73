// Package retrieval assembles the bounded context window handed to
// generation by blending similar turns with recent ones.
package retrieval

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/papercomputeco/winter/pkg/logger"
	"github.com/papercomputeco/winter/pkg/storage"
)

// ErrRetrieval marks a failed similarity search.
var ErrRetrieval = errors.New("retrieval error")

// Source is the read side of a conversation store.
type Source interface {
	Search(ctx context.Context, query string, limit int) ([]storage.Turn, error)
	Recent(ctx context.Context, limit int) ([]storage.Turn, error)
}

// Retriever builds retrieval contexts.
type Retriever struct {
	logger *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets the logger degradations are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(r *Retriever) { r.logger = l }
}

// New creates a Retriever.
func New(opts ...Option) *Retriever {
	r := &Retriever{logger: logger.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns at most limit turns for query.
//
// When similarity search fails or finds nothing the recent turns are
// returned exactly as the source produced them. Otherwise the similar turns
// are topped up with recent turns not already present and the result is
// ordered by turn number.
func (r *Retriever) Retrieve(ctx context.Context, query string, src Source, limit int) []storage.Turn {
	return r.RetrieveWithin(ctx, query, src, limit, limit)
}

// RetrieveWithin is Retrieve for a consumer that keeps only the newest
// window turns. Recent turns only fill the slots similar turns leave free
// inside window, so a similar turn is never pushed out by newer filler.
func (r *Retriever) RetrieveWithin(ctx context.Context, query string, src Source, limit, window int) []storage.Turn {
	if limit <= 0 {
		return []storage.Turn{}
	}
	fill := limit
	if window > 0 && window < fill {
		fill = window
	}

	similar, err := src.Search(ctx, query, limit)
	if err != nil {
		r.logger.Debug("similarity search failed, using recent turns",
			"error", fmt.Errorf("%w: %w", ErrRetrieval, err))
		return r.recent(ctx, src, limit)
	}
	if len(similar) == 0 {
		r.logger.Debug("similarity search found nothing, using recent turns")
		return r.recent(ctx, src, limit)
	}

	if len(similar) > limit {
		similar = similar[:limit]
	}

	seen := make(map[int]struct{}, limit)
	picked := make([]storage.Turn, 0, limit)
	for _, t := range similar {
		if _, ok := seen[t.TurnNumber]; ok {
			continue
		}
		seen[t.TurnNumber] = struct{}{}
		picked = append(picked, t)
	}

	if len(picked) < fill {
		recent, err := src.Recent(ctx, limit)
		if err != nil {
			r.logger.Debug("reading recent turns failed, using similar turns only", "error", err)
		}
		// Newest first so the freshest turns claim the free slots.
		for i := len(recent) - 1; i >= 0 && len(picked) < fill; i-- {
			t := recent[i]
			if _, ok := seen[t.TurnNumber]; ok {
				continue
			}
			seen[t.TurnNumber] = struct{}{}
			picked = append(picked, t)
		}
	}

	slices.SortFunc(picked, func(a, b storage.Turn) int {
		return cmp.Compare(a.TurnNumber, b.TurnNumber)
	})
	return picked
}

func (r *Retriever) recent(ctx context.Context, src Source, limit int) []storage.Turn {
	recent, err := src.Recent(ctx, limit)
	if err != nil {
		r.logger.Debug("reading recent turns failed, using empty context", "error", err)
		return []storage.Turn{}
	}
	if len(recent) > limit {
		recent = recent[len(recent)-limit:]
	}
	return recent
}
