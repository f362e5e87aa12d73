package testutils

import (
	"cmp"
	"context"
	"errors"
	"math"
	"slices"
	"sync"

	"github.com/papercomputeco/winter/pkg/vector"
)

// MockVectorDriver is an in-memory vector index ranking by cosine
// similarity within a conversation.
type MockVectorDriver struct {
	mu        sync.Mutex
	documents map[string]vector.Document

	// FailAdd, FailQuery and FailDelete make the matching call fail.
	FailAdd    bool
	FailQuery  bool
	FailDelete bool

	// Deleted records IDs passed to Delete.
	Deleted []string

	Closed bool
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		documents: make(map[string]vector.Document),
	}
}

func (m *MockVectorDriver) Add(_ context.Context, docs []vector.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailAdd {
		return errors.New("mock vector add failure")
	}
	for _, doc := range docs {
		m.documents[doc.ID] = doc
	}
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, q vector.Query) ([]vector.QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailQuery {
		return nil, errors.New("mock vector query failure")
	}

	topK := q.TopK
	if topK <= 0 {
		topK = vector.DefaultTopK
	}

	results := []vector.QueryResult{}
	for _, doc := range m.documents {
		if doc.ConversationID != q.ConversationID {
			continue
		}
		results = append(results, vector.QueryResult{
			Document: doc,
			Score:    cosine(q.Embedding, doc.Embedding),
		})
	}
	slices.SortFunc(results, func(a, b vector.QueryResult) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.TurnNumber, b.TurnNumber)
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailDelete {
		return errors.New("mock vector delete failure")
	}
	for _, id := range ids {
		delete(m.documents, id)
		m.Deleted = append(m.Deleted, id)
	}
	return nil
}

// Len returns the number of stored documents.
func (m *MockVectorDriver) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.documents)
}

func (m *MockVectorDriver) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
