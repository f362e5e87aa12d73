// Package jsonl provides the append-only log backend. Turns of every
// conversation share one file with one JSON record per line.
package jsonl

import (
	"bufio"
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/papercomputeco/winter/pkg/logger"
	"github.com/papercomputeco/winter/pkg/storage"
)

const (
	// DefaultDir is the directory of the log under the dotdir.
	DefaultDir = "conversations_fallback"

	// DefaultFile is the log file name.
	DefaultFile = "all_conversations.jsonl"

	maxLineSize = 16 * 1024 * 1024
)

// record is the persisted line layout.
type record struct {
	ConversationID string    `json:"conversation_id"`
	Title          string    `json:"title"`
	Timestamp      float64   `json:"timestamp"`
	Datetime       string    `json:"datetime"`
	Session        int64     `json:"session"`
	Project        string    `json:"project"`
	TurnNumber     int       `json:"turn_number"`
	User           string    `json:"user"`
	Assistant      string    `json:"assistant"`
	Elapsed        float64   `json:"elapsed"`
	Embedding      []float32 `json:"embedding,omitempty"`
}

func fromTurn(t storage.Turn) record {
	return record{
		ConversationID: t.ConversationID,
		Title:          t.Title,
		Timestamp:      storage.EpochSeconds(t.CreatedAt),
		Datetime:       t.CreatedAt.Format(storage.DateTimeLayout),
		Session:        t.SessionID,
		Project:        t.Project,
		TurnNumber:     t.TurnNumber,
		User:           t.UserText,
		Assistant:      t.AssistantText,
		Elapsed:        t.ElapsedSeconds,
		Embedding:      t.Embedding,
	}
}

func (r record) turn() storage.Turn {
	return storage.Turn{
		ConversationID: r.ConversationID,
		Title:          r.Title,
		TurnNumber:     r.TurnNumber,
		UserText:       r.User,
		AssistantText:  r.Assistant,
		CreatedAt:      storage.FromEpochSeconds(r.Timestamp),
		SessionID:      r.Session,
		Project:        r.Project,
		ElapsedSeconds: r.Elapsed,
		Embedding:      r.Embedding,
	}
}

// Driver implements storage.Driver on an append-only JSON lines file.
type Driver struct {
	path   string
	logger *slog.Logger

	// mu serializes appends with the scan that numbers them
	mu sync.Mutex
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// NewDriver opens or creates the log at path.
func NewDriver(path string, opts ...Option) (*Driver, error) {
	if path == "" {
		return nil, errors.New("jsonl path is required")
	}

	d := &Driver{path: path, logger: logger.Nop()}
	for _, opt := range opts {
		opt(d)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing log: %w", err)
	}

	d.logger.Debug("opened conversation log", "path", path)
	return d, nil
}

// Path returns the log file path.
func (d *Driver) Path() string {
	return d.path
}

// scan reads every well-formed record in file order. Malformed lines are
// skipped.
func (d *Driver) scan() ([]record, error) {
	f, err := os.Open(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening log: %w", err)
	}
	defer f.Close()

	var (
		records []record
		skipped int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var r record
		if err := json.Unmarshal(line, &r); err != nil || r.ConversationID == "" {
			skipped++
			continue
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading log: %w", err)
	}

	if skipped > 0 {
		d.logger.Debug("skipped malformed log lines", "count", skipped)
	}
	return records, nil
}

func (d *Driver) conversation(conversationID string) ([]storage.Turn, error) {
	records, err := d.scan()
	if err != nil {
		return nil, err
	}

	turns := []storage.Turn{}
	for _, r := range records {
		if r.ConversationID == conversationID {
			turns = append(turns, r.turn())
		}
	}
	slices.SortStableFunc(turns, func(a, b storage.Turn) int {
		return cmp.Compare(a.TurnNumber, b.TurnNumber)
	})
	return turns, nil
}

// List groups the log by conversation, newest first.
func (d *Driver) List(_ context.Context) ([]storage.Summary, error) {
	records, err := d.scan()
	if err != nil {
		return nil, err
	}

	type group struct {
		summary   storage.Summary
		firstTurn int
		lastTurn  int
	}
	groups := map[string]*group{}
	for _, r := range records {
		g, ok := groups[r.ConversationID]
		if !ok {
			g = &group{
				summary:   storage.Summary{ID: r.ConversationID, Title: r.Title, Project: r.Project},
				firstTurn: r.TurnNumber,
				lastTurn:  r.TurnNumber,
			}
			groups[r.ConversationID] = g
		}
		g.summary.TurnCount++
		if r.TurnNumber < g.firstTurn {
			g.firstTurn = r.TurnNumber
			g.summary.Title = r.Title
		}
		if r.TurnNumber >= g.lastTurn {
			g.lastTurn = r.TurnNumber
			g.summary.Project = r.Project
		}
		if ts := storage.FromEpochSeconds(r.Timestamp); ts.After(g.summary.LastUpdated) {
			g.summary.LastUpdated = ts
		}
	}

	summaries := make([]storage.Summary, 0, len(groups))
	for _, g := range groups {
		summaries = append(summaries, g.summary)
	}
	slices.SortFunc(summaries, func(a, b storage.Summary) int {
		if c := b.LastUpdated.Compare(a.LastUpdated); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return summaries, nil
}

// Turns returns the conversation's turns in turn order.
func (d *Driver) Turns(_ context.Context, conversationID string) ([]storage.Turn, error) {
	return d.conversation(conversationID)
}

// Recent returns the last limit turns of the conversation.
func (d *Driver) Recent(_ context.Context, conversationID string, limit int) ([]storage.Turn, error) {
	if limit <= 0 {
		return []storage.Turn{}, nil
	}
	turns, err := d.conversation(conversationID)
	if err != nil {
		return nil, err
	}
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns, nil
}

// Append numbers t after the highest turn of its conversation and appends
// it as one line.
func (d *Driver) Append(_ context.Context, t storage.Turn) (storage.Turn, error) {
	if t.ConversationID == "" {
		return storage.Turn{}, storage.ErrNoConversation
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	records, err := d.scan()
	if err != nil {
		return storage.Turn{}, err
	}

	t.TurnNumber = 0
	first := -1
	for _, r := range records {
		if r.ConversationID != t.ConversationID {
			continue
		}
		if r.TurnNumber+1 > t.TurnNumber {
			t.TurnNumber = r.TurnNumber + 1
		}
		if first == -1 || r.TurnNumber < first {
			first = r.TurnNumber
			t.Title = r.Title
		}
	}
	if t.Title == "" {
		t.Title = storage.UntitledTitle
	}

	line, err := json.Marshal(fromTurn(t))
	if err != nil {
		return storage.Turn{}, fmt.Errorf("encoding turn: %w", err)
	}
	line = append(line, '\n')

	if err := d.write(line); err != nil {
		return storage.Turn{}, err
	}
	return t, nil
}

// write appends line, first terminating a previous partial line so the
// new record starts on its own line.
func (d *Driver) write(line []byte) error {
	f, err := os.OpenFile(d.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat log: %w", err)
	}
	if info.Size() > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, info.Size()-1); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading log tail: %w", err)
		}
		if last[0] != '\n' {
			line = append([]byte{'\n'}, line...)
		}
	}

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("appending turn: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing log: %w", err)
	}
	return nil
}

// Search matches query case-insensitively against user and assistant text
// and returns the last limit matches in file order.
func (d *Driver) Search(_ context.Context, conversationID, query string, limit int) ([]storage.Turn, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" || limit <= 0 {
		return []storage.Turn{}, nil
	}

	records, err := d.scan()
	if err != nil {
		return nil, err
	}

	matches := []storage.Turn{}
	for _, r := range records {
		if r.ConversationID != conversationID {
			continue
		}
		if strings.Contains(strings.ToLower(r.User), needle) ||
			strings.Contains(strings.ToLower(r.Assistant), needle) {
			matches = append(matches, r.turn())
		}
	}
	if len(matches) > limit {
		matches = matches[len(matches)-limit:]
	}
	return matches, nil
}

// Close is a no-op; the log is reopened per operation.
func (d *Driver) Close() error {
	return nil
}

var _ storage.Driver = (*Driver)(nil)
