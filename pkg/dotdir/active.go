package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	activeFile = "active.json"
)

// ActiveState points at the conversation a chat session was last using.
type ActiveState struct {
	ConversationID string    `json:"conversation_id"`
	Title          string    `json:"title,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// LoadActive loads the active conversation pointer from .winter/active.json.
// Returns nil, nil if no pointer has been saved yet.
func (m *Manager) LoadActive(overrideDir string) (*ActiveState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, activeFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading active state: %w", err)
	}

	state := &ActiveState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing active state: %w", err)
	}

	if state.ConversationID == "" {
		return nil, nil
	}

	return state, nil
}

// SaveActive persists the active conversation pointer.
func (m *Manager) SaveActive(state *ActiveState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil active state")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling active state: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, activeFile), data, 0o600); err != nil {
		return fmt.Errorf("writing active state: %w", err)
	}

	return nil
}

// ClearActive removes the active conversation pointer. A missing file is
// not an error.
func (m *Manager) ClearActive(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	err = os.Remove(filepath.Join(dir, activeFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing active state: %w", err)
	}
	return nil
}
