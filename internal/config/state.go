package config

import (
	"sync"
)

// StateStore persists the model chosen through switch_model as a small JSON file.
// Unknown keys in the file are preserved on rewrite.
type StateStore struct {
	path string
	mu   sync.Mutex
}

// NewStateStore creates a store backed by path. The file is created lazily.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Path returns the backing file path
func (s *StateStore) Path() string {
	return s.path
}

// Model returns the persisted model id, or "" when none has been saved
func (s *StateStore) Model() (string, error) {
	state, err := readJSONObject(s.path)
	if err != nil {
		return "", err
	}
	m, _ := state["model"].(string)
	return m, nil
}

// SetModel rewrites the file with the new model id via write-then-rename
func (s *StateStore) SetModel(model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := readJSONObject(s.path)
	if err != nil {
		// A corrupt file is replaced rather than blocking the switch
		state = map[string]interface{}{}
	}
	state["model"] = model

	return writeJSONAtomic(s.path, state)
}
