package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"plforecast/pkg/contracts/domain"
)

// TranscriptStore persists the chat history to a single JSON file.
type TranscriptStore struct {
	path string
	mu   sync.Mutex
}

// NewTranscriptStore creates a store backed by path.
func NewTranscriptStore(path string) *TranscriptStore {
	return &TranscriptStore{path: path}
}

// Path returns the backing file.
func (s *TranscriptStore) Path() string { return s.path }

// Save replaces the file with transcript. The write goes through a temp file and a rename
// so a crash never leaves a truncated session.
func (s *TranscriptStore) Save(transcript *domain.Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if transcript == nil {
		transcript = &domain.Transcript{}
	}
	if transcript.ChatHistory == nil {
		transcript = &domain.Transcript{ChatHistory: []domain.ChatMessage{}}
	}

	data, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace transcript: %w", err)
	}
	return nil
}

// Load reads the transcript. A missing file yields (nil, false, nil) so callers keep
// their current history.
func (s *TranscriptStore) Load() (*domain.Transcript, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read transcript: %w", err)
	}

	var transcript domain.Transcript
	if err := json.Unmarshal(data, &transcript); err != nil {
		return nil, false, fmt.Errorf("failed to decode transcript %s: %w", s.path, err)
	}
	if transcript.ChatHistory == nil {
		transcript.ChatHistory = []domain.ChatMessage{}
	}
	return &transcript, true, nil
}
