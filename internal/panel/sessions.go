package panel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/farllirs/botpanel/internal/bot"
)

const sessionsFile = "sessions.json"

// SessionStore persists configured bots across panel restarts so
// /api/restore-sessions can bring them back. It is a single JSON object
// keyed by bot identifier, rewritten whole on every change.
type SessionStore struct {
	path string
	mu   sync.Mutex
}

func NewSessionStore(dir string) *SessionStore {
	return &SessionStore{path: filepath.Join(dir, sessionsFile)}
}

func (s *SessionStore) load() (map[string]bot.Config, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]bot.Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions file: %w", err)
	}

	var out map[string]bot.Config
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("invalid sessions file: %w", err)
	}
	if out == nil {
		out = map[string]bot.Config{}
	}
	return out, nil
}

func (s *SessionStore) save(m map[string]bot.Config) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write sessions file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace sessions file: %w", err)
	}
	return nil
}

// Save records cfg under its identifier.
func (s *SessionStore) Save(cfg bot.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return err
	}
	m[cfg.ID] = cfg
	return s.save(m)
}

// Remove drops the persisted config for botID, if present.
func (s *SessionStore) Remove(botID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := m[botID]; !ok {
		return nil
	}
	delete(m, botID)
	return s.save(m)
}

// All returns every persisted config, ordered by identifier.
func (s *SessionStore) All() ([]bot.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return nil, err
	}

	out := make([]bot.Config, 0, len(m))
	for _, cfg := range m {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
