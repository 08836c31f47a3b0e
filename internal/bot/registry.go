package bot

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// ErrSessionNotFound is returned when an operation targets a bot identifier
// with no live session.
var ErrSessionNotFound = errors.New("session not found")

// Registry owns every live bot session and guarantees at most one
// connection per identifier. It also owns the shared dispatch plumbing
// (resolver, cooldown tracker, executor) handed to each session.
type Registry struct {
	resolver  *Resolver
	cooldowns *CooldownTracker
	executor  *Executor
	log       zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session

	// connector opens a session's platform connection; replaced in tests.
	connector func(*Session) error
}

func NewRegistry(source CommandSource, log zerolog.Logger) *Registry {
	return &Registry{
		resolver:  NewResolver(source),
		cooldowns: NewCooldownTracker(),
		executor:  NewExecutor(log),
		log:       log.With().Str("component", "registry").Logger(),
		sessions:  make(map[string]*Session),
		connector: (*Session).connect,
	}
}

// SetConnector replaces how sessions open their platform connection.
// Tests use it to run the registry against a stub gateway.
func (r *Registry) SetConnector(fn func(*Session) error) {
	r.connector = fn
}

// Configure creates the session for cfg, tearing down any existing session
// under the same identifier first. The torn-down connection is fully
// closed before the replacement exists, so two live connections for one
// identifier are never observable. A connection failure leaves the session
// registered in the error state and is returned to the caller.
func (r *Registry) Configure(cfg Config) (*Session, error) {
	cfg.normalize()

	r.mu.Lock()
	if old, ok := r.sessions[cfg.ID]; ok {
		r.log.Info().Str("bot", cfg.ID).Msg("Replacing existing session")
		old.close()
		delete(r.sessions, cfg.ID)
	}
	s := newSession(cfg, r.resolver, r.cooldowns, r.executor, r.log)
	r.sessions[cfg.ID] = s
	r.mu.Unlock()

	if err := r.connector(s); err != nil {
		s.setStatus(StatusError)
		r.log.Error().Err(err).Str("bot", cfg.ID).Msg("Bot login failed")
		return s, err
	}
	r.log.Info().Str("bot", cfg.ID).Str("prefix", cfg.Prefix).Str("state", string(cfg.State)).Msg("Bot configured")
	return s, nil
}

// Disconnect tears down the session for botID.
func (r *Registry) Disconnect(botID string) error {
	r.mu.Lock()
	s, ok := r.sessions[botID]
	if ok {
		delete(r.sessions, botID)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("bot %q: %w", botID, ErrSessionNotFound)
	}
	s.close()
	return nil
}

// Session returns the live session for botID, if any.
func (r *Registry) Session(botID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[botID]
	return s, ok
}

// Status returns a snapshot for botID, with disconnected defaults when no
// session exists.
func (r *Registry) Status(botID string) Snapshot {
	if s, ok := r.Session(botID); ok {
		return s.Snapshot()
	}
	return disconnectedSnapshot(botID)
}

// List returns snapshots of every live session, ordered by identifier.
func (r *Registry) List() []Snapshot {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	out := make([]Snapshot, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BotID < out[j].BotID })
	return out
}

// RestoreResult reports the outcome of restoring one persisted config.
type RestoreResult struct {
	BotID string
	Err   error
}

// Restore configures each previously persisted config independently. One
// bot failing to connect never blocks the others; every failure is
// reported in its own result.
func (r *Registry) Restore(cfgs []Config) []RestoreResult {
	results := make([]RestoreResult, 0, len(cfgs))
	for _, cfg := range cfgs {
		cfg.normalize()
		_, err := r.Configure(cfg)
		if err != nil {
			r.log.Error().Err(err).Str("bot", cfg.ID).Msg("Failed to restore session")
		}
		results = append(results, RestoreResult{BotID: cfg.ID, Err: err})
	}
	return results
}

// Shutdown disconnects every live session.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		sessions = append(sessions, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}
