package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a delete targets a command or variant that
// does not exist.
var ErrNotFound = errors.New("not found")

const (
	commandsFile = "commands.json"
	variantsFile = "variants.json"
)

// Store persists commands and variants as two flat JSON arrays. Every write
// is a whole-collection rewrite (read all, mutate, write all); the mutex
// only serializes writers inside this process, concurrent processes racing
// on the same files can still lose updates.
type Store struct {
	commandsPath string
	variantsPath string
	mu           sync.Mutex
	log          zerolog.Logger
}

// Open prepares a Store rooted at dir, creating the directory and empty
// collection files as needed.
func Open(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Store{
		commandsPath: filepath.Join(dir, commandsFile),
		variantsPath: filepath.Join(dir, variantsFile),
		log:          log.With().Str("component", "store").Logger(),
	}

	// Touch both files so the panel sees valid collections from the start.
	var cmds []Command
	if err := readArray(s.commandsPath, &cmds); err != nil {
		return nil, err
	}
	var vars []Variant
	if err := readArray(s.variantsPath, &vars); err != nil {
		return nil, err
	}
	return s, nil
}

// matchesBot reports whether a record owner applies to botID. Ownerless
// records are global and match every bot; no precedence between a global
// and a bot-specific record with the same trigger, store order decides.
func matchesBot(owner, botID string) bool {
	return owner == "" || owner == botID
}

// ListCommands returns, in store order, every command applicable to botID.
func (s *Store) ListCommands(botID string) ([]Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadCommands()
	if err != nil {
		return nil, err
	}

	var out []Command
	for _, c := range all {
		if matchesBot(c.BotID, botID) {
			out = append(out, c)
		}
	}
	return out, nil
}

// FindCommand returns the first applicable command whose trigger matches
// case-insensitively, or nil when there is none.
func (s *Store) FindCommand(botID, trigger string) (*Command, error) {
	cmds, err := s.ListCommands(botID)
	if err != nil {
		return nil, err
	}
	for i := range cmds {
		if strings.EqualFold(cmds[i].Trigger, trigger) {
			return &cmds[i], nil
		}
	}
	return nil, nil
}

// UpsertCommand creates or updates a command keyed by (owner, trigger).
func (s *Store) UpsertCommand(cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadCommands()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for i := range all {
		if strings.EqualFold(all[i].Trigger, cmd.Trigger) && matchesBot(all[i].BotID, cmd.BotID) {
			cmd.CreatedAt = all[i].CreatedAt
			cmd.UpdatedAt = now
			all[i] = cmd
			return s.saveCommands(all)
		}
	}

	cmd.CreatedAt = now
	cmd.UpdatedAt = now
	all = append(all, cmd)
	return s.saveCommands(all)
}

// DeleteCommand removes a command and cascades to every variant of that
// trigger for the same bot. The two collections are rewritten back to back
// so callers observe the delete as one operation.
func (s *Store) DeleteCommand(botID, trigger string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadCommands()
	if err != nil {
		return err
	}

	kept := all[:0]
	for _, c := range all {
		if strings.EqualFold(c.Trigger, trigger) && matchesBot(c.BotID, botID) {
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) == len(all) {
		return fmt.Errorf("command %q: %w", trigger, ErrNotFound)
	}
	if err := s.saveCommands(kept); err != nil {
		return err
	}

	if err := s.deleteVariantsOf(botID, trigger); err != nil {
		// The command itself is gone; orphaned variants are invisible to
		// the resolver, so log instead of failing the delete.
		s.log.Error().Err(err).Str("trigger", trigger).Msg("Failed to cascade variant delete")
	}
	return nil
}

// ListVariants returns, in store order, the variants of trigger applicable
// to botID.
func (s *Store) ListVariants(botID, trigger string) ([]Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadVariants()
	if err != nil {
		return nil, err
	}

	var out []Variant
	for _, v := range all {
		if strings.EqualFold(v.CommandTrigger, trigger) && matchesBot(v.BotID, botID) {
			out = append(out, v)
		}
	}
	return out, nil
}

// FindVariant returns the first matching variant by case-insensitive name,
// or nil when there is none.
func (s *Store) FindVariant(botID, trigger, name string) (*Variant, error) {
	vars, err := s.ListVariants(botID, trigger)
	if err != nil {
		return nil, err
	}
	for i := range vars {
		if strings.EqualFold(vars[i].Name, name) {
			return &vars[i], nil
		}
	}
	return nil, nil
}

// UpsertVariant creates or updates a variant keyed by (owner, trigger, name).
func (s *Store) UpsertVariant(v Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadVariants()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for i := range all {
		if strings.EqualFold(all[i].CommandTrigger, v.CommandTrigger) &&
			strings.EqualFold(all[i].Name, v.Name) &&
			matchesBot(all[i].BotID, v.BotID) {
			v.CreatedAt = all[i].CreatedAt
			v.UpdatedAt = now
			all[i] = v
			return s.saveVariants(all)
		}
	}

	v.CreatedAt = now
	v.UpdatedAt = now
	all = append(all, v)
	return s.saveVariants(all)
}

// DeleteVariant removes a single named variant.
func (s *Store) DeleteVariant(botID, trigger, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadVariants()
	if err != nil {
		return err
	}

	kept := all[:0]
	for _, v := range all {
		if strings.EqualFold(v.CommandTrigger, trigger) &&
			strings.EqualFold(v.Name, name) &&
			matchesBot(v.BotID, botID) {
			continue
		}
		kept = append(kept, v)
	}
	if len(kept) == len(all) {
		return fmt.Errorf("variant %q of %q: %w", name, trigger, ErrNotFound)
	}
	return s.saveVariants(kept)
}

// deleteVariantsOf drops every variant of trigger for botID. Removing none
// is not an error here, a command may simply have no variants.
func (s *Store) deleteVariantsOf(botID, trigger string) error {
	all, err := s.loadVariants()
	if err != nil {
		return err
	}

	kept := all[:0]
	for _, v := range all {
		if strings.EqualFold(v.CommandTrigger, trigger) && matchesBot(v.BotID, botID) {
			continue
		}
		kept = append(kept, v)
	}
	if len(kept) == len(all) {
		return nil
	}
	return s.saveVariants(kept)
}

func (s *Store) loadCommands() ([]Command, error) {
	var cmds []Command
	if err := readArray(s.commandsPath, &cmds); err != nil {
		return nil, err
	}
	return cmds, nil
}

func (s *Store) saveCommands(cmds []Command) error {
	if cmds == nil {
		cmds = []Command{}
	}
	return writeArray(s.commandsPath, cmds)
}

func (s *Store) loadVariants() ([]Variant, error) {
	var vars []Variant
	if err := readArray(s.variantsPath, &vars); err != nil {
		return nil, err
	}
	return vars, nil
}

func (s *Store) saveVariants(vars []Variant) error {
	if vars == nil {
		vars = []Variant{}
	}
	return writeArray(s.variantsPath, vars)
}
