package bot

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// Status is the connection lifecycle state of one bot session.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
	StatusDisconnected Status = "disconnected"
)

// State is the per-bot operating mode set from the panel.
type State string

const (
	StateActive      State = "active"
	StateMaintenance State = "maintenance"
	StateReadonly    State = "readonly"
)

const (
	DefaultBotID  = "default"
	DefaultPrefix = "!"
	DefaultName   = "Discord Bot"
)

// Config describes one bot connection as configured from the panel.
type Config struct {
	ID     string `json:"botId"`
	Token  string `json:"token"`
	Prefix string `json:"prefix"`
	Name   string `json:"name"`
	State  State  `json:"state"`
}

func (c *Config) normalize() {
	if c.ID == "" {
		c.ID = DefaultBotID
	}
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.Name == "" {
		c.Name = DefaultName
	}
	switch c.State {
	case StateActive, StateMaintenance, StateReadonly:
	default:
		c.State = StateActive
	}
}

// presenceText is the activity line announced on connect, derived from the
// operating state.
func presenceText(state State, name string) string {
	switch state {
	case StateMaintenance:
		return "🔧 Under maintenance"
	case StateReadonly:
		return "📚 Read-only mode"
	default:
		return name + " | Active"
	}
}

// Session is one live bot connection. Each inbound message runs through
// resolver → cooldown gate → state gate → executor, stopping at the first
// gate that says no.
type Session struct {
	cfg       Config
	resolver  *Resolver
	cooldowns *CooldownTracker
	executor  *Executor
	log       zerolog.Logger

	dg *discordgo.Session

	mu        sync.RWMutex
	status    Status
	startedAt time.Time
	closed    bool
}

func newSession(cfg Config, resolver *Resolver, cooldowns *CooldownTracker, executor *Executor, log zerolog.Logger) *Session {
	return &Session{
		cfg:       cfg,
		resolver:  resolver,
		cooldowns: cooldowns,
		executor:  executor,
		log:       log.With().Str("component", "session").Str("bot", cfg.ID).Logger(),
		status:    StatusConnecting,
	}
}

// Config returns a copy of the session configuration.
func (s *Session) Config() Config { return s.cfg }

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Session) setStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// live reports whether the session may still deliver output. Output of
// in-flight commands is discarded once the session is closed.
func (s *Session) live() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed
}

// connect opens the Discord gateway connection. A login failure moves the
// session to the error state and is returned to the caller; there is no
// automatic retry.
func (s *Session) connect() error {
	dg, err := discordgo.New("Bot " + s.cfg.Token)
	if err != nil {
		s.setStatus(StatusError)
		return fmt.Errorf("failed to create session for bot %q: %w", s.cfg.ID, err)
	}

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildMembers

	// Handlers run on the gateway read loop so messages from one channel
	// are processed in arrival order.
	dg.SyncEvents = true

	dg.AddHandler(s.onReady)
	dg.AddHandler(s.onMessageCreate)

	if err := dg.Open(); err != nil {
		s.setStatus(StatusError)
		return fmt.Errorf("failed to connect bot %q: %w", s.cfg.ID, err)
	}

	s.mu.Lock()
	if s.closed {
		// Replaced while the login was in flight, never two live
		// connections under one identifier.
		s.mu.Unlock()
		dg.Close()
		return fmt.Errorf("bot %q was disconnected during login", s.cfg.ID)
	}
	s.dg = dg
	s.mu.Unlock()
	return nil
}

// close stops event delivery and tears down the gateway connection.
func (s *Session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.status = StatusDisconnected
	dg := s.dg
	s.dg = nil
	s.mu.Unlock()

	if dg != nil {
		if err := dg.Close(); err != nil {
			s.log.Warn().Err(err).Msg("Error closing gateway connection")
		}
	}
	s.log.Info().Msg("Session disconnected")
}

func (s *Session) onReady(dg *discordgo.Session, _ *discordgo.Ready) {
	s.mu.Lock()
	s.status = StatusConnected
	s.startedAt = time.Now()
	s.mu.Unlock()

	if err := dg.UpdateGameStatus(0, presenceText(s.cfg.State, s.cfg.Name)); err != nil {
		s.log.Warn().Err(err).Msg("Failed to set presence")
	}
	s.log.Info().Str("username", dg.State.User.Username).Msg("Bot connected")
}

func (s *Session) onMessageCreate(dg *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	mc := &MessageContext{
		BotID:      s.cfg.ID,
		GuildID:    m.GuildID,
		ChannelID:  m.ChannelID,
		MessageID:  m.ID,
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
		Content:    m.Content,
		Reply: func(text string) error {
			if !s.live() {
				return nil
			}
			_, err := dg.ChannelMessageSendReply(m.ChannelID, text, m.Reference())
			return err
		},
		Send: func(channelID, text string) error {
			if !s.live() {
				return nil
			}
			_, err := dg.ChannelMessageSend(channelID, text)
			return err
		},
	}

	s.dispatch(mc)
}

// dispatch runs the command pipeline for one inbound message.
func (s *Session) dispatch(mc *MessageContext) {
	res, err := s.resolver.Resolve(s.cfg.ID, s.cfg.Prefix, mc.Content)
	if err != nil {
		s.log.Error().Err(err).Msg("Command resolution failed")
		return
	}
	if res == nil {
		return
	}

	if cd := s.cooldowns.CheckAndArm(s.cfg.ID, mc.AuthorID, res.Trigger, res.Cooldown); !cd.Allowed {
		notice := fmt.Sprintf("Please wait %.1f seconds before using `%s` again.", cd.Remaining, res.Trigger)
		if err := mc.Reply(notice); err != nil {
			s.log.Warn().Err(err).Msg("Failed to send cooldown notice")
		}
		return
	}

	s.executor.Execute(mc, res, s.cfg.State)
}

// GuildInfo is the panel-facing shape of one guild a bot is in.
type GuildInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"memberCount"`
	Icon        string `json:"icon,omitempty"`
}

// Guilds lists the guilds the bot currently sees, or nil when the session
// has no live gateway state.
func (s *Session) Guilds() []GuildInfo {
	s.mu.RLock()
	dg := s.dg
	s.mu.RUnlock()
	if dg == nil || dg.State == nil {
		return nil
	}

	var out []GuildInfo
	for _, g := range dg.State.Guilds {
		out = append(out, GuildInfo{
			ID:          g.ID,
			Name:        g.Name,
			MemberCount: g.MemberCount,
			Icon:        g.IconURL(""),
		})
	}
	return out
}
