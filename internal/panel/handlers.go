package panel

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/farllirs/botpanel/internal/bot"
	"github.com/farllirs/botpanel/internal/store"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.registry.Status(botIDParam(r))
	s.ok(w, payload{
		"botId":       snap.BotID,
		"name":        snap.Name,
		"status":      snap.Status,
		"prefix":      snap.Prefix,
		"state":       snap.State,
		"uptime":      snap.Uptime,
		"username":    snap.Username,
		"id":          snap.UserID,
		"serverCount": snap.ServerCount,
	})
}

func (s *Server) handleBots(w http.ResponseWriter, _ *http.Request) {
	s.ok(w, payload{"bots": s.registry.List()})
}

func (s *Server) handleServers(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.registry.Session(botIDParam(r))
	if !ok || sess.Status() != bot.StatusConnected {
		s.fail(w, "Bot not connected")
		return
	}
	guilds := sess.Guilds()
	if guilds == nil {
		guilds = []bot.GuildInfo{}
	}
	s.ok(w, payload{"servers": guilds})
}

type configRequest struct {
	Token    string `json:"token" validate:"required"`
	Prefix   string `json:"prefix"`
	BotID    string `json:"botId"`
	BotName  string `json:"botName"`
	BotState string `json:"botState" validate:"omitempty,oneof=active maintenance readonly"`
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if !s.decode(w, r, &req) {
		return
	}

	cfg := bot.Config{
		ID:     req.BotID,
		Token:  req.Token,
		Prefix: req.Prefix,
		Name:   req.BotName,
		State:  bot.State(req.BotState),
	}

	sess, err := s.registry.Configure(cfg)
	if err != nil {
		s.fail(w, fmt.Sprintf("Error: %v", err))
		return
	}

	// Persist after a successful configure so restore-sessions can bring
	// the bot back on the next panel start.
	if err := s.sessions.Save(sess.Config()); err != nil {
		s.log.Error().Err(err).Str("bot", sess.Config().ID).Msg("Failed to persist session config")
	}

	s.ok(w, payload{"message": "Bot configured successfully", "botId": sess.Config().ID})
}

type disconnectRequest struct {
	BotID string `json:"botId" validate:"required"`
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	var req disconnectRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.registry.Disconnect(req.BotID); err != nil {
		s.fail(w, fmt.Sprintf("Error: %v", err))
		return
	}
	if err := s.sessions.Remove(req.BotID); err != nil {
		s.log.Error().Err(err).Str("bot", req.BotID).Msg("Failed to remove persisted session config")
	}
	s.ok(w, payload{"message": "Bot disconnected successfully"})
}

func (s *Server) handleRestoreSessions(w http.ResponseWriter, _ *http.Request) {
	cfgs, err := s.sessions.All()
	if err != nil {
		s.fail(w, fmt.Sprintf("Error: %v", err))
		return
	}
	if len(cfgs) == 0 {
		s.ok(w, payload{"message": "No sessions to restore"})
		return
	}

	restored := []string{}
	for _, res := range s.registry.Restore(cfgs) {
		if res.Err == nil {
			restored = append(restored, res.BotID)
		}
	}
	s.ok(w, payload{
		"message":      fmt.Sprintf("%d bots restored", len(restored)),
		"restoredBots": restored,
	})
}

func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	cmds, err := s.store.ListCommands(botIDParam(r))
	if err != nil {
		s.fail(w, fmt.Sprintf("Error: %v", err))
		return
	}
	if cmds == nil {
		cmds = []store.Command{}
	}
	s.ok(w, payload{"commands": cmds})
}

type commandRequest struct {
	Trigger     string `json:"trigger" validate:"required"`
	Response    string `json:"response" validate:"required_without=Code"`
	Code        string `json:"code"`
	BotID       string `json:"botId"`
	Description string `json:"description"`
	Cooldown    int    `json:"cooldown" validate:"gte=0"`
}

func (s *Server) handleSaveCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if !s.decode(w, r, &req) {
		return
	}

	botID := req.BotID
	if botID == "" {
		botID = bot.DefaultBotID
	}
	kind := store.KindStatic
	if req.Code != "" {
		kind = store.KindExecutable
	}

	cmd := store.Command{
		BotID:       botID,
		Trigger:     req.Trigger,
		Kind:        kind,
		Response:    req.Response,
		Code:        req.Code,
		Description: req.Description,
		Cooldown:    req.Cooldown,
	}
	if err := s.store.UpsertCommand(cmd); err != nil {
		s.fail(w, fmt.Sprintf("Error: %v", err))
		return
	}
	s.ok(w, payload{"message": "Command saved successfully"})
}

func (s *Server) handleDeleteCommand(w http.ResponseWriter, r *http.Request) {
	trigger := r.PathValue("trigger")
	err := s.store.DeleteCommand(botIDParam(r), trigger)
	if errors.Is(err, store.ErrNotFound) {
		s.fail(w, "Command not found")
		return
	}
	if err != nil {
		s.fail(w, fmt.Sprintf("Error: %v", err))
		return
	}
	s.ok(w, payload{"message": "Command deleted successfully"})
}

func (s *Server) handleListVariants(w http.ResponseWriter, r *http.Request) {
	trigger := r.URL.Query().Get("command")
	if trigger == "" {
		s.fail(w, "Command is required")
		return
	}

	variants, err := s.store.ListVariants(botIDParam(r), trigger)
	if err != nil {
		s.fail(w, fmt.Sprintf("Error: %v", err))
		return
	}
	if variants == nil {
		variants = []store.Variant{}
	}
	s.ok(w, payload{"variants": variants})
}

type variantRequest struct {
	CommandTrigger string `json:"commandTrigger" validate:"required"`
	VariantName    string `json:"variantName" validate:"required"`
	Response       string `json:"response" validate:"required_without=Code"`
	Code           string `json:"code"`
	BotID          string `json:"botId"`
}

func (s *Server) handleSaveVariant(w http.ResponseWriter, r *http.Request) {
	var req variantRequest
	if !s.decode(w, r, &req) {
		return
	}

	botID := req.BotID
	if botID == "" {
		botID = bot.DefaultBotID
	}
	kind := store.KindStatic
	if req.Code != "" {
		kind = store.KindExecutable
	}

	v := store.Variant{
		BotID:          botID,
		CommandTrigger: req.CommandTrigger,
		Name:           req.VariantName,
		Kind:           kind,
		Response:       req.Response,
		Code:           req.Code,
	}
	if err := s.store.UpsertVariant(v); err != nil {
		s.fail(w, fmt.Sprintf("Error: %v", err))
		return
	}
	s.ok(w, payload{"message": "Variant saved successfully"})
}

func (s *Server) handleDeleteVariant(w http.ResponseWriter, r *http.Request) {
	trigger := r.PathValue("command")
	name := r.PathValue("variant")

	err := s.store.DeleteVariant(botIDParam(r), trigger, name)
	if errors.Is(err, store.ErrNotFound) {
		s.fail(w, "Variant not found")
		return
	}
	if err != nil {
		s.fail(w, fmt.Sprintf("Error: %v", err))
		return
	}
	s.ok(w, payload{"message": "Variant deleted successfully"})
}
