package bot

import "time"

// Snapshot is the panel-facing status of one bot identifier. Fields for
// gateway identity stay empty until the session reaches connected.
type Snapshot struct {
	BotID       string `json:"botId"`
	Name        string `json:"name"`
	Status      Status `json:"status"`
	Prefix      string `json:"prefix"`
	State       State  `json:"state"`
	Uptime      int64  `json:"uptime"`
	Username    string `json:"username"`
	UserID      string `json:"id"`
	ServerCount int    `json:"serverCount"`
}

// disconnectedSnapshot is what status queries return for an identifier with
// no live session.
func disconnectedSnapshot(botID string) Snapshot {
	return Snapshot{
		BotID:  botID,
		Name:   DefaultName,
		Status: StatusDisconnected,
		Prefix: DefaultPrefix,
		State:  StateActive,
	}
}

// Snapshot captures the current observable state of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		BotID:  s.cfg.ID,
		Name:   s.cfg.Name,
		Status: s.status,
		Prefix: s.cfg.Prefix,
		State:  s.cfg.State,
	}

	if s.status == StatusConnected && !s.startedAt.IsZero() {
		snap.Uptime = time.Since(s.startedAt).Milliseconds()
	}
	if s.dg != nil && s.dg.State != nil && s.dg.State.User != nil {
		snap.Username = s.dg.State.User.Username
		snap.UserID = s.dg.State.User.ID
		snap.ServerCount = len(s.dg.State.Guilds)
	}
	return snap
}
