package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/farllirs/botpanel/internal/store"
)

func testSession(cfg Config, source CommandSource) *Session {
	cfg.normalize()
	return newSession(cfg, NewResolver(source), NewCooldownTracker(), NewExecutor(zerolog.Nop()), zerolog.Nop())
}

func dispatchMessage(s *Session, rec *recorder, content string) {
	mc := rec.context()
	mc.BotID = s.cfg.ID
	mc.Content = content
	s.dispatch(mc)
}

func TestDispatch_RunsRegisteredTriggerOnce(t *testing.T) {
	t.Parallel()

	s := testSession(Config{ID: "b1", Token: "tok"}, greetSource())
	rec := &recorder{}
	dispatchMessage(s, rec, "!greet")

	if len(rec.replies) != 1 || rec.replies[0] != "hello" {
		t.Errorf("replies = %v, want exactly one hello", rec.replies)
	}
}

func TestDispatch_IgnoresNonPrefixedMessages(t *testing.T) {
	t.Parallel()

	s := testSession(Config{ID: "b1", Token: "tok"}, greetSource())
	rec := &recorder{}
	dispatchMessage(s, rec, "greet everyone")
	dispatchMessage(s, rec, "just chatting")

	if len(rec.replies) != 0 {
		t.Errorf("non-command messages produced replies: %v", rec.replies)
	}
}

func TestDispatch_CooldownNotice(t *testing.T) {
	t.Parallel()

	s := testSession(Config{ID: "b1", Token: "tok"}, greetSource())
	current := time.Now()
	s.cooldowns.now = func() time.Time { return current }

	rec := &recorder{}
	dispatchMessage(s, rec, "!greet")

	current = current.Add(2 * time.Second)
	dispatchMessage(s, rec, "!greet")

	if len(rec.replies) != 2 {
		t.Fatalf("replies = %v, want command output then cooldown notice", rec.replies)
	}
	if rec.replies[0] != "hello" {
		t.Errorf("first reply = %q", rec.replies[0])
	}
	if !strings.Contains(rec.replies[1], "3.0 seconds") || !strings.Contains(rec.replies[1], "`greet`") {
		t.Errorf("cooldown notice = %q", rec.replies[1])
	}
}

func TestDispatch_MaintenanceShortCircuits(t *testing.T) {
	t.Parallel()

	s := testSession(Config{ID: "b1", Token: "tok", State: StateMaintenance}, greetSource())
	rec := &recorder{}
	dispatchMessage(s, rec, "!greet")

	if len(rec.replies) != 0 {
		t.Errorf("maintenance session replied: %v", rec.replies)
	}
}

func TestDispatch_ReadonlyExecutable(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		commands: []store.Command{
			{BotID: "b1", Trigger: "run", Kind: store.KindExecutable, Code: `message.reply("side effect")`},
		},
	}
	s := testSession(Config{ID: "b1", Token: "tok", State: StateReadonly}, source)
	rec := &recorder{}
	dispatchMessage(s, rec, "!run")

	if len(rec.replies) != 1 || rec.replies[0] != readonlyReply {
		t.Errorf("replies = %v, want only the read-only notice", rec.replies)
	}
}

func TestPresenceText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state State
		want  string
	}{
		{StateMaintenance, "🔧 Under maintenance"},
		{StateReadonly, "📚 Read-only mode"},
		{StateActive, "MyBot | Active"},
	}
	for _, tc := range tests {
		if got := presenceText(tc.state, "MyBot"); got != tc.want {
			t.Errorf("presenceText(%s) = %q, want %q", tc.state, got, tc.want)
		}
	}
}

func TestConfigNormalize(t *testing.T) {
	t.Parallel()

	cfg := Config{Token: "tok", State: State("bogus")}
	cfg.normalize()

	if cfg.ID != DefaultBotID {
		t.Errorf("ID = %q, want %q", cfg.ID, DefaultBotID)
	}
	if cfg.Prefix != DefaultPrefix {
		t.Errorf("Prefix = %q, want %q", cfg.Prefix, DefaultPrefix)
	}
	if cfg.Name != DefaultName {
		t.Errorf("Name = %q, want %q", cfg.Name, DefaultName)
	}
	if cfg.State != StateActive {
		t.Errorf("State = %q, want active", cfg.State)
	}
}
