package bot

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func testRegistry() *Registry {
	r := NewRegistry(&fakeSource{}, zerolog.Nop())
	r.SetConnector(func(s *Session) error {
		s.setStatus(StatusConnected)
		return nil
	})
	return r
}

func TestConfigure_Defaults(t *testing.T) {
	t.Parallel()

	r := testRegistry()
	s, err := r.Configure(Config{Token: "tok"})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}

	cfg := s.Config()
	if cfg.ID != DefaultBotID || cfg.Prefix != DefaultPrefix || cfg.State != StateActive {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if got := r.Status(DefaultBotID).Status; got != StatusConnected {
		t.Errorf("Status = %s, want connected", got)
	}
}

func TestConfigure_ReplacesExistingSession(t *testing.T) {
	t.Parallel()

	r := testRegistry()
	first, err := r.Configure(Config{ID: "b1", Token: "tok1"})
	if err != nil {
		t.Fatalf("first Configure: %v", err)
	}

	second, err := r.Configure(Config{ID: "b1", Token: "tok2", Prefix: "?"})
	if err != nil {
		t.Fatalf("second Configure: %v", err)
	}

	if first == second {
		t.Fatal("Configure reused the old session")
	}
	if first.Status() != StatusDisconnected {
		t.Errorf("old session status = %s, want disconnected", first.Status())
	}
	if got, _ := r.Session("b1"); got != second {
		t.Error("registry does not hold the replacement session")
	}
	if len(r.List()) != 1 {
		t.Errorf("List() has %d sessions, want 1", len(r.List()))
	}
}

func TestConfigure_LoginFailureSurfacesAndKeepsErrorState(t *testing.T) {
	t.Parallel()

	r := NewRegistry(&fakeSource{}, zerolog.Nop())
	r.SetConnector(func(s *Session) error {
		s.setStatus(StatusError)
		return errors.New("invalid token")
	})

	_, err := r.Configure(Config{ID: "b1", Token: "bad"})
	if err == nil {
		t.Fatal("Configure succeeded with failing connector")
	}
	if got := r.Status("b1").Status; got != StatusError {
		t.Errorf("Status = %s, want error", got)
	}
}

func TestDisconnect(t *testing.T) {
	t.Parallel()

	r := testRegistry()
	if _, err := r.Configure(Config{ID: "b1", Token: "tok"}); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	if err := r.Disconnect("b1"); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if err := r.Disconnect("b1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Disconnect = %v, want ErrSessionNotFound", err)
	}
}

func TestStatus_DisconnectedDefaults(t *testing.T) {
	t.Parallel()

	r := testRegistry()
	snap := r.Status("ghost")
	if snap.Status != StatusDisconnected {
		t.Errorf("Status = %s, want disconnected", snap.Status)
	}
	if snap.BotID != "ghost" || snap.Prefix != DefaultPrefix || snap.State != StateActive {
		t.Errorf("unexpected defaults: %+v", snap)
	}
}

func TestRestore_ContinuesPastFailures(t *testing.T) {
	t.Parallel()

	r := NewRegistry(&fakeSource{}, zerolog.Nop())
	r.SetConnector(func(s *Session) error {
		if s.Config().ID == "b2" {
			s.setStatus(StatusError)
			return errors.New("login failed")
		}
		s.setStatus(StatusConnected)
		return nil
	})

	results := r.Restore([]Config{
		{ID: "b1", Token: "t1"},
		{ID: "b2", Token: "t2"},
		{ID: "b3", Token: "t3"},
	})

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("healthy bots failed: %v, %v", results[0].Err, results[2].Err)
	}
	if results[1].Err == nil {
		t.Error("failing bot reported no error")
	}
	if r.Status("b1").Status != StatusConnected || r.Status("b3").Status != StatusConnected {
		t.Error("surviving bots did not reach connected")
	}
}

func TestList_SortedByIdentifier(t *testing.T) {
	t.Parallel()

	r := testRegistry()
	for _, id := range []string{"zeta", "alpha", "mid"} {
		if _, err := r.Configure(Config{ID: id, Token: "tok"}); err != nil {
			t.Fatalf("Configure(%s): %v", id, err)
		}
	}

	list := r.List()
	if len(list) != 3 {
		t.Fatalf("List() = %d sessions, want 3", len(list))
	}
	for i, want := range []string{"alpha", "mid", "zeta"} {
		if list[i].BotID != want {
			t.Errorf("List()[%d] = %s, want %s", i, list[i].BotID, want)
		}
	}
}

func TestShutdown_ClosesEverything(t *testing.T) {
	t.Parallel()

	r := testRegistry()
	s1, _ := r.Configure(Config{ID: "b1", Token: "tok"})
	s2, _ := r.Configure(Config{ID: "b2", Token: "tok"})

	r.Shutdown()

	if s1.Status() != StatusDisconnected || s2.Status() != StatusDisconnected {
		t.Error("sessions survived Shutdown")
	}
	if len(r.List()) != 0 {
		t.Error("registry still lists sessions after Shutdown")
	}
}
