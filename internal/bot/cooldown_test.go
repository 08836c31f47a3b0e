package bot

import (
	"testing"
	"time"
)

func fakeClock(start time.Time) (*CooldownTracker, *time.Time) {
	tr := NewCooldownTracker()
	current := start
	tr.now = func() time.Time { return current }
	return tr, &current
}

func TestCheckAndArm_ZeroCooldownAlwaysAllowed(t *testing.T) {
	t.Parallel()

	tr, _ := fakeClock(time.Now())
	for i := 0; i < 3; i++ {
		if res := tr.CheckAndArm("b1", "u1", "foo", 0); !res.Allowed {
			t.Fatalf("invocation %d throttled with zero cooldown", i)
		}
	}
	if res := tr.CheckAndArm("b1", "u1", "foo", -1); !res.Allowed {
		t.Error("negative cooldown throttled")
	}
}

func TestCheckAndArm_ThrottlesWithRemaining(t *testing.T) {
	t.Parallel()

	tr, current := fakeClock(time.Now())

	if res := tr.CheckAndArm("b1", "u1", "foo", 5); !res.Allowed {
		t.Fatal("first invocation throttled")
	}

	*current = current.Add(2 * time.Second)
	res := tr.CheckAndArm("b1", "u1", "foo", 5)
	if res.Allowed {
		t.Fatal("second invocation within cooldown was allowed")
	}
	if res.Remaining != 3.0 {
		t.Errorf("Remaining = %v, want 3.0", res.Remaining)
	}

	*current = current.Add(3100 * time.Millisecond)
	if res := tr.CheckAndArm("b1", "u1", "foo", 5); !res.Allowed {
		t.Errorf("invocation after expiry throttled, remaining %v", res.Remaining)
	}
}

func TestCheckAndArm_RemainingRoundedToTenth(t *testing.T) {
	t.Parallel()

	tr, current := fakeClock(time.Now())
	tr.CheckAndArm("b1", "u1", "foo", 5)

	*current = current.Add(1230 * time.Millisecond)
	res := tr.CheckAndArm("b1", "u1", "foo", 5)
	if res.Allowed {
		t.Fatal("expected throttle")
	}
	if res.Remaining != 3.8 {
		t.Errorf("Remaining = %v, want 3.8", res.Remaining)
	}
}

func TestCheckAndArm_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	tr, _ := fakeClock(time.Now())
	tr.CheckAndArm("b1", "u1", "foo", 5)

	cases := []struct {
		name, bot, user, trigger string
	}{
		{"other bot", "b2", "u1", "foo"},
		{"other user", "b1", "u2", "foo"},
		{"other trigger", "b1", "u1", "bar"},
	}
	for _, tc := range cases {
		if res := tr.CheckAndArm(tc.bot, tc.user, tc.trigger, 5); !res.Allowed {
			t.Errorf("%s throttled by unrelated cooldown", tc.name)
		}
	}

	// The original key is still armed.
	if res := tr.CheckAndArm("b1", "u1", "foo", 5); res.Allowed {
		t.Error("original key lost its cooldown")
	}
}
