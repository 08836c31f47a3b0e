package bot

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// CooldownResult is the outcome of a cooldown gate check.
type CooldownResult struct {
	Allowed bool
	// Remaining seconds until the command may run again, rounded to one
	// decimal. Zero when Allowed.
	Remaining float64
}

// CooldownTracker throttles command use per (bot, user, trigger). State is
// in-memory only and vanishes on restart.
type CooldownTracker struct {
	mu     sync.Mutex
	expiry map[string]time.Time
	now    func() time.Time
}

func NewCooldownTracker() *CooldownTracker {
	return &CooldownTracker{
		expiry: make(map[string]time.Time),
		now:    time.Now,
	}
}

func cooldownKey(botID, userID, trigger string) string {
	return fmt.Sprintf("%s-%s-%s", botID, userID, trigger)
}

// CheckAndArm gates a command invocation. With seconds <= 0 it always
// allows. Otherwise an unexpired entry yields Throttled with the remaining
// wait, and a fresh invocation arms the cooldown and schedules its removal.
func (t *CooldownTracker) CheckAndArm(botID, userID, trigger string, seconds int) CooldownResult {
	if seconds <= 0 {
		return CooldownResult{Allowed: true}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	key := cooldownKey(botID, userID, trigger)
	now := t.now()

	if until, ok := t.expiry[key]; ok && now.Before(until) {
		remaining := until.Sub(now).Seconds()
		return CooldownResult{Remaining: math.Round(remaining*10) / 10}
	}

	duration := time.Duration(seconds) * time.Second
	t.expiry[key] = now.Add(duration)
	time.AfterFunc(duration, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if until, ok := t.expiry[key]; ok && !t.now().Before(until) {
			delete(t.expiry, key)
		}
	})
	return CooldownResult{Allowed: true}
}
