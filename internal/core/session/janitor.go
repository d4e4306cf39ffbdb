package session

import (
	"context"
	"time"
)

// Run expires idle sessions every SweepInterval until ctx is done.
func (s *SessionService) Run(ctx context.Context) {
	interval := s.cfg.SweepInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep removes sessions idle longer than IdleTTL from memory and store.
// Sessions in the middle of a turn are left for the next sweep.
func (s *SessionService) Sweep() int {
	if s.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.cfg.IdleTTL)
	expired := map[string]bool{}

	s.mu.Lock()
	for id, ls := range s.sessions {
		if !ls.mu.TryLock() {
			continue
		}
		if ls.lastUsed().Before(cutoff) {
			delete(s.sessions, id)
			expired[id] = true
		}
		ls.mu.Unlock()
	}
	active := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SessionsActive(active)

	if s.store != nil {
		removed, err := s.store.RemoveIdleSessions(cutoff)
		if err != nil {
			s.logger.Warn().Err(err).Msg("expire persisted sessions failed")
		}
		for _, id := range removed {
			expired[id] = true
		}
	}

	if n := len(expired); n > 0 {
		s.metrics.SessionsExpired(n)
		s.logger.Info().Int("expired", n).Int("active", active).Msg("idle sessions removed")
	}
	return len(expired)
}
