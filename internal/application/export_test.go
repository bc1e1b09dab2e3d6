package application

import "time"

// SetClock replaces the time source used for session bookkeeping.
func (r *SessionRegistry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}
