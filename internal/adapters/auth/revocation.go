package auth

import (
	"sync"
	"time"
)

// revocations holds revoked token ids until their tokens would expire anyway.
type revocations struct {
	mu  sync.Mutex
	ids map[string]time.Time
}

func newRevocations() *revocations {
	return &revocations{ids: make(map[string]time.Time)}
}

func (r *revocations) revoke(id string, exp, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prune(now)
	r.ids[id] = exp
}

func (r *revocations) revoked(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[id]
	return ok
}

func (r *revocations) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}

// prune drops entries whose token has expired. Caller holds r.mu.
func (r *revocations) prune(now time.Time) {
	for id, exp := range r.ids {
		if !now.Before(exp) {
			delete(r.ids, id)
		}
	}
}
