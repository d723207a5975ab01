package relay

import (
	"sync"

	e "nuclight.org/relay-tg-bot/pkg/entities"
)

// ReplyState remembers which user the owner is replying to. There is a single
// slot: setting a new target replaces the previous one.
type ReplyState struct {
	mu      sync.Mutex
	target  e.Identity
	pending bool
}

func (s *ReplyState) SetPending(target e.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.target = target
	s.pending = true
}

// TakePending returns the pending target and clears it.
func (s *ReplyState) TakePending() (e.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.target, s.pending
	s.target, s.pending = 0, false

	return target, ok
}

func (s *ReplyState) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.target, s.pending = 0, false
}
