package ticketing

import "sync"

// userLocks serializes open requests per (guild, user) pair. The rate and count checks
// followed by the registry insert are a check-then-act sequence; holding the user's lock
// across both steps keeps a user from exceeding the concurrent ticket limit by
// interleaving two open requests.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

// lock acquires the lock for a (guild, user) pair and returns the unlock function.
func (u *userLocks) lock(guildID, userID string) func() {
	key := guildID + ":" + userID

	u.mu.Lock()
	m, ok := u.locks[key]
	if !ok {
		m = new(sync.Mutex)
		u.locks[key] = m
	}
	u.mu.Unlock()

	m.Lock()
	return m.Unlock
}
