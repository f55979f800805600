package bridge

import "sync"

// ActorLock admits at most one in-flight upload per actor. Acquisition is
// non-blocking; a second upload attempt while the first is still running is
// dropped by the caller.
type ActorLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewActorLock creates an empty lock table.
func NewActorLock() *ActorLock {
	return &ActorLock{held: make(map[string]struct{})}
}

// TryAcquire claims the actor's slot. It returns false when an upload for
// the actor is already in flight.
func (l *ActorLock) TryAcquire(actor string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[actor]; ok {
		return false
	}
	l.held[actor] = struct{}{}
	return true
}

// Release frees the actor's slot. Releasing an unheld slot is a no-op.
func (l *ActorLock) Release(actor string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, actor)
}
