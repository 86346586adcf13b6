package auth

import (
	"sync"
)

// EventType names a change of authentication state.
type EventType string

const (
	EventRegistered EventType = "registered"
	EventSignedIn   EventType = "signed_in"
	EventSignedOut  EventType = "signed_out"
)

// SessionEvent is published on every sign-in, sign-out and registration.
type SessionEvent struct {
	Type    EventType
	Session Session
}

// SessionObserver receives session events. Implementations must not block.
type SessionObserver interface {
	OnSessionChange(ev SessionEvent)
}

// ObserverFunc adapts a function to SessionObserver.
type ObserverFunc func(ev SessionEvent)

func (f ObserverFunc) OnSessionChange(ev SessionEvent) { f(ev) }

// Notifier fans session events out to subscribers.
type Notifier struct {
	mu        sync.RWMutex
	next      int
	observers map[int]SessionObserver
}

func NewNotifier() *Notifier {
	return &Notifier{observers: make(map[int]SessionObserver)}
}

// Subscribe registers obs and returns the function that removes it. Calling
// the returned function more than once is safe.
func (n *Notifier) Subscribe(obs SessionObserver) (unsubscribe func()) {
	n.mu.Lock()
	id := n.next
	n.next++
	n.observers[id] = obs
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.observers, id)
			n.mu.Unlock()
		})
	}
}

// Publish delivers ev to every current subscriber, synchronously.
func (n *Notifier) Publish(ev SessionEvent) {
	if n == nil {
		return
	}
	n.mu.RLock()
	observers := make([]SessionObserver, 0, len(n.observers))
	for _, obs := range n.observers {
		observers = append(observers, obs)
	}
	n.mu.RUnlock()

	for _, obs := range observers {
		obs.OnSessionChange(ev)
	}
}
