package timer

import "sync"

// subscriberBuffer bounds each subscriber channel. A dropped wakeup is safe:
// subscribers re-derive state on their next tick rather than trust a payload.
const subscriberBuffer = 8

// Notifier is the process-wide change broadcast for active sessions, keyed by
// user. Created once at startup and shared; no persistence, no cross-process
// delivery.
type Notifier struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]chan struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[string]map[int]chan struct{})}
}

// Subscribe registers a wakeup channel for the user's change events. The
// returned cancel func must be called on teardown; it is idempotent.
func (n *Notifier) Subscribe(userID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, subscriberBuffer)

	n.mu.Lock()
	n.nextID++
	id := n.nextID
	if n.subs[userID] == nil {
		n.subs[userID] = make(map[int]chan struct{})
	}
	n.subs[userID][id] = ch
	n.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs[userID], id)
			if len(n.subs[userID]) == 0 {
				delete(n.subs, userID)
			}
			n.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish wakes every current subscriber for the user. Delivery is best-effort:
// a full channel is skipped, never blocked on.
func (n *Notifier) Publish(userID string) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, ch := range n.subs[userID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// SubscriberCount reports how many subscribers a user currently has.
func (n *Notifier) SubscriberCount(userID string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs[userID])
}
