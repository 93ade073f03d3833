package repository

import "sync"

// Hub fans out per-user change signals so live watchers can re-query after
// any write. Signals are coalesced: a slow watcher sees at least one signal
// for any burst of writes, never a backlog.
type Hub struct {
	mu   sync.Mutex
	subs map[int64][]chan struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int64][]chan struct{})}
}

func (h *Hub) Notify(userID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[userID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (h *Hub) Subscribe(userID int64) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	h.subs[userID] = append(h.subs[userID], ch)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		subs := h.subs[userID]
		for i, c := range subs {
			if c == ch {
				h.subs[userID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
	return ch, cancel
}
