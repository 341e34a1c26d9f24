package app

import (
	"sync"

	"trivia-events-service/internal/domain"
)

type voteTopic struct {
	eventID   string
	nodeIndex int
}

// VoteHub fans out fresh vote stats to live subscribers of a vote node.
type VoteHub struct {
	mu          sync.Mutex
	subscribers map[voteTopic]map[chan domain.VoteStats]struct{}
}

func NewVoteHub() *VoteHub {
	return &VoteHub{subscribers: make(map[voteTopic]map[chan domain.VoteStats]struct{})}
}

// Subscribe registers a listener; initial is delivered first.
func (h *VoteHub) Subscribe(eventID string, nodeIndex int, initial domain.VoteStats) (<-chan domain.VoteStats, func()) {
	topic := voteTopic{eventID: eventID, nodeIndex: nodeIndex}
	ch := make(chan domain.VoteStats, 8)
	ch <- initial

	h.mu.Lock()
	if h.subscribers[topic] == nil {
		h.subscribers[topic] = make(map[chan domain.VoteStats]struct{})
	}
	h.subscribers[topic][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.subscribers[topic]
		if _, ok := subs[ch]; !ok {
			return
		}
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.subscribers, topic)
		}
	}
	return ch, cancel
}

// Broadcast delivers stats to every subscriber of its node. A subscriber that has not
// drained its buffer loses its oldest pending update instead of blocking the broadcast.
func (h *VoteHub) Broadcast(stats domain.VoteStats) {
	topic := voteTopic{eventID: stats.EventID, nodeIndex: stats.NodeIndex}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[topic] {
		select {
		case ch <- stats:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- stats
		}
	}
}

// Subscribers reports the number of listeners on a node.
func (h *VoteHub) Subscribers(eventID string, nodeIndex int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[voteTopic{eventID: eventID, nodeIndex: nodeIndex}])
}
