package memory

import (
	"context"
	"sync"

	"trivia-events-service/internal/domain"
)

type voteKey struct {
	userID    string
	eventID   string
	nodeIndex int
}

// VoteStore keeps the latest vote per (user, event, node).
type VoteStore struct {
	mu    sync.RWMutex
	votes map[voteKey]domain.Vote
}

func NewVoteStore() *VoteStore {
	return &VoteStore{votes: make(map[voteKey]domain.Vote)}
}

func (s *VoteStore) Upsert(_ context.Context, vote domain.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes[voteKey{vote.UserID, vote.EventID, vote.NodeIndex}] = vote
	return nil
}

func (s *VoteStore) Get(_ context.Context, userID, eventID string, nodeIndex int) (domain.Vote, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.votes[voteKey{userID, eventID, nodeIndex}]
	return v, ok, nil
}

func (s *VoteStore) Tally(_ context.Context, eventID string, nodeIndex int) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for k, v := range s.votes {
		if k.eventID == eventID && k.nodeIndex == nodeIndex {
			counts[v.OptionID]++
		}
	}
	return counts, nil
}

// Count returns the number of stored vote rows for one node.
func (s *VoteStore) Count(eventID string, nodeIndex int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for k := range s.votes {
		if k.eventID == eventID && k.nodeIndex == nodeIndex {
			n++
		}
	}
	return n
}
