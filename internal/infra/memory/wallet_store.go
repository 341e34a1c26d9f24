package memory

import (
	"context"
	"sync"

	"trivia-events-service/internal/domain"
)

// WalletStore keeps user balances in memory and remembers which grants it applied.
type WalletStore struct {
	mu       sync.Mutex
	balances map[string]*domain.Balance
	applied  map[string]map[string]struct{} // userID -> grant IDs
	// FailNext makes the next Apply fail; tests use it to simulate a crash mid-grant.
	FailNext error
}

func NewWalletStore() *WalletStore {
	return &WalletStore{
		balances: make(map[string]*domain.Balance),
		applied:  make(map[string]map[string]struct{}),
	}
}

func (s *WalletStore) Apply(_ context.Context, userID string, grant domain.RewardGrant) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailNext; err != nil {
		s.FailNext = nil
		return false, err
	}
	if _, done := s.applied[userID][grant.ID]; done {
		return false, nil
	}
	b, ok := s.balances[userID]
	if !ok {
		b = &domain.Balance{}
		s.balances[userID] = b
	}
	if !domain.Grant(b, grant.Reward) {
		return false, nil
	}
	if s.applied[userID] == nil {
		s.applied[userID] = make(map[string]struct{})
	}
	s.applied[userID][grant.ID] = struct{}{}
	return true, nil
}

func (s *WalletStore) Balance(_ context.Context, userID string) (domain.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.balances[userID]; ok {
		return *b, nil
	}
	return domain.Balance{}, nil
}
