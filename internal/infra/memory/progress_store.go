package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"trivia-events-service/internal/domain"
)

// ProgressStore is an in-memory implementation of app.ProgressStore. A single mutex
// makes every method atomic, mirroring the conditional updates of the Mongo store.
type ProgressStore struct {
	mu     sync.Mutex
	nextID int
	docs   map[domain.ProgressKey]*domain.Progress
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{docs: make(map[domain.ProgressKey]*domain.Progress)}
}

func (s *ProgressStore) GetOrCreate(_ context.Context, key domain.ProgressKey, now time.Time) (domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.docs[key]; ok {
		return clone(p), nil
	}
	s.nextID++
	unlocked := now
	p := &domain.Progress{
		ID:               strconv.Itoa(s.nextID),
		UserID:           key.UserID,
		EventID:          key.EventID,
		CurrentNodeIndex: 0,
		NodeProgress:     []domain.NodeProgress{{Index: 0, UnlockedAt: &unlocked}},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.docs[key] = p
	return clone(p), nil
}

func (s *ProgressStore) Get(_ context.Context, key domain.ProgressKey) (domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.docs[key]
	if !ok {
		return domain.Progress{}, domain.ErrProgressNotFound
	}
	return clone(p), nil
}

func (s *ProgressStore) RecordAttempt(_ context.Context, key domain.ProgressKey, index int, result domain.NodeResult, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.docs[key]
	if !ok {
		return domain.ErrProgressNotFound
	}
	np := entry(p, index, now)
	correct, score := result.Values()
	np.Attempts++
	np.QuestionsCorrect = max(np.QuestionsCorrect, correct)
	np.BestScore = max(np.BestScore, score)
	at := now
	np.LastAttemptAt = &at
	p.UpdatedAt = now
	return nil
}

func (s *ProgressStore) MarkCompleted(_ context.Context, key domain.ProgressKey, index int, grant domain.RewardGrant, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.docs[key]
	if !ok {
		return false, domain.ErrProgressNotFound
	}
	np := entry(p, index, now)
	if np.CompletedAt != nil {
		return false, nil
	}
	at := now
	np.CompletedAt = &at
	np.TrophiesCollected = grant.Reward.Trophies
	if !grant.Reward.IsZero() {
		p.PendingGrants = append(p.PendingGrants, grant)
	}
	p.UpdatedAt = now
	return true, nil
}

func (s *ProgressStore) Advance(_ context.Context, key domain.ProgressKey, from, to int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.docs[key]
	if !ok {
		return domain.ErrProgressNotFound
	}
	if p.CurrentNodeIndex == from {
		p.CurrentNodeIndex = to
	}
	entry(p, to, now)
	p.UpdatedAt = now
	return nil
}

func (s *ProgressStore) ClaimFullCompletion(_ context.Context, key domain.ProgressKey, grant domain.RewardGrant, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.docs[key]
	if !ok {
		return false, domain.ErrProgressNotFound
	}
	if p.FullCompletionRewardClaimed {
		return false, nil
	}
	p.FullCompletionRewardClaimed = true
	if !grant.Reward.IsZero() {
		p.PendingGrants = append(p.PendingGrants, grant)
	}
	p.UpdatedAt = now
	return true, nil
}

func (s *ProgressStore) ResolveGrant(_ context.Context, key domain.ProgressKey, grantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.docs[key]
	if !ok {
		return domain.ErrProgressNotFound
	}
	kept := p.PendingGrants[:0]
	for _, g := range p.PendingGrants {
		if g.ID != grantID {
			kept = append(kept, g)
		}
	}
	p.PendingGrants = kept
	return nil
}

// entry returns the node's progress, creating it unlocked at now when missing.
func entry(p *domain.Progress, index int, now time.Time) *domain.NodeProgress {
	for i := range p.NodeProgress {
		if p.NodeProgress[i].Index == index {
			np := &p.NodeProgress[i]
			if np.UnlockedAt == nil {
				at := now
				np.UnlockedAt = &at
			}
			return np
		}
	}
	at := now
	p.NodeProgress = append(p.NodeProgress, domain.NodeProgress{Index: index, UnlockedAt: &at})
	p.SortNodes()
	for i := range p.NodeProgress {
		if p.NodeProgress[i].Index == index {
			return &p.NodeProgress[i]
		}
	}
	return nil
}

func clone(p *domain.Progress) domain.Progress {
	out := *p
	out.NodeProgress = append([]domain.NodeProgress(nil), p.NodeProgress...)
	out.PendingGrants = append([]domain.RewardGrant(nil), p.PendingGrants...)
	return out
}
