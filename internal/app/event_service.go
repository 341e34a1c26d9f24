package app

import (
	"context"
	"fmt"
	"time"

	"trivia-events-service/internal/domain"

	"go.uber.org/zap"
)

// EventService contains the weekly event use cases: reading the current event, completing
// nodes, serving node content and collecting votes.
type EventService struct {
	events   EventRepository
	progress ProgressStore
	wallet   WalletStore
	votes    VoteStore
	quizzes  QuizRepository

	hub       *VoteHub
	publisher Publisher
	recorder  Recorder
	logger    *zap.Logger
	now       func() time.Time
	origin    string
}

// Option customizes an EventService.
type Option func(*EventService)

// WithClock is mostly for tests that need deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *EventService) { s.now = now }
}

// WithLogger sets the logger used for grant and publish failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *EventService) { s.logger = logger }
}

// WithPublisher sets where domain events are published.
func WithPublisher(p Publisher) Option {
	return func(s *EventService) { s.publisher = p }
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(s *EventService) { s.recorder = r }
}

// WithVoteHub shares a hub between services; each service gets its own by default.
func WithVoteHub(h *VoteHub) Option {
	return func(s *EventService) { s.hub = h }
}

// WithOrigin tags published events so an instance can ignore its own messages.
func WithOrigin(origin string) Option {
	return func(s *EventService) { s.origin = origin }
}

func NewEventService(events EventRepository, progress ProgressStore, wallet WalletStore, votes VoteStore, quizzes QuizRepository, opts ...Option) *EventService {
	s := &EventService{
		events:    events,
		progress:  progress,
		wallet:    wallet,
		votes:     votes,
		quizzes:   quizzes,
		hub:       NewVoteHub(),
		publisher: nopPublisher{},
		recorder:  nopRecorder{},
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EventSummary is the event header returned to clients.
type EventSummary struct {
	ID                   string        `json:"id"`
	WeekKey              string        `json:"weekKey"`
	Title                string        `json:"title,omitempty"`
	Theme                string        `json:"theme,omitempty"`
	StartsAt             time.Time     `json:"startsAt"`
	EndsAt               time.Time     `json:"endsAt"`
	TotalNodes           int           `json:"totalNodes"`
	FullCompletionReward domain.Reward `json:"fullCompletionReward"`
}

// NodeView is a node plus the caller's state on it.
type NodeView struct {
	Index             int               `json:"index"`
	Type              domain.NodeType   `json:"type"`
	Title             string            `json:"title,omitempty"`
	Status            domain.NodeStatus `json:"status"`
	CompletionReward  domain.Reward     `json:"completionReward"`
	Config            domain.NodeConfig `json:"config"`
	Attempts          int               `json:"attempts"`
	QuestionsCorrect  int               `json:"questionsCorrect"`
	BestScore         int               `json:"bestScore"`
	TrophiesCollected int               `json:"trophiesCollected"`
	UnlockedAt        *time.Time        `json:"unlockedAt,omitempty"`
	CompletedAt       *time.Time        `json:"completedAt,omitempty"`
}

// EventView is the response of the current-event read.
type EventView struct {
	Event    EventSummary    `json:"event"`
	Progress domain.Progress `json:"progress"`
	Nodes    []NodeView      `json:"nodes"`
}

// CompletionResult is returned by CompleteNode.
type CompletionResult struct {
	Message                     string               `json:"message"`
	CurrentNodeIndex            int                  `json:"currentNodeIndex"`
	RewardsGranted              []domain.RewardGrant `json:"rewardsGranted"`
	FullCompletionRewardClaimed bool                 `json:"fullCompletionRewardClaimed"`
}

// ActiveEvent resolves the event live now.
func (s *EventService) ActiveEvent(ctx context.Context) (domain.WeeklyEvent, error) {
	return s.events.ActiveEvent(ctx, s.now())
}

// Refresh drops any cached resolution and resolves again.
func (s *EventService) Refresh(ctx context.Context) (domain.WeeklyEvent, error) {
	if inv, ok := s.events.(EventInvalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			return domain.WeeklyEvent{}, fmt.Errorf("invalidate event cache: %w", err)
		}
	}
	return s.ActiveEvent(ctx)
}

// CurrentEvent returns the active event with the user's progress, creating it on first read.
func (s *EventService) CurrentEvent(ctx context.Context, userID string) (EventView, error) {
	event, err := s.ActiveEvent(ctx)
	if err != nil {
		return EventView{}, err
	}
	progress, err := s.loadProgress(ctx, domain.ProgressKey{UserID: userID, EventID: event.ID})
	if err != nil {
		return EventView{}, err
	}
	return buildEventView(event, progress), nil
}

// CompleteNode records a play of node index. Only the node at currentNodeIndex can be
// completed for the first time; lower indexes are replays that never pay out again.
func (s *EventService) CompleteNode(ctx context.Context, userID string, index int, result domain.NodeResult) (CompletionResult, error) {
	event, err := s.ActiveEvent(ctx)
	if err != nil {
		return CompletionResult{}, err
	}
	node, err := event.Node(index)
	if err != nil {
		return CompletionResult{}, err
	}

	key := domain.ProgressKey{UserID: userID, EventID: event.ID}
	progress, err := s.loadProgress(ctx, key)
	if err != nil {
		return CompletionResult{}, err
	}
	if index > progress.CurrentNodeIndex {
		return CompletionResult{}, domain.ErrNodeLocked
	}

	now := s.now()
	if err := s.progress.RecordAttempt(ctx, key, index, result, now); err != nil {
		return CompletionResult{}, fmt.Errorf("record attempt: %w", err)
	}

	claimed := make([]domain.RewardGrant, 0, 2)
	grant := domain.NodeCompletionGrant(event.ID, index, node.CompletionReward)
	first, err := s.progress.MarkCompleted(ctx, key, index, grant, now)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("mark completed: %w", err)
	}
	if first {
		claimed = append(claimed, grant)
	}
	// The current node is completed at this point, whether by this call or an earlier one
	// that failed before advancing. Advance is conditional on from, so repeating it is safe.
	if index == progress.CurrentNodeIndex {
		if next := index + 1; next < len(event.Nodes) {
			if err := s.progress.Advance(ctx, key, index, next, now); err != nil {
				return CompletionResult{}, fmt.Errorf("advance: %w", err)
			}
		}
	}

	progress, err = s.progress.Get(ctx, key)
	if err != nil {
		return CompletionResult{}, err
	}
	fullClaimed := false
	if progress.AllCompleted(len(event.Nodes)) && !progress.FullCompletionRewardClaimed {
		full := domain.FullCompletionGrant(event.ID, event.FullCompletionReward)
		fullClaimed, err = s.progress.ClaimFullCompletion(ctx, key, full, now)
		if err != nil {
			return CompletionResult{}, fmt.Errorf("claim full completion: %w", err)
		}
		if fullClaimed {
			claimed = append(claimed, full)
		}
	}
	if first || fullClaimed {
		if progress, err = s.progress.Get(ctx, key); err != nil {
			return CompletionResult{}, err
		}
	}
	if err := s.settle(ctx, progress); err != nil {
		return CompletionResult{}, err
	}

	s.recorder.NodeCompleted(node.Type, first)
	s.publish(ctx, SubjectNodeCompleted, NodeCompletedEvent{
		Origin:           s.origin,
		UserID:           userID,
		EventID:          event.ID,
		WeekKey:          event.WeekKey,
		NodeIndex:        index,
		FirstCompletion:  first,
		CurrentNodeIndex: progress.CurrentNodeIndex,
		At:               now,
	})

	granted := make([]domain.RewardGrant, 0, len(claimed))
	for _, g := range claimed {
		if !g.Reward.IsZero() {
			granted = append(granted, g)
		}
	}

	message := "Node replayed"
	switch {
	case fullClaimed:
		message = "Weekly event completed"
	case first:
		message = "Node completed"
	}
	return CompletionResult{
		Message:                     message,
		CurrentNodeIndex:            progress.CurrentNodeIndex,
		RewardsGranted:              granted,
		FullCompletionRewardClaimed: progress.FullCompletionRewardClaimed,
	}, nil
}

// loadProgress fetches (or lazily creates) the document and settles grants left pending by
// an earlier request that failed between claiming and crediting.
func (s *EventService) loadProgress(ctx context.Context, key domain.ProgressKey) (domain.Progress, error) {
	progress, err := s.progress.GetOrCreate(ctx, key, s.now())
	if err != nil {
		return domain.Progress{}, fmt.Errorf("load progress: %w", err)
	}
	if len(progress.PendingGrants) == 0 {
		return progress, nil
	}
	if err := s.settle(ctx, progress); err != nil {
		return domain.Progress{}, err
	}
	progress.PendingGrants = nil
	return progress, nil
}

// settle applies every pending grant to the wallet and resolves it. Wallet.Apply is
// idempotent per grant ID, so replaying a grant that was credited but not resolved is safe.
func (s *EventService) settle(ctx context.Context, progress domain.Progress) error {
	key := progress.Key()
	for _, g := range progress.PendingGrants {
		applied, err := s.wallet.Apply(ctx, key.UserID, g)
		if err != nil {
			s.logger.Error("apply reward grant",
				zap.String("user_id", key.UserID),
				zap.String("grant_id", g.ID),
				zap.Error(err))
			return fmt.Errorf("apply grant %s: %w", g.ID, err)
		}
		if err := s.progress.ResolveGrant(ctx, key, g.ID); err != nil {
			return fmt.Errorf("resolve grant %s: %w", g.ID, err)
		}
		if !applied {
			continue
		}
		s.recorder.RewardGranted(g)
		s.logger.Info("reward granted",
			zap.String("user_id", key.UserID),
			zap.String("event_id", key.EventID),
			zap.String("grant_id", g.ID),
			zap.Int("trophies", g.Reward.Trophies),
			zap.Int("gems", g.Reward.Gems))
		s.publish(ctx, SubjectRewardGranted, RewardGrantedEvent{
			Origin:  s.origin,
			UserID:  key.UserID,
			EventID: key.EventID,
			GrantID: g.ID,
			Grant:   g,
			At:      s.now(),
		})
	}
	return nil
}

func (s *EventService) publish(ctx context.Context, subject string, payload any) {
	if err := s.publisher.Publish(ctx, subject, payload); err != nil {
		s.logger.Warn("publish event", zap.String("subject", subject), zap.Error(err))
	}
}

func buildEventView(event domain.WeeklyEvent, progress domain.Progress) EventView {
	nodes := make([]NodeView, 0, len(event.Nodes))
	for _, n := range event.Nodes {
		view := NodeView{
			Index:            n.Index,
			Type:             n.Type,
			Title:            n.Title,
			Status:           progress.Status(n.Index),
			CompletionReward: n.CompletionReward,
			Config:           n.Config,
		}
		if np, ok := progress.Node(n.Index); ok {
			view.Attempts = np.Attempts
			view.QuestionsCorrect = np.QuestionsCorrect
			view.BestScore = np.BestScore
			view.TrophiesCollected = np.TrophiesCollected
			view.UnlockedAt = np.UnlockedAt
			view.CompletedAt = np.CompletedAt
		}
		nodes = append(nodes, view)
	}
	if progress.NodeProgress == nil {
		progress.NodeProgress = []domain.NodeProgress{}
	}
	return EventView{
		Event: EventSummary{
			ID:                   event.ID,
			WeekKey:              event.WeekKey,
			Title:                event.Title,
			Theme:                event.Theme,
			StartsAt:             event.StartsAt,
			EndsAt:               event.EndsAt,
			TotalNodes:           len(event.Nodes),
			FullCompletionReward: event.FullCompletionReward,
		},
		Progress: progress,
		Nodes:    nodes,
	}
}
