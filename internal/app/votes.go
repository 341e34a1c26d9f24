package app

import (
	"context"
	"fmt"
	"math"

	"trivia-events-service/internal/domain"

	"go.uber.org/zap"
)

// VoteResult is returned after a vote is stored.
type VoteResult struct {
	Message    string              `json:"message"`
	Stats      []domain.OptionStat `json:"stats"`
	TotalVotes int                 `json:"totalVotes"`
	UserVote   string              `json:"userVote"`
}

// SubmitVote stores the user's choice on a vote node. Voting again replaces the earlier
// choice; only the latest one counts.
func (s *EventService) SubmitVote(ctx context.Context, userID string, index int, optionID string) (VoteResult, error) {
	event, cfg, err := s.voteNode(ctx, index)
	if err != nil {
		return VoteResult{}, err
	}
	if optionID == "" {
		return VoteResult{}, domain.ErrMissingOption
	}
	if _, ok := cfg.Option(optionID); !ok {
		return VoteResult{}, domain.ErrOptionNotFound
	}

	progress, err := s.loadProgress(ctx, domain.ProgressKey{UserID: userID, EventID: event.ID})
	if err != nil {
		return VoteResult{}, err
	}
	if index > progress.CurrentNodeIndex {
		return VoteResult{}, domain.ErrNodeLocked
	}

	now := s.now()
	if err := s.votes.Upsert(ctx, domain.Vote{
		UserID:    userID,
		EventID:   event.ID,
		NodeIndex: index,
		OptionID:  optionID,
		UpdatedAt: now,
	}); err != nil {
		return VoteResult{}, fmt.Errorf("upsert vote: %w", err)
	}

	stats, err := s.voteStats(ctx, event.ID, index, cfg)
	if err != nil {
		return VoteResult{}, err
	}
	s.hub.Broadcast(stats)
	s.recorder.VoteSubmitted(event.ID, index)
	s.publish(ctx, SubjectVoteSubmitted, VoteSubmittedEvent{
		Origin:    s.origin,
		UserID:    userID,
		EventID:   event.ID,
		NodeIndex: index,
		OptionID:  optionID,
		At:        now,
	})

	return VoteResult{
		Message:    "Vote recorded",
		Stats:      stats.Options,
		TotalVotes: stats.TotalVotes,
		UserVote:   optionID,
	}, nil
}

// SubscribeVotes streams stats for a vote node. The first value is the current tally.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *EventService) SubscribeVotes(ctx context.Context, index int) (<-chan domain.VoteStats, func(), error) {
	event, cfg, err := s.voteNode(ctx, index)
	if err != nil {
		return nil, nil, err
	}
	stats, err := s.voteStats(ctx, event.ID, index, cfg)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hub.Subscribe(event.ID, index, stats)
	return ch, cancel, nil
}

// HandleRemoteVote refreshes local subscribers after another instance stored a vote.
func (s *EventService) HandleRemoteVote(ctx context.Context, ev VoteSubmittedEvent) {
	if ev.Origin != "" && ev.Origin == s.origin {
		return
	}
	event, cfg, err := s.voteNode(ctx, ev.NodeIndex)
	if err != nil || event.ID != ev.EventID {
		return
	}
	stats, err := s.voteStats(ctx, event.ID, ev.NodeIndex, cfg)
	if err != nil {
		s.logger.Warn("refresh vote stats", zap.String("event_id", ev.EventID), zap.Error(err))
		return
	}
	s.hub.Broadcast(stats)
}

func (s *EventService) voteNode(ctx context.Context, index int) (domain.WeeklyEvent, domain.VoteConfig, error) {
	event, err := s.ActiveEvent(ctx)
	if err != nil {
		return domain.WeeklyEvent{}, domain.VoteConfig{}, err
	}
	node, err := event.Node(index)
	if err != nil {
		return domain.WeeklyEvent{}, domain.VoteConfig{}, err
	}
	cfg, ok := node.Config.(domain.VoteConfig)
	if !ok {
		return domain.WeeklyEvent{}, domain.VoteConfig{}, domain.ErrNotVoteNode
	}
	return event, cfg, nil
}

func (s *EventService) voteView(ctx context.Context, userID, eventID string, index int, cfg domain.VoteConfig) (VoteView, error) {
	stats, err := s.voteStats(ctx, eventID, index, cfg)
	if err != nil {
		return VoteView{}, err
	}
	view := VoteView{
		Question:   cfg.Question,
		Options:    cfg.Options,
		Stats:      stats.Options,
		TotalVotes: stats.TotalVotes,
	}
	vote, ok, err := s.votes.Get(ctx, userID, eventID, index)
	if err != nil {
		return VoteView{}, fmt.Errorf("load vote: %w", err)
	}
	if ok {
		view.UserVote = &vote.OptionID
	}
	return view, nil
}

func (s *EventService) voteStats(ctx context.Context, eventID string, index int, cfg domain.VoteConfig) (domain.VoteStats, error) {
	counts, err := s.votes.Tally(ctx, eventID, index)
	if err != nil {
		return domain.VoteStats{}, fmt.Errorf("tally votes: %w", err)
	}
	return ComputeVoteStats(eventID, index, cfg.Options, counts), nil
}

// ComputeVoteStats turns raw per-option counts into one entry per configured option, in
// config order. TotalVotes counts every row, including options no longer configured.
func ComputeVoteStats(eventID string, index int, options []domain.VoteOption, counts map[string]int) domain.VoteStats {
	total := 0
	for _, c := range counts {
		total += c
	}
	stats := domain.VoteStats{
		EventID:    eventID,
		NodeIndex:  index,
		Options:    make([]domain.OptionStat, 0, len(options)),
		TotalVotes: total,
	}
	for _, opt := range options {
		count := counts[opt.ID]
		pct := 0
		if total > 0 {
			pct = int(math.Round(float64(count) / float64(total) * 100))
		}
		stats.Options = append(stats.Options, domain.OptionStat{
			OptionID:   opt.ID,
			Text:       opt.Text,
			Emoji:      opt.Emoji,
			Count:      count,
			Percentage: pct,
		})
	}
	return stats
}
