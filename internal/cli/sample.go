package cli

import (
	"fmt"
	"time"

	"trivia-events-service/internal/domain"
)

// sampleEvent is the demo week served when no event store is configured. It starts at the
// beginning of the current ISO week.
func sampleEvent(now time.Time) domain.WeeklyEvent {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start = start.AddDate(0, 0, -((int(start.Weekday()) + 6) % 7))
	year, week := start.ISOWeek()

	return domain.WeeklyEvent{
		WeekKey:  fmt.Sprintf("%d-W%02d", year, week),
		Title:    "Demo Week",
		Theme:    "general",
		StartsAt: start,
		EndsAt:   start.AddDate(0, 0, 7),
		IsActive: true,
		Nodes: []domain.Node{
			{Index: 0, Type: domain.NodeMiniQuiz, Title: "Warm up", CompletionReward: domain.Reward{Trophies: 10},
				Config: domain.QuizConfig{QuizIDs: []string{"quiz-1"}, TotalQuestions: 5}},
			{Index: 1, Type: domain.NodeTimeChallenge, Title: "Beat the clock", CompletionReward: domain.Reward{Trophies: 20, Gems: 1},
				Config: domain.QuizConfig{QuizIDs: []string{"quiz-1"}}},
			{Index: 2, Type: domain.NodeEmojiPuzzle, Title: "Emoji movies", CompletionReward: domain.Reward{Trophies: 20},
				Config: domain.EmojiConfig{Puzzles: []domain.EmojiPuzzle{
					{ID: "e1", Emojis: "🦁👑", Answer: "The Lion King", Options: []string{"The Lion King", "Madagascar", "Tarzan"}},
					{ID: "e2", Emojis: "🚢🧊💔", Answer: "Titanic", Options: []string{"Frozen", "Titanic", "Jaws"}},
				}}},
			{Index: 3, Type: domain.NodeVote, Title: "Community pick",
				Config: domain.VoteConfig{Question: "Which theme next week?", Options: []domain.VoteOption{
					{ID: "space", Text: "Space", Emoji: "🚀"},
					{ID: "history", Text: "History", Emoji: "🏛️"},
				}}},
		},
		FullCompletionReward: domain.Reward{Trophies: 100, Gems: 5},
	}
}

// sampleQuizzes provides a minimal quiz bank; a Postgres-backed loader replaces it in production.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "General knowledge",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "What is 2 + 2?",
					Options: []domain.Option{
						{ID: "o1", Text: "3", Correct: false},
						{ID: "o2", Text: "4", Correct: true},
						{ID: "o3", Text: "5", Correct: false},
					},
					Points:     1,
					Difficulty: "easy",
				},
				{
					ID:     "q2",
					Prompt: "Which planet is known as the red planet?",
					Options: []domain.Option{
						{ID: "o1", Text: "Venus", Correct: false},
						{ID: "o2", Text: "Mars", Correct: true},
						{ID: "o3", Text: "Jupiter", Correct: false},
					},
					Points:     1,
					Difficulty: "easy",
				},
				{
					ID:     "q3",
					Prompt: "The Great Barrier Reef lies off the coast of Australia.",
					Options: []domain.Option{
						{ID: "t", Text: "True", Correct: true},
						{ID: "f", Text: "False", Correct: false},
					},
					Points:     1,
					Difficulty: "medium",
					Type:       "true_false",
				},
			},
		},
	}
}
