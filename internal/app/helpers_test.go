package app_test

import (
	"context"
	"strconv"
	"sync"
	"time"

	"trivia-events-service/internal/app"
	"trivia-events-service/internal/domain"
	"trivia-events-service/internal/infra/memory"
)

var now = time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)

type fixture struct {
	service   *app.EventService
	events    *memory.EventStore
	progress  *memory.ProgressStore
	wallet    *memory.WalletStore
	votes     *memory.VoteStore
	recorder  *recordingRecorder
	publisher *recordingPublisher
}

func newFixture(events ...domain.WeeklyEvent) *fixture {
	f := &fixture{
		events:    memory.NewEventStore(events...),
		progress:  memory.NewProgressStore(),
		wallet:    memory.NewWalletStore(),
		votes:     memory.NewVoteStore(),
		recorder:  &recordingRecorder{},
		publisher: &recordingPublisher{},
	}
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(quizBank()), time.Minute)
	f.service = app.NewEventService(f.events, f.progress, f.wallet, f.votes, quizzes,
		app.WithClock(func() time.Time { return now }),
		app.WithRecorder(f.recorder),
		app.WithPublisher(f.publisher),
		app.WithOrigin("test"),
	)
	return f
}

// threeNodeEvent pays 10/20/30 trophies per node and 100 for finishing the path.
func threeNodeEvent() domain.WeeklyEvent {
	return domain.WeeklyEvent{
		ID:       "ev-1",
		WeekKey:  "2026-W01",
		StartsAt: now.Add(-24 * time.Hour),
		EndsAt:   now.Add(6 * 24 * time.Hour),
		IsActive: true,
		Nodes: []domain.Node{
			{Index: 0, Type: domain.NodeMiniQuiz, CompletionReward: domain.Reward{Trophies: 10},
				Config: domain.QuizConfig{QuizIDs: []string{"quiz-a"}}},
			{Index: 1, Type: domain.NodeEmojiPuzzle, CompletionReward: domain.Reward{Trophies: 20},
				Config: domain.EmojiConfig{Puzzles: emojiPuzzles()}},
			{Index: 2, Type: domain.NodeQuoteGuess, CompletionReward: domain.Reward{Trophies: 30},
				Config: domain.QuoteConfig{Quotes: quotes()}},
		},
		FullCompletionReward: domain.Reward{Trophies: 100},
	}
}

func voteEvent() domain.WeeklyEvent {
	e := threeNodeEvent()
	e.Nodes = append(e.Nodes, domain.Node{
		Index: 3,
		Type:  domain.NodeVote,
		Config: domain.VoteConfig{
			Question: "Next theme?",
			Options: []domain.VoteOption{
				{ID: "space", Text: "Space", Emoji: "🚀"},
				{ID: "history", Text: "History"},
				{ID: "music", Text: "Music"},
			},
		},
	})
	return e
}

func quizBank() map[string]domain.Quiz {
	a := domain.Quiz{ID: "quiz-a"}
	for i := 1; i <= 12; i++ {
		difficulty := "easy"
		if i%2 == 0 {
			difficulty = "hard"
		}
		a.Questions = append(a.Questions, domain.Question{
			ID:         "q" + strconv.Itoa(i),
			Prompt:     "Question " + strconv.Itoa(i),
			Options:    []domain.Option{{ID: "t", Text: "True", Correct: true}, {ID: "f", Text: "False"}},
			Points:     1,
			Difficulty: difficulty,
			Type:       "true_false",
		})
	}
	b := domain.Quiz{ID: "quiz-b", Questions: []domain.Question{
		a.Questions[0], // shared with quiz-a
		{ID: "b1", Prompt: "Extra", Difficulty: "easy", Type: "multiple_choice",
			Options: []domain.Option{{ID: "x", Text: "X", Correct: true}, {ID: "y", Text: "Y"}}},
	}}
	return map[string]domain.Quiz{"quiz-a": a, "quiz-b": b}
}

func emojiPuzzles() []domain.EmojiPuzzle {
	return []domain.EmojiPuzzle{
		{ID: "e1", Emojis: "🦁👑", Answer: "The Lion King", Options: []string{"The Lion King", "Tarzan"}},
		{ID: "e2", Emojis: "🚢🧊", Answer: "Titanic", Options: []string{"Jaws", "Frozen"}},
		{ID: "e3", Emojis: "🕷️🧑", Answer: "Spider-Man"},
		{ID: "e4", Emojis: "🧙‍♂️💍", Answer: "The Lord of the Rings", Hint: "Middle-earth"},
	}
}

func quotes() []domain.Quote {
	return []domain.Quote{
		{ID: "qt1", Text: "I think, therefore I am.", Author: "Descartes", Options: []string{"Descartes", "Kant"}},
		{ID: "qt2", Text: "To be or not to be.", Author: "Shakespeare", Options: []string{"Marlowe", "Shakespeare"}},
		{ID: "qt3", Text: "Veni, vidi, vici.", Author: "Caesar"},
		{ID: "qt4", Text: "Know thyself.", Author: "Socrates"},
	}
}

func intPtr(v int) *int { return &v }

type recordingRecorder struct {
	mu          sync.Mutex
	completions []bool
	grants      []domain.RewardGrant
	votes       int
}

func (r *recordingRecorder) NodeCompleted(_ domain.NodeType, first bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completions = append(r.completions, first)
}

func (r *recordingRecorder) RewardGranted(g domain.RewardGrant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grants = append(r.grants, g)
}

func (r *recordingRecorder) VoteSubmitted(string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.votes++
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads []any
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) count(subject string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range p.subjects {
		if s == subject {
			n++
		}
	}
	return n
}
