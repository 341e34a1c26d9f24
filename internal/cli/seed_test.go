package cli

import (
	"testing"
	"time"

	"trivia-events-service/internal/domain"
)

const seedYAML = `
events:
  - weekKey: 2026-W42
    title: Space Week
    startsAt: 2026-10-12T00:00:00Z
    endsAt: 2026-10-19T00:00:00Z
    isActive: true
    fullCompletionReward: {trophies: 100, gems: 5}
    nodes:
      - index: 0
        type: mini_quiz
        completionReward: {trophies: 10}
        config: {quizIds: [space-1], difficulty: easy, totalQuestions: 5}
      - index: 1
        type: vote
        config:
          question: Best planet?
          options:
            - {id: mars, text: Mars}
            - {id: saturn, text: Saturn}
quizzes:
  - id: space-1
    title: Space basics
    questions:
      - id: q1
        prompt: Closest star to Earth?
        points: 1
        options:
          - {id: a, text: The Sun, correct: true}
          - {id: b, text: Sirius}
`

func TestDecodeSeed(t *testing.T) {
	seed, err := decodeSeed([]byte(seedYAML))
	if err != nil {
		t.Fatalf("decode seed: %v", err)
	}
	if len(seed.Events) != 1 || len(seed.Quizzes) != 1 {
		t.Fatalf("expected one event and one quiz, got %d/%d", len(seed.Events), len(seed.Quizzes))
	}
	event := seed.Events[0]
	if !event.StartsAt.Equal(time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", event.StartsAt)
	}
	cfg, ok := event.Nodes[0].Config.(domain.QuizConfig)
	if !ok || cfg.TotalQuestions != 5 || cfg.QuizIDs[0] != "space-1" {
		t.Fatalf("unexpected quiz config %#v", event.Nodes[0].Config)
	}
	if _, ok := event.Nodes[1].Config.(domain.VoteConfig); !ok {
		t.Fatalf("expected vote config, got %#v", event.Nodes[1].Config)
	}
	if !seed.Quizzes[0].Questions[0].Options[0].Correct {
		t.Fatalf("expected correct flag on first option")
	}
}

func TestDecodeSeedRejectsMismatchedIndex(t *testing.T) {
	bad := `
events:
  - weekKey: 2026-W42
    startsAt: 2026-10-12T00:00:00Z
    endsAt: 2026-10-19T00:00:00Z
    isActive: true
    nodes:
      - index: 1
        type: mini_quiz
        config: {quizIds: [space-1]}
`
	if _, err := decodeSeed([]byte(bad)); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestSampleEventIsValidAndCurrent(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	event := sampleEvent(now)
	if err := event.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !event.ActiveAt(now) {
		t.Fatalf("expected demo event active at %v (window %v - %v)", now, event.StartsAt, event.EndsAt)
	}
	if event.WeekKey != "2026-W42" {
		t.Fatalf("expected 2026-W42, got %s", event.WeekKey)
	}
}
