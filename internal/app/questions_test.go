package app_test

import (
	"context"
	"testing"

	"trivia-events-service/internal/app"
	"trivia-events-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(questions []domain.Question) []string {
	out := make([]string, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.ID)
	}
	return out
}

func TestQuizNodeQuestionsAreSeededAndSliced(t *testing.T) {
	ctx := context.Background()
	f := newFixture(threeNodeEvent())

	content, err := f.service.NodeQuestions(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, domain.NodeMiniQuiz, content.Type)
	assert.Equal(t, []string{"q8", "q9", "q4", "q1", "q3", "q10", "q5", "q2", "q11", "q6"}, ids(content.Questions))
	assert.Zero(t, content.TimeLimit)

	// Every user and every reload sees the same order.
	other, err := f.service.NodeQuestions(ctx, "u2", 0)
	require.NoError(t, err)
	assert.Equal(t, ids(content.Questions), ids(other.Questions))
}

func TestQuizNodeFilters(t *testing.T) {
	ctx := context.Background()
	event := threeNodeEvent()
	event.Nodes[0].Config = domain.QuizConfig{QuizIDs: []string{"quiz-a"}, Difficulty: "hard"}
	f := newFixture(event)

	content, err := f.service.NodeQuestions(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"q4", "q2", "q12", "q10", "q6", "q8"}, ids(content.Questions))

	event.Nodes[0].Config = domain.QuizConfig{QuizIDs: []string{"quiz-a", "quiz-b"}, TotalQuestions: 20}
	f = newFixture(event)
	content, err = f.service.NodeQuestions(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, content.Questions, 13, "shared questions are deduplicated")

	event.Nodes[0].Config = domain.QuizConfig{QuizIDs: []string{"quiz-a", "quiz-b"}, QuestionType: "multiple_choice"}
	f = newFixture(event)
	content, err = f.service.NodeQuestions(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, ids(content.Questions))
}

func TestTimeChallengeDefaultsToSixtySeconds(t *testing.T) {
	ctx := context.Background()
	event := threeNodeEvent()
	event.Nodes[0].Type = domain.NodeTimeChallenge
	f := newFixture(event)

	content, err := f.service.NodeQuestions(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, 60, content.TimeLimit)

	event.Nodes[0].Config = domain.QuizConfig{QuizIDs: []string{"quiz-a"}, TimeLimitSeconds: 45}
	f = newFixture(event)
	content, err = f.service.NodeQuestions(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, 45, content.TimeLimit)
}

func TestMissingQuizIsNotFound(t *testing.T) {
	event := threeNodeEvent()
	event.Nodes[0].Config = domain.QuizConfig{QuizIDs: []string{"gone"}}
	f := newFixture(event)

	_, err := f.service.NodeQuestions(context.Background(), "u1", 0)
	assert.ErrorIs(t, err, domain.ErrQuizNotFound)
}

func TestEmojiNodeUsesEmojiSeed(t *testing.T) {
	f := newFixture(threeNodeEvent())

	// Node content is readable before the node unlocks.
	content, err := f.service.NodeQuestions(context.Background(), "u1", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e4", "e3", "e2"}, ids(content.Questions))

	lion := content.Questions[0]
	assert.Equal(t, "🦁👑", lion.Prompt)
	require.Len(t, lion.Options, 2)
	assert.True(t, lion.Options[0].Correct)
	assert.Equal(t, "e1-0", lion.Options[0].ID)

	// Configured choices that omit the answer get it appended.
	rings := content.Questions[1]
	require.Len(t, rings.Options, 1)
	assert.Equal(t, "The Lord of the Rings", rings.Options[0].Text)
	assert.Equal(t, "Middle-earth", rings.Hint)

	titanic := content.Questions[3]
	require.Len(t, titanic.Options, 3)
	assert.Equal(t, "Titanic", titanic.Options[2].Text)
	assert.True(t, titanic.Options[2].Correct)
}

func TestQuoteNodeUsesBaseSeed(t *testing.T) {
	f := newFixture(threeNodeEvent())

	content, err := f.service.NodeQuestions(context.Background(), "u1", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"qt1", "qt3", "qt2", "qt4"}, ids(content.Questions))
	assert.Equal(t, string(domain.NodeQuoteGuess), content.Questions[0].Type)
}

func TestNodeQuestionsInvalidIndex(t *testing.T) {
	f := newFixture(threeNodeEvent())
	_, err := f.service.NodeQuestions(context.Background(), "u1", 7)
	assert.ErrorIs(t, err, domain.ErrInvalidNodeIndex)
}

func TestSelectQuestionsLimit(t *testing.T) {
	candidates := quizBank()["quiz-a"].Questions
	assert.Len(t, app.SelectQuestions(candidates, "2026-W01", 0, 5), 5)
	assert.Len(t, app.SelectQuestions(candidates, "2026-W01", 0, 50), 12)
	assert.Empty(t, app.SelectQuestions(nil, "2026-W01", 0, 10))
}
