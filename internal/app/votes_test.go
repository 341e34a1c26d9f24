package app_test

import (
	"context"
	"testing"
	"time"

	"trivia-events-service/internal/app"
	"trivia-events-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unlockVote walks userID up to the vote node at index 3.
func unlockVote(t *testing.T, f *fixture, userID string) {
	t.Helper()
	for i := 0; i < 3; i++ {
		_, err := f.service.CompleteNode(context.Background(), userID, i, domain.NodeResult{})
		require.NoError(t, err)
	}
}

func TestSubmitVoteReplacesEarlierChoice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(voteEvent())
	unlockVote(t, f, "u1")

	res, err := f.service.SubmitVote(ctx, "u1", 3, "space")
	require.NoError(t, err)
	assert.Equal(t, "Vote recorded", res.Message)
	assert.Equal(t, "space", res.UserVote)
	assert.Equal(t, 1, res.TotalVotes)

	res, err = f.service.SubmitVote(ctx, "u1", 3, "music")
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalVotes, "a changed vote is not additive")
	assert.Equal(t, 1, f.votes.Count("ev-1", 3))
	assert.Equal(t, []int{0, 0, 1}, counts(res.Stats))
	assert.Equal(t, []int{0, 0, 100}, percentages(res.Stats))

	assert.Equal(t, 2, f.recorder.votes)
	assert.Equal(t, 2, f.publisher.count(app.SubjectVoteSubmitted))
}

func TestVoteStatsPercentages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(voteEvent())
	for _, v := range []struct{ user, option string }{
		{"u1", "space"}, {"u2", "space"}, {"u3", "history"},
	} {
		unlockVote(t, f, v.user)
		_, err := f.service.SubmitVote(ctx, v.user, 3, v.option)
		require.NoError(t, err)
	}

	content, err := f.service.NodeQuestions(ctx, "u3", 3)
	require.NoError(t, err)
	require.NotNil(t, content.Vote)
	assert.Equal(t, "Next theme?", content.Vote.Question)
	assert.Equal(t, 3, content.Vote.TotalVotes)
	assert.Equal(t, []int{2, 1, 0}, counts(content.Vote.Stats))
	assert.Equal(t, []int{67, 33, 0}, percentages(content.Vote.Stats))
	assert.Equal(t, "🚀", content.Vote.Stats[0].Emoji)
	require.NotNil(t, content.Vote.UserVote)
	assert.Equal(t, "history", *content.Vote.UserVote)

	fresh, err := f.service.NodeQuestions(ctx, "u9", 3)
	require.NoError(t, err)
	assert.Nil(t, fresh.Vote.UserVote)
}

func TestSubmitVoteErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(voteEvent())

	_, err := f.service.SubmitVote(ctx, "u1", 3, "space")
	assert.ErrorIs(t, err, domain.ErrNodeLocked)

	unlockVote(t, f, "u1")
	_, err = f.service.SubmitVote(ctx, "u1", 0, "space")
	assert.ErrorIs(t, err, domain.ErrNotVoteNode)
	_, err = f.service.SubmitVote(ctx, "u1", 3, "")
	assert.ErrorIs(t, err, domain.ErrMissingOption)
	_, err = f.service.SubmitVote(ctx, "u1", 3, "cooking")
	assert.ErrorIs(t, err, domain.ErrOptionNotFound)
	_, err = f.service.SubmitVote(ctx, "u1", 9, "space")
	assert.ErrorIs(t, err, domain.ErrInvalidNodeIndex)

	assert.Zero(t, f.votes.Count("ev-1", 3))
}

func TestComputeVoteStats(t *testing.T) {
	options := []domain.VoteOption{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}, {ID: "c", Text: "C"}}

	empty := app.ComputeVoteStats("ev-1", 3, options, nil)
	assert.Equal(t, 0, empty.TotalVotes)
	assert.Equal(t, []int{0, 0, 0}, percentages(empty.Options))

	// Rows for options removed from the config still count toward the total.
	stats := app.ComputeVoteStats("ev-1", 3, options, map[string]int{"a": 1, "b": 1, "c": 1, "gone": 1})
	assert.Equal(t, 4, stats.TotalVotes)
	assert.Equal(t, []int{25, 25, 25}, percentages(stats.Options))

	thirds := app.ComputeVoteStats("ev-1", 3, options, map[string]int{"a": 1, "b": 1, "c": 1})
	assert.Equal(t, []int{33, 33, 33}, percentages(thirds.Options))

	half := app.ComputeVoteStats("ev-1", 3, options[:2], map[string]int{"a": 1, "b": 7})
	assert.Equal(t, []int{13, 88}, percentages(half.Options))
}

func TestLiveVoteSubscription(t *testing.T) {
	ctx := context.Background()
	f := newFixture(voteEvent())
	unlockVote(t, f, "u1")

	updates, cancel, err := f.service.SubscribeVotes(ctx, 3)
	require.NoError(t, err)
	defer cancel()

	initial := <-updates
	assert.Equal(t, 0, initial.TotalVotes)

	_, err = f.service.SubmitVote(ctx, "u1", 3, "history")
	require.NoError(t, err)

	select {
	case stats := <-updates:
		assert.Equal(t, 1, stats.TotalVotes)
		assert.Equal(t, []int{0, 1, 0}, counts(stats.Options))
	case <-time.After(time.Second):
		t.Fatal("expected a stats update")
	}

	_, _, err = f.service.SubscribeVotes(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrNotVoteNode)
}

func TestHandleRemoteVote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(voteEvent())
	updates, cancel, err := f.service.SubscribeVotes(ctx, 3)
	require.NoError(t, err)
	defer cancel()
	<-updates

	// Own messages are ignored; the local broadcast already happened.
	f.service.HandleRemoteVote(ctx, app.VoteSubmittedEvent{Origin: "test", EventID: "ev-1", NodeIndex: 3})
	select {
	case <-updates:
		t.Fatal("unexpected update for own origin")
	default:
	}

	// Another instance stored a vote directly.
	require.NoError(t, f.votes.Upsert(ctx, domain.Vote{UserID: "u7", EventID: "ev-1", NodeIndex: 3, OptionID: "music"}))
	f.service.HandleRemoteVote(ctx, app.VoteSubmittedEvent{Origin: "other", EventID: "ev-1", NodeIndex: 3})
	select {
	case stats := <-updates:
		assert.Equal(t, 1, stats.TotalVotes)
	case <-time.After(time.Second):
		t.Fatal("expected a stats update from the remote vote")
	}
}

func counts(stats []domain.OptionStat) []int {
	out := make([]int, 0, len(stats))
	for _, s := range stats {
		out = append(out, s.Count)
	}
	return out
}

func percentages(stats []domain.OptionStat) []int {
	out := make([]int, 0, len(stats))
	for _, s := range stats {
		out = append(out, s.Percentage)
	}
	return out
}
