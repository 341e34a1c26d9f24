package app_test

import (
	"testing"

	"trivia-events-service/internal/app"
	"trivia-events-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteHubRoutesByNode(t *testing.T) {
	hub := app.NewVoteHub()
	a, cancelA := hub.Subscribe("ev-1", 3, domain.VoteStats{EventID: "ev-1", NodeIndex: 3})
	b, cancelB := hub.Subscribe("ev-1", 4, domain.VoteStats{EventID: "ev-1", NodeIndex: 4})
	defer cancelB()
	<-a
	<-b

	hub.Broadcast(domain.VoteStats{EventID: "ev-1", NodeIndex: 3, TotalVotes: 5})
	got := <-a
	assert.Equal(t, 5, got.TotalVotes)
	assert.Empty(t, b)

	assert.Equal(t, 1, hub.Subscribers("ev-1", 3))
	cancelA()
	cancelA() // idempotent
	assert.Zero(t, hub.Subscribers("ev-1", 3))
	_, open := <-a
	assert.False(t, open)
}

func TestVoteHubDropsStaleUpdatesForSlowSubscribers(t *testing.T) {
	hub := app.NewVoteHub()
	ch, cancel := hub.Subscribe("ev-1", 3, domain.VoteStats{EventID: "ev-1", NodeIndex: 3})
	defer cancel()

	for i := 1; i <= 20; i++ {
		hub.Broadcast(domain.VoteStats{EventID: "ev-1", NodeIndex: 3, TotalVotes: i})
	}

	var last domain.VoteStats
	n := len(ch)
	require.LessOrEqual(t, n, 8)
	for i := 0; i < n; i++ {
		last = <-ch
	}
	assert.Equal(t, 20, last.TotalVotes, "the newest update is never dropped")
}
