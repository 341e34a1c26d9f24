package domain_test

import (
	"testing"

	"trivia-events-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrant(t *testing.T) {
	b := domain.Balance{Stars: 5, Gems: 1}

	assert.True(t, domain.Grant(&b, domain.Reward{Trophies: 10, Gems: 2}))
	assert.Equal(t, domain.Balance{Stars: 15, Gems: 3}, b)

	// Negative amounts clamp to zero.
	assert.True(t, domain.Grant(&b, domain.Reward{Trophies: -50, Gems: 4}))
	assert.Equal(t, domain.Balance{Stars: 15, Gems: 7}, b)

	assert.False(t, domain.Grant(&b, domain.Reward{Trophies: -1}))
	assert.False(t, domain.Grant(&b, domain.Reward{}))
	assert.Equal(t, domain.Balance{Stars: 15, Gems: 7}, b)

	assert.False(t, domain.Grant(nil, domain.Reward{Trophies: 1}))
}

func TestRewardIsZero(t *testing.T) {
	assert.True(t, domain.Reward{}.IsZero())
	assert.True(t, domain.Reward{Trophies: -3, Gems: -1}.IsZero())
	assert.False(t, domain.Reward{Gems: 1}.IsZero())
}

func TestGrantIDs(t *testing.T) {
	node := domain.NodeCompletionGrant("ev-1", 2, domain.Reward{Trophies: 30, Gems: -2})
	assert.Equal(t, "ev-1:node:2", node.ID)
	assert.Equal(t, domain.GrantNodeCompletion, node.Type)
	require.NotNil(t, node.NodeIndex)
	assert.Equal(t, 2, *node.NodeIndex)
	assert.Equal(t, domain.Reward{Trophies: 30}, node.Reward)

	full := domain.FullCompletionGrant("ev-1", domain.Reward{Gems: 5})
	assert.Equal(t, "ev-1:full", full.ID)
	assert.Equal(t, domain.GrantFullCompletion, full.Type)
	assert.Nil(t, full.NodeIndex)
}
